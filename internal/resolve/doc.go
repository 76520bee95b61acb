// Package resolve turns a declared environment into pinned, per-platform profiles.
//
// The pipeline for one platform is
//
//	ToolchainSpec --ResolveToolchain--> ToolchainRef
//	ToolchainRef + declarations --BuildSet--> core DependencySet
//	core --PinSet--> pinned core
//	pinned core + ProfileDecls --ComposeProfiles--> ProfileSet
//
// and ResolveAll runs that pipeline once per platform, concurrently. Every
// step only reads its inputs and returns new values; nothing is shared
// between platforms except the read-only registry.
//
// # Duplicate declarations
//
// Declarations are deduplicated by identifier with last-write-wins. The
// winning declaration keeps the slot of the first occurrence so PATH order
// stays stable, and every override is reported as a
// DuplicateDependencyOverridden diagnostic. The toolchain always occupies
// slot 0; a declaration reusing its identifier is dropped with the same
// diagnostic.
package resolve
