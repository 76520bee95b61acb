package resolve

import (
	"fmt"
	"sort"

	"envpin/internal/registry"
)

// Platform is an opaque architecture+OS identifier, e.g. "linux-x64".
type Platform string

// Kind classifies a dependency item.
type Kind string

const (
	KindToolchain Kind = "toolchain"
	KindLibrary   Kind = "library"
	KindTool      Kind = "tool"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindToolchain, KindLibrary, KindTool:
		return true
	}
	return false
}

// ToolchainSpec identifies exactly one resolvable toolchain.
type ToolchainSpec struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
}

func (s ToolchainSpec) String() string {
	return fmt.Sprintf("%s@%s", s.Name, s.Version)
}

// ToolchainRef is a toolchain resolved for one platform.
type ToolchainRef struct {
	Spec     ToolchainSpec     `json:"spec"`
	Artifact registry.Artifact `json:"artifact"`
}

// Version returns the concrete resolved version.
func (r ToolchainRef) Version() string {
	return r.Artifact.Version
}

// Item returns the toolchain as the head element of a DependencySet.
func (r ToolchainRef) Item() DependencyItem {
	a := r.Artifact
	return DependencyItem{
		Name:     r.Spec.Name,
		Kind:     KindToolchain,
		Version:  r.Spec.Version,
		Artifact: &a,
	}
}

// DependencyItem is one declared build input. Artifact is nil until pinned.
type DependencyItem struct {
	Name    string `json:"name" yaml:"name"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	Version string `json:"version" yaml:"version"`
	// Platforms restricts the declaration to the listed platforms. Empty means all.
	Platforms []Platform         `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Artifact  *registry.Artifact `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// AppliesTo reports whether the declaration is active on platform.
func (d DependencyItem) AppliesTo(platform Platform) bool {
	if len(d.Platforms) == 0 {
		return true
	}
	for _, p := range d.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// Pinned reports whether the item has been resolved to an artifact.
func (d DependencyItem) Pinned() bool {
	return d.Artifact != nil
}

func (d DependencyItem) String() string {
	if d.Artifact != nil {
		return fmt.Sprintf("%s@%s", d.Name, d.Artifact.Version)
	}
	return fmt.Sprintf("%s@%s", d.Name, d.Version)
}

// DependencySet is an ordered, duplicate-free sequence of items.
type DependencySet []DependencyItem

// Clone returns a deep copy so that no two profiles alias the same backing array.
func (s DependencySet) Clone() DependencySet {
	if s == nil {
		return nil
	}
	out := make(DependencySet, len(s))
	for i, item := range s {
		cp := item
		if item.Artifact != nil {
			a := *item.Artifact
			cp.Artifact = &a
		}
		if item.Platforms != nil {
			cp.Platforms = append([]Platform(nil), item.Platforms...)
		}
		out[i] = cp
	}
	return out
}

// Index returns the position of the item named name, or -1.
func (s DependencySet) Index(name string) int {
	for i, item := range s {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// Get returns the item named name.
func (s DependencySet) Get(name string) (DependencyItem, bool) {
	if i := s.Index(name); i >= 0 {
		return s[i], true
	}
	return DependencyItem{}, false
}

// ProfileDecl declares a named profile: the shared core plus Extras.
type ProfileDecl struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Extras      []DependencyItem  `json:"extras,omitempty" yaml:"extras,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Profile is a fully composed environment for one platform.
type Profile struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Platform    Platform          `json:"platform" yaml:"platform"`
	Core        DependencySet     `json:"core" yaml:"core"`
	Extras      DependencySet     `json:"extras,omitempty" yaml:"extras,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Toolchain returns the head of the core set.
func (p Profile) Toolchain() (DependencyItem, bool) {
	if len(p.Core) == 0 || p.Core[0].Kind != KindToolchain {
		return DependencyItem{}, false
	}
	return p.Core[0], true
}

// Inputs returns the effective ordered inputs: the core with any extra that
// shares an identifier substituted in place, followed by the remaining extras.
func (p Profile) Inputs() DependencySet {
	out := p.Core.Clone()
	for _, extra := range p.Extras.Clone() {
		if i := out.Index(extra.Name); i >= 0 {
			out[i] = extra
			continue
		}
		out = append(out, extra)
	}
	return out
}

// ProfileSet maps profile name to profile for one platform.
type ProfileSet map[string]Profile

// Names returns the profile names in sorted order.
func (s ProfileSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declaration is everything the engine needs from a manifest.
type Declaration struct {
	Name         string
	Toolchain    ToolchainSpec
	Platforms    []Platform
	Dependencies []DependencyItem
	Profiles     []ProfileDecl
}

// Declares reports whether platform is one of the declared platforms.
func (d Declaration) Declares(platform Platform) bool {
	for _, p := range d.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}
