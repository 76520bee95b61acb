package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"envpin/internal/registry"
)

// UnresolvableToolchainError means no registry artifact satisfies the toolchain spec.
type UnresolvableToolchainError struct {
	Spec     ToolchainSpec
	Platform Platform
	Err      error
}

func (e *UnresolvableToolchainError) Error() string {
	return fmt.Sprintf("unresolvable toolchain %s on %s: %v", e.Spec, e.Platform, e.Err)
}

func (e *UnresolvableToolchainError) Unwrap() error { return e.Err }

// AmbiguousToolchainError means the toolchain constraint matched several artifacts.
type AmbiguousToolchainError struct {
	Spec       ToolchainSpec
	Platform   Platform
	Candidates []registry.Artifact
}

func (e *AmbiguousToolchainError) Error() string {
	return fmt.Sprintf("ambiguous toolchain %s on %s: %d candidates (%s)",
		e.Spec, e.Platform, len(e.Candidates), versions(e.Candidates))
}

// UnresolvableDependencyError is the library/tool counterpart of UnresolvableToolchainError.
type UnresolvableDependencyError struct {
	Item     DependencyItem
	Platform Platform
	Profile  string
	Err      error
}

func (e *UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("unresolvable %s %s@%s on %s%s: %v",
		e.Item.Kind, e.Item.Name, e.Item.Version, e.Platform, profileSuffix(e.Profile), e.Err)
}

func (e *UnresolvableDependencyError) Unwrap() error { return e.Err }

// AmbiguousDependencyError is the library/tool counterpart of AmbiguousToolchainError.
type AmbiguousDependencyError struct {
	Item       DependencyItem
	Platform   Platform
	Profile    string
	Candidates []registry.Artifact
}

func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("ambiguous %s %s@%s on %s%s: %d candidates (%s)",
		e.Item.Kind, e.Item.Name, e.Item.Version, e.Platform, profileSuffix(e.Profile),
		len(e.Candidates), versions(e.Candidates))
}

// RegistryError wraps a lookup failure that is neither "not found" nor "ambiguous",
// typically I/O. It is surfaced as-is; envpin does not retry.
type RegistryError struct {
	Name     string
	Platform Platform
	Err      error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry lookup for %s on %s failed: %v", e.Name, e.Platform, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// ProfileNameCollisionError means two profiles share a name on one platform.
type ProfileNameCollisionError struct {
	Platform Platform
	Name     string
}

func (e *ProfileNameCollisionError) Error() string {
	return fmt.Sprintf("profile %q declared more than once on %s", e.Name, e.Platform)
}

// UnsupportedPlatformError means a platform outside the declared set was requested.
type UnsupportedPlatformError struct {
	Platform  Platform
	Supported []Platform
}

func (e *UnsupportedPlatformError) Error() string {
	names := make([]string, len(e.Supported))
	for i, p := range e.Supported {
		names[i] = string(p)
	}
	return fmt.Sprintf("platform %s is not declared (declared: %s)", e.Platform, strings.Join(names, ", "))
}

// ProfileNotFoundError means a named profile does not exist on a platform.
type ProfileNotFoundError struct {
	Platform Platform
	Name     string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found on %s", e.Name, e.Platform)
}

// PartialFailure carries every platform that resolved alongside the ones that did not.
type PartialFailure struct {
	Succeeded Resolution
	Failed    map[Platform]error
}

// FailedPlatforms returns the failed platforms in sorted order.
func (e *PartialFailure) FailedPlatforms() []Platform {
	out := make([]Platform, 0, len(e.Failed))
	for p := range e.Failed {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *PartialFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolution failed for %d of %d platforms",
		len(e.Failed), len(e.Failed)+len(e.Succeeded.Profiles))
	for _, p := range e.FailedPlatforms() {
		fmt.Fprintf(&b, "\n  %s: %v", p, e.Failed[p])
	}
	return b.String()
}

// Unwrap exposes the per-platform errors to errors.Is and errors.As.
func (e *PartialFailure) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, p := range e.FailedPlatforms() {
		out = append(out, e.Failed[p])
	}
	return out
}

// classifyLookup converts a registry error into the resolve taxonomy.
func classifyLookup(err error, item DependencyItem, platform Platform, profile string) error {
	var amb *registry.AmbiguousError
	switch {
	case errors.As(err, &amb):
		return &AmbiguousDependencyError{Item: item, Platform: platform, Profile: profile, Candidates: amb.Candidates}
	case errors.Is(err, registry.ErrNotFound):
		return &UnresolvableDependencyError{Item: item, Platform: platform, Profile: profile, Err: err}
	default:
		return &RegistryError{Name: item.Name, Platform: platform, Err: err}
	}
}

func versions(as []registry.Artifact) string {
	vs := make([]string, len(as))
	for i, a := range as {
		vs[i] = a.Version
	}
	return strings.Join(vs, ", ")
}

func profileSuffix(profile string) string {
	if profile == "" {
		return ""
	}
	return fmt.Sprintf(" (profile %s)", profile)
}
