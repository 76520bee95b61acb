package resolve

import (
	"context"
	"errors"

	"envpin/internal/registry"
	"envpin/pkg/logging"
)

// Resolver pins declarations against a Registry.
type Resolver struct {
	registry registry.Registry
}

// NewResolver creates a resolver backed by reg.
func NewResolver(reg registry.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// ResolveToolchain resolves spec for platform to exactly one artifact.
// Repeated calls against an unchanged registry return identical refs.
func (r *Resolver) ResolveToolchain(ctx context.Context, spec ToolchainSpec, platform Platform) (ToolchainRef, error) {
	artifact, err := r.registry.Lookup(ctx, spec.Name, spec.Version, string(platform))
	if err != nil {
		var amb *registry.AmbiguousError
		switch {
		case errors.As(err, &amb):
			return ToolchainRef{}, &AmbiguousToolchainError{Spec: spec, Platform: platform, Candidates: amb.Candidates}
		case errors.Is(err, registry.ErrNotFound):
			return ToolchainRef{}, &UnresolvableToolchainError{Spec: spec, Platform: platform, Err: err}
		default:
			return ToolchainRef{}, &RegistryError{Name: spec.Name, Platform: platform, Err: err}
		}
	}

	logging.Debug("Resolver", "toolchain %s on %s resolved to %s", spec, platform, artifact.Version)
	return ToolchainRef{Spec: spec, Artifact: artifact}, nil
}

// Pin resolves a single library or tool. Already pinned items are returned unchanged.
func (r *Resolver) Pin(ctx context.Context, item DependencyItem, platform Platform, profile string) (DependencyItem, error) {
	if item.Pinned() {
		return item, nil
	}
	artifact, err := r.registry.Lookup(ctx, item.Name, item.Version, string(platform))
	if err != nil {
		return DependencyItem{}, classifyLookup(err, item, platform, profile)
	}
	item.Artifact = &artifact
	item.Platforms = nil
	return item, nil
}

// PinSet pins every item of set, preserving order. It stops at the first failure.
func (r *Resolver) PinSet(ctx context.Context, set DependencySet, platform Platform) (DependencySet, error) {
	out := make(DependencySet, 0, len(set))
	for _, item := range set {
		pinned, err := r.Pin(ctx, item, platform, "")
		if err != nil {
			return nil, err
		}
		out = append(out, pinned)
	}
	return out, nil
}

// PinFunc adapts the resolver for ComposeProfiles.
func (r *Resolver) PinFunc(ctx context.Context, platform Platform) PinFunc {
	return func(profile string, item DependencyItem) (DependencyItem, error) {
		return r.Pin(ctx, item, platform, profile)
	}
}
