package resolve

import (
	"context"

	"envpin/internal/registry"
	"envpin/pkg/logging"
)

// Engine wires the resolver, builder and composer into the per-platform pipeline.
type Engine struct {
	resolver *Resolver
}

// NewEngine creates an engine over reg.
func NewEngine(reg registry.Registry) *Engine {
	return &Engine{resolver: NewResolver(reg)}
}

// Compose runs the full pipeline for one declared platform.
func (e *Engine) Compose(ctx context.Context, decl Declaration, platform Platform) (PlatformResult, error) {
	if !decl.Declares(platform) {
		return PlatformResult{}, &UnsupportedPlatformError{Platform: platform, Supported: decl.Platforms}
	}

	toolchain, err := e.resolver.ResolveToolchain(ctx, decl.Toolchain, platform)
	if err != nil {
		return PlatformResult{}, err
	}

	core, diags := BuildSet(toolchain, decl.Dependencies, platform)
	core, err = e.resolver.PinSet(ctx, core, platform)
	if err != nil {
		return PlatformResult{}, err
	}

	profiles, profileDiags, err := ComposeProfiles(platform, core, decl.Profiles, e.resolver.PinFunc(ctx, platform))
	if err != nil {
		return PlatformResult{}, err
	}
	diags = append(diags, profileDiags...)

	for _, d := range diags {
		logging.Warn("Resolver", "%s", d)
	}
	logging.Debug("Resolver", "platform %s: %d core inputs, %d profiles", platform, len(core), len(profiles))

	return PlatformResult{Profiles: profiles, Diagnostics: diags}, nil
}

// Resolve runs Compose for every requested platform in parallel. An empty
// platforms slice means all declared platforms.
func (e *Engine) Resolve(ctx context.Context, decl Declaration, platforms []Platform) (Resolution, error) {
	if len(platforms) == 0 {
		platforms = decl.Platforms
	}
	return ResolveAll(ctx, platforms, func(ctx context.Context, platform Platform) (PlatformResult, error) {
		return e.Compose(ctx, decl, platform)
	})
}

// ResolveProfile resolves a single profile on a single platform.
func (e *Engine) ResolveProfile(ctx context.Context, decl Declaration, platform Platform, name string) (Profile, []Diagnostic, error) {
	res, err := e.Compose(ctx, decl, platform)
	if err != nil {
		return Profile{}, nil, err
	}
	p, ok := res.Profiles[name]
	if !ok {
		return Profile{}, res.Diagnostics, &ProfileNotFoundError{Platform: platform, Name: name}
	}
	return p, res.Diagnostics, nil
}
