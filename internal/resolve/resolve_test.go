package resolve

import (
	"context"
	"errors"
	"sync"

	"envpin/internal/registry"
)

// testRegistry publishes rust 1.75.0 on both test platforms, two ambiguous
// "tokio-console" builds, and a handful of libraries and tools.
func testRegistry() *registry.IndexRegistry {
	both := []string{"linux-x64", "darwin-arm64"}
	return registry.NewIndexRegistry([]registry.IndexEntry{
		{Name: "rust", Version: "1.75.0", Platforms: both, Ref: "/store/{name}-{version}-{platform}"},
		{Name: "rust", Version: "1.74.1", Platforms: both, Ref: "/store/{name}-{version}-{platform}"},
		{Name: "openssl", Version: "3.2.0", Platforms: both},
		{Name: "openssl", Version: "1.1.1", Platforms: both},
		{Name: "pkg-config", Version: "0.29.2", Platforms: both},
		{Name: "redis", Version: "7.2.4", Platforms: both},
		{Name: "cargo2junit", Version: "0.1.13", Platforms: both},
		{Name: "libiconv", Version: "1.17.0", Platforms: []string{"darwin-arm64"}},
		{Name: "tokio-console", Version: "0.1.10", Platforms: both},
		{Name: "tokio-console", Version: "0.1.11", Platforms: both},
	})
}

func testDeclaration() Declaration {
	return Declaration{
		Name:      "celery",
		Toolchain: ToolchainSpec{Name: "rust", Version: "1.75", Source: "https://static.rust-lang.org"},
		Platforms: []Platform{"linux-x64", "darwin-arm64"},
		Dependencies: []DependencyItem{
			{Name: "openssl", Kind: KindLibrary, Version: "^3"},
			{Name: "pkg-config", Kind: KindTool, Version: "*"},
			{Name: "libiconv", Kind: KindLibrary, Version: "*", Platforms: []Platform{"darwin-arm64"}},
		},
		Profiles: []ProfileDecl{
			{Name: "dev"},
			{Name: "ci", Extras: []DependencyItem{{Name: "cargo2junit", Kind: KindTool, Version: "0.1"}}, Env: map[string]string{"CI": "true"}},
		},
	}
}

// failingRegistry returns err for every lookup of name and delegates the rest.
type failingRegistry struct {
	mu    sync.Mutex
	calls map[string]int
	name  string
	err   error
	next  registry.Registry
}

func (f *failingRegistry) Lookup(ctx context.Context, name, constraint, platform string) (registry.Artifact, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	f.mu.Unlock()
	if name == f.name {
		return registry.Artifact{}, f.err
	}
	return f.next.Lookup(ctx, name, constraint, platform)
}

var errRegistryDown = errors.New("connection refused")
