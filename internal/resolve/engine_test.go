package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_EndToEnd(t *testing.T) {
	engine := NewEngine(testRegistry())

	res, err := engine.Resolve(context.Background(), testDeclaration(), nil)
	require.NoError(t, err)

	require.Equal(t, []Platform{"darwin-arm64", "linux-x64"}, res.Platforms())
	total := 0
	for _, platform := range res.Platforms() {
		set := res.Profiles[platform]
		require.Equal(t, []string{"ci", "dev"}, set.Names())
		total += len(set)

		dev, ci := set["dev"], set["ci"]
		devCore, err := json.Marshal(dev.Core)
		require.NoError(t, err)
		ciCore, err := json.Marshal(ci.Core)
		require.NoError(t, err)
		assert.Equal(t, string(devCore), string(ciCore), "core differs on %s", platform)

		head, ok := dev.Toolchain()
		require.True(t, ok)
		assert.Equal(t, "rust", head.Name)
		assert.Equal(t, "1.75.0", head.Artifact.Version)
		assert.Equal(t, string(platform), head.Artifact.Platform)

		for _, item := range ci.Inputs() {
			assert.True(t, item.Pinned(), "%s is not pinned on %s", item.Name, platform)
		}
		assert.Equal(t, "cargo2junit", ci.Extras[0].Name)
		assert.Empty(t, dev.Extras)
		assert.Equal(t, "true", ci.Env["CI"])
	}
	assert.Equal(t, 4, total)

	darwin, _ := res.Profile("darwin-arm64", "dev")
	linux, _ := res.Profile("linux-x64", "dev")
	assert.GreaterOrEqual(t, darwin.Core.Index("libiconv"), 0)
	assert.Equal(t, -1, linux.Core.Index("libiconv"))

	openssl, ok := linux.Core.Get("openssl")
	require.True(t, ok)
	assert.Equal(t, "3.2.0", openssl.Artifact.Version)
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(testRegistry())
	decl := testDeclaration()

	first, err := engine.Resolve(context.Background(), decl, nil)
	require.NoError(t, err)
	second, err := engine.Resolve(context.Background(), decl, nil)
	require.NoError(t, err)

	a, err := json.Marshal(first.Profiles)
	require.NoError(t, err)
	b, err := json.Marshal(second.Profiles)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	resolver := NewResolver(testRegistry())
	r1, err := resolver.ResolveToolchain(context.Background(), decl.Toolchain, "linux-x64")
	require.NoError(t, err)
	r2, err := resolver.ResolveToolchain(context.Background(), decl.Toolchain, "linux-x64")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestEngine_ToolchainErrors(t *testing.T) {
	tests := []struct {
		name    string
		version string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unresolvable",
			version: "2.0",
			check: func(t *testing.T, err error) {
				var target *UnresolvableToolchainError
				assert.True(t, errors.As(err, &target))
			},
		},
		{
			name:    "ambiguous",
			version: ">=1.70",
			check: func(t *testing.T, err error) {
				var target *AmbiguousToolchainError
				require.True(t, errors.As(err, &target))
				assert.Len(t, target.Candidates, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := testDeclaration()
			decl.Toolchain.Version = tt.version

			res, err := NewEngine(testRegistry()).Resolve(context.Background(), decl, nil)
			var partial *PartialFailure
			require.True(t, errors.As(err, &partial))
			assert.Len(t, partial.Failed, 2)
			assert.Empty(t, res.Profiles)
			tt.check(t, err)
		})
	}
}

func TestEngine_AmbiguousDependencyNamesProfile(t *testing.T) {
	decl := testDeclaration()
	decl.Profiles = append(decl.Profiles, ProfileDecl{
		Name:   "debug",
		Extras: []DependencyItem{{Name: "tokio-console", Kind: KindTool, Version: "0.1"}},
	})

	_, err := NewEngine(testRegistry()).Compose(context.Background(), decl, "linux-x64")
	var amb *AmbiguousDependencyError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, "debug", amb.Profile)
	assert.Contains(t, err.Error(), "profile debug")
}

func TestEngine_RegistryFailureIsNotRetried(t *testing.T) {
	reg := &failingRegistry{name: "openssl", err: errRegistryDown, next: testRegistry()}

	_, err := NewEngine(reg).Compose(context.Background(), testDeclaration(), "linux-x64")

	var regErr *RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.ErrorIs(t, err, errRegistryDown)
	assert.Equal(t, 1, reg.calls["openssl"])
}

func TestEngine_PlatformIsolationEndToEnd(t *testing.T) {
	decl := testDeclaration()
	// Only darwin gets the unpublished dependency.
	decl.Dependencies = append(decl.Dependencies, DependencyItem{
		Name: "missing-lib", Kind: KindLibrary, Version: "*", Platforms: []Platform{"darwin-arm64"},
	})

	res, err := NewEngine(testRegistry()).Resolve(context.Background(), decl, nil)

	var partial *PartialFailure
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []Platform{"darwin-arm64"}, partial.FailedPlatforms())
	var unres *UnresolvableDependencyError
	assert.True(t, errors.As(partial.Failed["darwin-arm64"], &unres))

	assert.Equal(t, []Platform{"linux-x64"}, res.Platforms())
	assert.Len(t, res.Profiles["linux-x64"], 2)
}

func TestEngine_UnsupportedPlatform(t *testing.T) {
	_, err := NewEngine(testRegistry()).Compose(context.Background(), testDeclaration(), "windows-x64")
	var unsupported *UnsupportedPlatformError
	require.True(t, errors.As(err, &unsupported))
	assert.Contains(t, err.Error(), "linux-x64")
}

func TestEngine_ResolveProfile(t *testing.T) {
	engine := NewEngine(testRegistry())

	p, _, err := engine.ResolveProfile(context.Background(), testDeclaration(), "linux-x64", "ci")
	require.NoError(t, err)
	assert.Equal(t, "ci", p.Name)

	_, _, err = engine.ResolveProfile(context.Background(), testDeclaration(), "linux-x64", "nope")
	var notFound *ProfileNotFoundError
	assert.True(t, errors.As(err, &notFound))
}
