package resolve

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envpin/internal/registry"
)

func testCore() DependencySet {
	return DependencySet{
		rustRef().Item(),
		{Name: "openssl", Kind: KindLibrary, Version: "^3", Artifact: &registry.Artifact{Name: "openssl", Version: "3.2.0"}},
	}
}

func TestComposeProfiles_SharedCoreIsIdentical(t *testing.T) {
	decls := []ProfileDecl{
		{Name: "dev"},
		{Name: "ci", Extras: []DependencyItem{{Name: "cargo2junit", Kind: KindTool, Version: "0.1"}}},
		{Name: "bench", Extras: []DependencyItem{{Name: "hyperfine", Kind: KindTool, Version: "*"}}},
	}

	profiles, diags, err := ComposeProfiles("linux-x64", testCore(), decls, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, profiles, 3)

	want, err := json.Marshal(profiles["dev"].Core)
	require.NoError(t, err)
	for _, name := range profiles.Names() {
		got, err := json.Marshal(profiles[name].Core)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), "core of %s differs", name)
	}

	assert.Empty(t, profiles["dev"].Extras)
	require.Len(t, profiles["ci"].Extras, 1)
	assert.Equal(t, "cargo2junit", profiles["ci"].Extras[0].Name)
}

func TestComposeProfiles_CoreCopiesAreIndependent(t *testing.T) {
	profiles, _, err := ComposeProfiles("linux-x64", testCore(), []ProfileDecl{{Name: "dev"}, {Name: "ci"}}, nil)
	require.NoError(t, err)

	profiles["dev"].Core[1].Artifact.Version = "tampered"
	assert.Equal(t, "3.2.0", profiles["ci"].Core[1].Artifact.Version)
}

func TestComposeProfiles_NameCollision(t *testing.T) {
	_, _, err := ComposeProfiles("darwin-arm64", testCore(), []ProfileDecl{{Name: "ci"}, {Name: "dev"}, {Name: "ci"}}, nil)

	var collision *ProfileNameCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "ci", collision.Name)
	assert.Equal(t, Platform("darwin-arm64"), collision.Platform)
}

func TestComposeProfiles_ExtraOverridesCoreInInputs(t *testing.T) {
	decls := []ProfileDecl{
		{Name: "dev"},
		{Name: "legacy", Extras: []DependencyItem{{Name: "openssl", Kind: KindLibrary, Version: "1.1"}}},
	}

	profiles, diags, err := ComposeProfiles("linux-x64", testCore(), decls, nil)
	require.NoError(t, err)

	// The core itself is untouched.
	if diff := cmp.Diff(profiles["dev"].Core, profiles["legacy"].Core); diff != "" {
		t.Errorf("core differs between profiles (-dev +legacy):\n%s", diff)
	}

	inputs := profiles["legacy"].Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "1.1", inputs[1].Version)

	require.Len(t, diags, 1)
	assert.Equal(t, "legacy", diags[0].Profile)
	assert.Equal(t, DuplicateDependencyOverridden, diags[0].Kind)
}

func TestComposeProfiles_PinsExtras(t *testing.T) {
	pin := func(profile string, item DependencyItem) (DependencyItem, error) {
		item.Artifact = &registry.Artifact{Name: item.Name, Version: "pinned-for-" + profile}
		return item, nil
	}
	profiles, _, err := ComposeProfiles("linux-x64", testCore(),
		[]ProfileDecl{{Name: "ci", Extras: []DependencyItem{{Name: "cargo2junit", Kind: KindTool}}}}, pin)
	require.NoError(t, err)
	assert.Equal(t, "pinned-for-ci", profiles["ci"].Extras[0].Artifact.Version)
}

func TestComposeProfiles_PinFailure(t *testing.T) {
	boom := errors.New("boom")
	pin := func(string, DependencyItem) (DependencyItem, error) { return DependencyItem{}, boom }
	_, _, err := ComposeProfiles("linux-x64", testCore(),
		[]ProfileDecl{{Name: "ci", Extras: []DependencyItem{{Name: "x", Kind: KindTool}}}}, pin)
	assert.ErrorIs(t, err, boom)
}

func TestComposeProfiles_EnvIsCopied(t *testing.T) {
	env := map[string]string{"CI": "true"}
	profiles, _, err := ComposeProfiles("linux-x64", testCore(), []ProfileDecl{{Name: "ci", Env: env}}, nil)
	require.NoError(t, err)
	env["CI"] = "false"
	assert.Equal(t, "true", profiles["ci"].Env["CI"])
}
