package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envpin/internal/resolve"
)

const yamlManifest = `name: celery
toolchain:
  name: rust
  version: "1.75"
  source: https://static.rust-lang.org
platforms: [linux-x64, darwin-arm64]
dependencies:
  - name: openssl
    kind: library
    version: "^3"
  - name: pkg-config
  - name: libiconv
    kind: library
    platforms: [darwin-arm64]
profiles:
  - name: dev
  - name: ci
    extras:
      - name: cargo2junit
        kind: tool
        version: "0.1"
    env:
      CI: "true"
`

const hclManifest = `name      = "celery"
platforms = ["linux-x64", "darwin-arm64"]

toolchain "rust" {
  version = "1.75"
  source  = "https://static.rust-lang.org"
}

dependency "openssl" {
  kind    = "library"
  version = "^3"
}

dependency "pkg-config" {}

dependency "libiconv" {
  kind      = "library"
  platforms = ["darwin-arm64"]
}

profile "dev" {}

profile "ci" {
  extra "cargo2junit" {
    kind    = "tool"
    version = "0.1"
  }
  env = {
    CI = "true"
  }
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "envpin.yaml", yamlManifest)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Equal(t, "celery", m.Name)
	assert.Equal(t, "rust", m.Toolchain.Name)
	assert.Equal(t, []string{"linux-x64", "darwin-arm64"}, m.Platforms)
	require.Len(t, m.Profiles, 2)
	assert.Equal(t, "true", m.Profiles[1].Env["CI"])

	decl := m.Declaration()
	assert.Equal(t, resolve.ToolchainSpec{Name: "rust", Version: "1.75", Source: "https://static.rust-lang.org"}, decl.Toolchain)
	assert.Equal(t, resolve.KindTool, decl.Dependencies[1].Kind, "kind defaults to tool")
	assert.Equal(t, []resolve.Platform{"darwin-arm64"}, decl.Dependencies[2].Platforms)
	assert.True(t, decl.Declares("linux-x64"))
	assert.False(t, decl.Declares("windows-x64"))
}

func TestLoad_HCLMatchesYAML(t *testing.T) {
	dir := t.TempDir()
	fromYAML, err := Load(writeFile(t, dir, "envpin.yaml", yamlManifest))
	require.NoError(t, err)
	fromHCL, err := Load(writeFile(t, dir, "envpin.hcl", hclManifest))
	require.NoError(t, err)

	if diff := cmp.Diff(fromYAML.Declaration(), fromHCL.Declaration()); diff != "" {
		t.Errorf("HCL and YAML declarations differ (-yaml +hcl):\n%s", diff)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "missing toolchain and platforms",
			content: "profiles:\n  - name: dev\n",
			want:    []string{"toolchain.name is required", "toolchain.version is required", "at least one platform"},
		},
		{
			name:    "bad kind",
			content: "toolchain: {name: rust, version: '1.75'}\nplatforms: [linux-x64]\ndependencies:\n  - name: x\n    kind: plugin\nprofiles:\n  - name: dev\n",
			want:    []string{`unknown kind "plugin"`},
		},
		{
			name:    "toolchain kind in dependencies",
			content: "toolchain: {name: rust, version: '1.75'}\nplatforms: [linux-x64]\ndependencies:\n  - name: go\n    kind: toolchain\nprofiles:\n  - name: dev\n",
			want:    []string{"reserved for the toolchain block"},
		},
		{
			name:    "no profiles",
			content: "toolchain: {name: rust, version: '1.75'}\nplatforms: [linux-x64]\n",
			want:    []string{"at least one profile"},
		},
		{
			name:    "unnamed extra",
			content: "toolchain: {name: rust, version: '1.75'}\nplatforms: [linux-x64]\nprofiles:\n  - name: ci\n    extras:\n      - kind: tool\n",
			want:    []string{"profiles[0].extras[0].name is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "envpin.yaml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			for _, want := range tt.want {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoad_DuplicateProfileNamesAreAllowed(t *testing.T) {
	content := "toolchain: {name: rust, version: '1.75'}\nplatforms: [linux-x64]\nprofiles:\n  - name: ci\n  - name: ci\n"
	_, err := Load(writeFile(t, t.TempDir(), "envpin.yaml", content))
	assert.NoError(t, err, "collisions are reported per platform by the composer")
}

func TestLoad_MalformedHCL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "envpin.hcl", "platforms = [\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir)
	assert.Error(t, err)

	writeFile(t, dir, "envpin.hcl", hclManifest)
	path, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "envpin.hcl"), path)

	writeFile(t, dir, "envpin.yaml", yamlManifest)
	path, err = Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "envpin.yaml"), path, "yaml takes precedence")
}
