// Package manifest loads the declarative environment description.
//
// A manifest is written once and evaluated per platform. Both YAML
// (envpin.yaml) and HCL (envpin.hcl) are accepted and decode into the same
// Manifest value:
//
//	name: celery
//	toolchain:
//	  name: rust
//	  version: "1.75"
//	  source: https://static.rust-lang.org
//	platforms: [linux-x64, darwin-arm64]
//	dependencies:
//	  - name: openssl
//	    kind: library
//	    version: "^3"
//	  - name: libiconv
//	    kind: library
//	    platforms: [darwin-arm64]
//	profiles:
//	  - name: dev
//	  - name: ci
//	    extras:
//	      - name: cargo2junit
//	        kind: tool
//	    env:
//	      CI: "true"
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"envpin/internal/resolve"
)

// DefaultFileNames are probed, in order, by Discover.
var DefaultFileNames = []string{"envpin.yaml", "envpin.yml", "envpin.hcl"}

// defaultKind applies to dependencies that do not name a kind.
const defaultKind = resolve.KindTool

// Manifest is the decoded declaration.
type Manifest struct {
	Name         string       `yaml:"name"`
	Toolchain    Toolchain    `yaml:"toolchain"`
	Platforms    []string     `yaml:"platforms"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
	Profiles     []Profile    `yaml:"profiles"`

	// Path is the file the manifest was loaded from.
	Path string `yaml:"-"`
}

// Toolchain declares the compiler bundle.
type Toolchain struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  string `yaml:"source,omitempty"`
}

// Dependency declares a library or tool.
type Dependency struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind,omitempty"`
	Version   string   `yaml:"version,omitempty"`
	Platforms []string `yaml:"platforms,omitempty"`
}

// Profile declares a named environment on top of the shared dependencies.
type Profile struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Extras      []Dependency      `yaml:"extras,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
}

// Load reads a manifest, choosing the decoder from the file extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m *Manifest
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		m, err = ParseHCL(data, path)
	} else {
		m, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	m.Path = path

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return m, nil
}

// Discover finds the first default manifest file in dir.
func Discover(dir string) (string, error) {
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no manifest found in %s (looked for %s)", dir, strings.Join(DefaultFileNames, ", "))
}

// ParseYAML decodes a YAML manifest without validating it.
func ParseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural requirements. Profile name collisions are
// deliberately not checked here: they are reported per platform during composition.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Toolchain.Name == "" {
		errs = append(errs, errors.New("toolchain.name is required"))
	}
	if m.Toolchain.Version == "" {
		errs = append(errs, errors.New("toolchain.version is required"))
	}
	if len(m.Platforms) == 0 {
		errs = append(errs, errors.New("at least one platform must be declared"))
	}
	for i, p := range m.Platforms {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("platforms[%d] is empty", i))
		}
	}
	errs = append(errs, validateDependencies("dependencies", m.Dependencies)...)
	if len(m.Profiles) == 0 {
		errs = append(errs, errors.New("at least one profile must be declared"))
	}
	for i, p := range m.Profiles {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("profiles[%d].name is required", i))
		}
		errs = append(errs, validateDependencies(fmt.Sprintf("profiles[%d].extras", i), p.Extras)...)
	}
	return errors.Join(errs...)
}

func validateDependencies(field string, deps []Dependency) []error {
	var errs []error
	for i, d := range deps {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("%s[%d].name is required", field, i))
		}
		if d.Kind != "" && !resolve.Kind(d.Kind).Valid() {
			errs = append(errs, fmt.Errorf("%s[%d]: unknown kind %q", field, i, d.Kind))
		}
		if resolve.Kind(d.Kind) == resolve.KindToolchain {
			errs = append(errs, fmt.Errorf("%s[%d]: kind toolchain is reserved for the toolchain block", field, i))
		}
	}
	return errs
}

// Declaration converts the manifest into the engine's input.
func (m *Manifest) Declaration() resolve.Declaration {
	decl := resolve.Declaration{
		Name: m.Name,
		Toolchain: resolve.ToolchainSpec{
			Name:    m.Toolchain.Name,
			Version: m.Toolchain.Version,
			Source:  m.Toolchain.Source,
		},
		Platforms:    make([]resolve.Platform, 0, len(m.Platforms)),
		Dependencies: convertDependencies(m.Dependencies),
		Profiles:     make([]resolve.ProfileDecl, 0, len(m.Profiles)),
	}
	for _, p := range m.Platforms {
		decl.Platforms = append(decl.Platforms, resolve.Platform(p))
	}
	for _, p := range m.Profiles {
		decl.Profiles = append(decl.Profiles, resolve.ProfileDecl{
			Name:        p.Name,
			Description: p.Description,
			Extras:      convertDependencies(p.Extras),
			Env:         p.Env,
		})
	}
	return decl
}

func convertDependencies(deps []Dependency) []resolve.DependencyItem {
	out := make([]resolve.DependencyItem, 0, len(deps))
	for _, d := range deps {
		kind := resolve.Kind(d.Kind)
		if kind == "" {
			kind = defaultKind
		}
		item := resolve.DependencyItem{Name: d.Name, Kind: kind, Version: d.Version}
		for _, p := range d.Platforms {
			item.Platforms = append(item.Platforms, resolve.Platform(p))
		}
		out = append(out, item)
	}
	return out
}
