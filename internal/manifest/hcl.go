package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclFile mirrors Manifest in HCL block syntax:
//
//	name      = "celery"
//	platforms = ["linux-x64", "darwin-arm64"]
//
//	toolchain "rust" {
//	  version = "1.75"
//	}
//
//	dependency "openssl" {
//	  kind    = "library"
//	  version = "^3"
//	}
//
//	profile "ci" {
//	  extra "cargo2junit" {}
//	  env = { CI = "true" }
//	}
type hclFile struct {
	Name         string           `hcl:"name,optional"`
	Platforms    []string         `hcl:"platforms"`
	Toolchain    hclToolchain     `hcl:"toolchain,block"`
	Dependencies []*hclDependency `hcl:"dependency,block"`
	Profiles     []*hclProfile    `hcl:"profile,block"`
}

type hclToolchain struct {
	Name    string `hcl:"name,label"`
	Version string `hcl:"version"`
	Source  string `hcl:"source,optional"`
}

type hclDependency struct {
	Name      string   `hcl:"name,label"`
	Kind      string   `hcl:"kind,optional"`
	Version   string   `hcl:"version,optional"`
	Platforms []string `hcl:"platforms,optional"`
}

type hclProfile struct {
	Name        string            `hcl:"name,label"`
	Description string            `hcl:"description,optional"`
	Extras      []*hclDependency  `hcl:"extra,block"`
	Env         map[string]string `hcl:"env,optional"`
}

// ParseHCL decodes an HCL manifest without validating it.
func ParseHCL(data []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	var raw hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	m := &Manifest{
		Name:      raw.Name,
		Platforms: raw.Platforms,
		Toolchain: Toolchain{
			Name:    raw.Toolchain.Name,
			Version: raw.Toolchain.Version,
			Source:  raw.Toolchain.Source,
		},
		Dependencies: fromHCLDependencies(raw.Dependencies),
	}
	for _, p := range raw.Profiles {
		m.Profiles = append(m.Profiles, Profile{
			Name:        p.Name,
			Description: p.Description,
			Extras:      fromHCLDependencies(p.Extras),
			Env:         p.Env,
		})
	}
	return m, nil
}

func fromHCLDependencies(deps []*hclDependency) []Dependency {
	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		out = append(out, Dependency{
			Name:      d.Name,
			Kind:      d.Kind,
			Version:   d.Version,
			Platforms: d.Platforms,
		})
	}
	return out
}
