// Package lockfile persists a Resolution so that repeated runs can be
// compared byte for byte.
package lockfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"envpin/internal/resolve"
)

// Version is the lockfile schema version.
const Version = 1

// Lockfile is the serialized form of a resolution. Platforms and profiles are
// emitted in sorted order; items keep their set order.
type Lockfile struct {
	Version   int             `yaml:"version"`
	Manifest  string          `yaml:"manifest,omitempty"`
	Toolchain string          `yaml:"toolchain"`
	Platforms []PlatformEntry `yaml:"platforms"`
}

// PlatformEntry lists every profile of one platform.
type PlatformEntry struct {
	Platform string         `yaml:"platform"`
	Profiles []ProfileEntry `yaml:"profiles"`
}

// ProfileEntry lists the pinned inputs of one profile.
type ProfileEntry struct {
	Name   string      `yaml:"name"`
	Core   []ItemEntry `yaml:"core"`
	Extras []ItemEntry `yaml:"extras,omitempty"`
}

// ItemEntry is one pinned input.
type ItemEntry struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Constraint string `yaml:"constraint,omitempty"`
	Version    string `yaml:"version"`
	Ref        string `yaml:"ref"`
}

// FromResolution builds a lockfile from res.
func FromResolution(decl resolve.Declaration, manifestPath string, res resolve.Resolution) Lockfile {
	lock := Lockfile{
		Version:   Version,
		Manifest:  manifestPath,
		Toolchain: decl.Toolchain.String(),
	}
	for _, platform := range res.Platforms() {
		set := res.Profiles[platform]
		entry := PlatformEntry{Platform: string(platform)}
		for _, name := range set.Names() {
			p := set[name]
			entry.Profiles = append(entry.Profiles, ProfileEntry{
				Name:   name,
				Core:   items(p.Core),
				Extras: items(p.Extras),
			})
		}
		lock.Platforms = append(lock.Platforms, entry)
	}
	return lock
}

func items(set resolve.DependencySet) []ItemEntry {
	var out []ItemEntry
	for _, item := range set {
		e := ItemEntry{Name: item.Name, Kind: string(item.Kind), Constraint: item.Version}
		if item.Artifact != nil {
			e.Version = item.Artifact.Version
			e.Ref = item.Artifact.Ref
		}
		out = append(out, e)
	}
	return out
}

// Marshal encodes the lockfile as YAML.
func (l Lockfile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("failed to encode lockfile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode lockfile: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the lockfile at path.
func (l Lockfile) Write(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write lockfile %s: %w", path, err)
	}
	return nil
}

// Read loads a lockfile from path.
func Read(path string) (Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lockfile{}, fmt.Errorf("failed to read lockfile %s: %w", path, err)
	}
	var l Lockfile
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Lockfile{}, fmt.Errorf("failed to parse lockfile %s: %w", path, err)
	}
	if l.Version != Version {
		return Lockfile{}, fmt.Errorf("lockfile %s has version %d, expected %d", path, l.Version, Version)
	}
	return l, nil
}

// Equal reports whether two lockfiles serialize identically.
func Equal(a, b Lockfile) (bool, error) {
	da, err := a.Marshal()
	if err != nil {
		return false, err
	}
	db, err := b.Marshal()
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}
