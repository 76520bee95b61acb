package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// IndexEntry is one artifact line in an index file. Ref may contain the
// placeholders {name}, {version} and {platform}.
type IndexEntry struct {
	Name      string   `yaml:"name"`
	Version   string   `yaml:"version"`
	Platforms []string `yaml:"platforms"`
	Ref       string   `yaml:"ref"`
}

type indexFile struct {
	Artifacts []IndexEntry `yaml:"artifacts"`
}

// IndexRegistry answers lookups from a static, in-memory artifact index.
// It is safe for concurrent use since it is never mutated after construction.
type IndexRegistry struct {
	entries []IndexEntry
}

// NewIndexRegistry creates a registry over the given entries.
func NewIndexRegistry(entries []IndexEntry) *IndexRegistry {
	cp := make([]IndexEntry, len(entries))
	copy(cp, entries)
	return &IndexRegistry{entries: cp}
}

// LoadIndex reads a YAML index file of the form
//
//	artifacts:
//	  - name: rust
//	    version: 1.75.0
//	    platforms: [linux-x64, darwin-arm64]
//	    ref: /opt/store/{name}-{version}-{platform}
func LoadIndex(path string) (*IndexRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry index %s: %w", path, err)
	}
	var f indexFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse registry index %s: %w", path, err)
	}
	for i, e := range f.Artifacts {
		if e.Name == "" || e.Version == "" {
			return nil, fmt.Errorf("registry index %s: entry %d needs both name and version", path, i)
		}
	}
	return NewIndexRegistry(f.Artifacts), nil
}

// Lookup implements Registry.
func (r *IndexRegistry) Lookup(ctx context.Context, name, constraint, platform string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	match := newMatcher(constraint)

	var candidates []Artifact
	for _, e := range r.entries {
		if e.Name != name || !containsPlatform(e.Platforms, platform) {
			continue
		}
		if !match(e.Version) {
			continue
		}
		candidates = append(candidates, Artifact{
			Name:     e.Name,
			Version:  e.Version,
			Platform: platform,
			Ref:      expandRef(e, platform),
		})
	}

	switch len(candidates) {
	case 0:
		return Artifact{}, fmt.Errorf("%s %q on %s: %w", name, constraint, platform, ErrNotFound)
	case 1:
		return candidates[0], nil
	default:
		sort.Slice(candidates, func(i, j int) bool {
			if c := compareVersions(candidates[i].Version, candidates[j].Version); c != 0 {
				return c < 0
			}
			return candidates[i].Ref < candidates[j].Ref
		})
		return Artifact{}, &AmbiguousError{
			Name:       name,
			Constraint: constraint,
			Platform:   platform,
			Candidates: candidates,
		}
	}
}

// compareVersions orders by semver when both versions parse, and by string
// otherwise.
func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// newMatcher returns a version predicate. Empty and "*" match anything;
// constraints that are not semver fall back to exact string comparison so
// pins like "nightly-2024-02-01" still work.
func newMatcher(constraint string) func(string) bool {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || constraint == "*" {
		return func(string) bool { return true }
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return func(v string) bool { return v == constraint }
	}
	return func(v string) bool {
		sv, err := semver.NewVersion(v)
		if err != nil {
			return v == constraint
		}
		return c.Check(sv)
	}
}

func containsPlatform(platforms []string, platform string) bool {
	for _, p := range platforms {
		if p == platform || p == "*" {
			return true
		}
	}
	return false
}

func expandRef(e IndexEntry, platform string) string {
	ref := e.Ref
	if ref == "" {
		return fmt.Sprintf("%s-%s-%s", e.Name, e.Version, platform)
	}
	ref = strings.ReplaceAll(ref, "{name}", e.Name)
	ref = strings.ReplaceAll(ref, "{version}", e.Version)
	ref = strings.ReplaceAll(ref, "{platform}", platform)
	return ref
}
