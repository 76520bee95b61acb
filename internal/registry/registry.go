// Package registry is the lookup side of the external toolchain repository.
//
// envpin never builds or fetches artifacts. It only asks a Registry which
// artifact satisfies (name, version constraint, platform) and records the
// answer. A lookup has exactly three outcomes: one artifact, ErrNotFound, or an
// *AmbiguousError listing every matching candidate.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no artifact satisfies a lookup.
var ErrNotFound = errors.New("no matching artifact")

// Artifact is a concrete, addressable build input.
type Artifact struct {
	Name     string `yaml:"name" json:"name"`
	Version  string `yaml:"version" json:"version"`
	Platform string `yaml:"platform" json:"platform"`
	// Ref is an opaque reference understood by whatever materializes the
	// environment. For local stores it is the artifact's install prefix.
	Ref string `yaml:"ref" json:"ref"`
}

// String renders the artifact as name@version (platform).
func (a Artifact) String() string {
	return fmt.Sprintf("%s@%s (%s)", a.Name, a.Version, a.Platform)
}

// AmbiguousError is returned when more than one artifact matches.
type AmbiguousError struct {
	Name       string
	Constraint string
	Platform   string
	Candidates []Artifact
}

func (e *AmbiguousError) Error() string {
	versions := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		versions = append(versions, c.Version)
	}
	return fmt.Sprintf("%s %q on %s matches %d artifacts (%s)",
		e.Name, e.Constraint, e.Platform, len(e.Candidates), strings.Join(versions, ", "))
}

// Registry resolves a name and version constraint to an artifact for a platform.
// Implementations may block on I/O and must not retry on their caller's behalf.
type Registry interface {
	Lookup(ctx context.Context, name, constraint, platform string) (Artifact, error)
}
