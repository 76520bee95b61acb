package resolve

import "fmt"

// DiagnosticKind names a non-fatal condition observed during resolution.
type DiagnosticKind string

const (
	DuplicateDependencyOverridden DiagnosticKind = "DuplicateDependencyOverridden"
)

// Diagnostic is a non-fatal finding. It never aborts resolution.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Platform Platform       `json:"platform"`
	Profile  string         `json:"profile,omitempty"`
	Item     string         `json:"item"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	where := string(d.Platform)
	if d.Profile != "" {
		where += "/" + d.Profile
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Kind, where, d.Item, d.Message)
}
