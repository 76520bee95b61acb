package testrun

import (
	"fmt"
	"time"
)

// Outcome is the result of a single test.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePass, OutcomeFail, OutcomeSkip:
		return true
	}
	return false
}

// Format selects the stream decoder.
type Format string

const (
	FormatNative Format = "native"
	FormatGoTest Format = "go-test-json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatNative, FormatGoTest:
		return Format(s), nil
	case "":
		return FormatNative, nil
	}
	return "", fmt.Errorf("unknown stream format %q (want %s or %s)", s, FormatNative, FormatGoTest)
}

// TestEvent is one completed test, in stream order.
type TestEvent struct {
	Ordinal   int           `json:"ordinal"`
	Test      string        `json:"test"`
	Package   string        `json:"package,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message,omitempty"`
}

// RecordHeader describes the run a record belongs to.
type RecordHeader struct {
	RunID     string    `json:"run_id"`
	Suite     string    `json:"suite"`
	Profile   string    `json:"profile,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Command   []string  `json:"command,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Record is the ordered intermediate record of a test run.
type Record struct {
	RecordHeader
	Events          []TestEvent `json:"events"`
	Truncated       bool        `json:"truncated"`
	TruncatedReason string      `json:"truncated_reason,omitempty"`
	FinishedAt      time.Time   `json:"finished_at"`
	ExitCode        int         `json:"exit_code"`
}

// Counts tallies outcomes.
type Counts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Counts tallies the record's events.
func (r *Record) Counts() Counts {
	var c Counts
	for _, ev := range r.Events {
		c.Total++
		switch ev.Outcome {
		case OutcomePass:
			c.Passed++
		case OutcomeFail:
			c.Failed++
		case OutcomeSkip:
			c.Skipped++
		}
	}
	return c
}

// Duration is the wall-clock span of the run.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Record) truncate(reason string) {
	if r.Truncated {
		return
	}
	r.Truncated = true
	r.TruncatedReason = reason
}

// Invocation describes how to start the external test process.
type Invocation struct {
	Command []string
	Dir     string
	Format  Format
	Suite   string
}
