// Package report converts a test run record into a JUnit XML report.
//
// Conversion is pure: the same record always yields the same report, one
// entry per event in record order. A truncated record converts into a
// report flagged as truncated; truncation is never a conversion error.
package report

import (
	"fmt"
	"time"

	"envpin/internal/testrun"
)

// Entry is one test case in the report.
type Entry struct {
	Ordinal   int
	Name      string
	ClassName string
	Outcome   testrun.Outcome
	Duration  time.Duration
	Timestamp time.Time
	Message   string
}

// Totals tallies the report entries.
type Totals struct {
	Tests    int
	Failures int
	Skipped  int
	Time     time.Duration
}

// Report is the converted form of a record.
type Report struct {
	Name      string
	RunID     string
	Profile   string
	Platform  string
	Timestamp time.Time
	Truncated bool
	Reason    string
	Entries   []Entry
	Totals    Totals
}

// MalformedRecordError reports a record that violates its own invariants.
type MalformedRecordError struct {
	Test    string
	Ordinal int
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at test %q (ordinal %d): %s", e.Test, e.Ordinal, e.Reason)
}

// Convert maps rec onto a report.
func Convert(rec *testrun.Record) (*Report, error) {
	if rec == nil {
		return nil, fmt.Errorf("no record to convert")
	}

	r := &Report{
		Name:      rec.Suite,
		RunID:     rec.RunID,
		Profile:   rec.Profile,
		Platform:  rec.Platform,
		Timestamp: rec.StartedAt,
		Truncated: rec.Truncated,
		Reason:    rec.TruncatedReason,
		Entries:   make([]Entry, 0, len(rec.Events)),
	}
	if r.Name == "" {
		r.Name = "envpin"
	}

	seen := make(map[int]string, len(rec.Events))
	for _, ev := range rec.Events {
		if prev, dup := seen[ev.Ordinal]; dup {
			return nil, &MalformedRecordError{
				Test:    ev.Test,
				Ordinal: ev.Ordinal,
				Reason:  fmt.Sprintf("ordinal already used by %q", prev),
			}
		}
		seen[ev.Ordinal] = ev.Test
		if ev.Duration < 0 {
			return nil, &MalformedRecordError{Test: ev.Test, Ordinal: ev.Ordinal, Reason: fmt.Sprintf("negative duration %v", ev.Duration)}
		}
		if !ev.Outcome.Valid() {
			return nil, &MalformedRecordError{Test: ev.Test, Ordinal: ev.Ordinal, Reason: fmt.Sprintf("unknown outcome %q", ev.Outcome)}
		}

		className := ev.Package
		if className == "" {
			className = r.Name
		}
		r.Entries = append(r.Entries, Entry{
			Ordinal:   ev.Ordinal,
			Name:      ev.Test,
			ClassName: className,
			Outcome:   ev.Outcome,
			Duration:  ev.Duration,
			Timestamp: ev.Timestamp,
			Message:   ev.Message,
		})

		r.Totals.Tests++
		r.Totals.Time += ev.Duration
		switch ev.Outcome {
		case testrun.OutcomeFail:
			r.Totals.Failures++
		case testrun.OutcomeSkip:
			r.Totals.Skipped++
		}
	}
	return r, nil
}
