package testrun

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"envpin/internal/color"
)

// Reporter receives progress as a run streams.
type Reporter interface {
	ReportStart(header RecordHeader)
	ReportEvent(ev TestEvent)
	ReportEnd(rec *Record)
}

// consoleReporter prints one line per test (verbose) or a dot per test.
type consoleReporter struct {
	out     io.Writer
	verbose bool
	column  int
}

// NewConsoleReporter creates a human-oriented reporter writing to out.
func NewConsoleReporter(out io.Writer, verbose bool) Reporter {
	return &consoleReporter{out: out, verbose: verbose}
}

func (r *consoleReporter) ReportStart(h RecordHeader) {
	fmt.Fprintf(r.out, "%s %s\n", color.HeaderStyle.Render("Running"), strings.Join(h.Command, " "))
	if r.verbose {
		fmt.Fprintf(r.out, "   • Suite: %s\n", h.Suite)
		fmt.Fprintf(r.out, "   • Profile: %s (%s)\n", h.Profile, h.Platform)
		fmt.Fprintf(r.out, "   • Run ID: %s\n", h.RunID)
		fmt.Fprintln(r.out)
	}
}

func (r *consoleReporter) ReportEvent(ev TestEvent) {
	if r.verbose {
		fmt.Fprintf(r.out, "%s %s %s\n", outcomeSymbol(ev.Outcome), ev.Test,
			color.MutedStyle.Render(fmt.Sprintf("(%v)", ev.Duration.Round(time.Millisecond))))
		if ev.Outcome == OutcomeFail && ev.Message != "" {
			for _, line := range strings.Split(strings.TrimRight(ev.Message, "\n"), "\n") {
				fmt.Fprintf(r.out, "     %s\n", line)
			}
		}
		return
	}
	fmt.Fprint(r.out, outcomeSymbol(ev.Outcome))
	r.column++
	if r.column%60 == 0 {
		fmt.Fprintln(r.out)
	}
}

func (r *consoleReporter) ReportEnd(rec *Record) {
	if !r.verbose && r.column%60 != 0 {
		fmt.Fprintln(r.out)
	}
	WriteSummary(r.out, rec)
}

// WriteSummary prints the per-run totals.
func WriteSummary(out io.Writer, rec *Record) {
	c := rec.Counts()
	fmt.Fprintf(out, "\n%s\n", color.HeaderStyle.Render("Test run complete"))
	fmt.Fprintf(out, "Duration: %v\n", rec.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "   %s %d\n", color.SuccessStyle.Render("Passed:"), c.Passed)
	if c.Failed > 0 {
		fmt.Fprintf(out, "   %s %d\n", color.FailureStyle.Render("Failed:"), c.Failed)
	}
	if c.Skipped > 0 {
		fmt.Fprintf(out, "   %s %d\n", color.WarningStyle.Render("Skipped:"), c.Skipped)
	}
	fmt.Fprintf(out, "   Total: %d\n", c.Total)

	if rec.Truncated {
		fmt.Fprintf(out, "\n%s %s\n", color.WarningStyle.Render("Record truncated:"), rec.TruncatedReason)
	}
	switch {
	case c.Failed > 0:
		fmt.Fprintf(out, "\n%s\n", color.FailureStyle.Render("Some tests failed"))
	case rec.Truncated:
	default:
		fmt.Fprintf(out, "\n%s\n", color.SuccessStyle.Render("All tests passed"))
	}
}

func outcomeSymbol(o Outcome) string {
	switch o {
	case OutcomePass:
		return color.SuccessStyle.Render("✓")
	case OutcomeFail:
		return color.FailureStyle.Render("✗")
	case OutcomeSkip:
		return color.WarningStyle.Render("-")
	default:
		return "?"
	}
}

// NewQuietReporter creates a reporter that only prints failures and a one-line result.
func NewQuietReporter(out io.Writer) Reporter {
	return &quietReporter{out: out}
}

type quietReporter struct {
	out io.Writer
}

func (r *quietReporter) ReportStart(RecordHeader) {}

func (r *quietReporter) ReportEvent(ev TestEvent) {
	if ev.Outcome == OutcomeFail {
		fmt.Fprintf(r.out, "FAIL %s\n", ev.Test)
	}
}

func (r *quietReporter) ReportEnd(rec *Record) {
	c := rec.Counts()
	suffix := ""
	if rec.Truncated {
		suffix = " (truncated)"
	}
	if c.Failed == 0 {
		fmt.Fprintf(r.out, "ok %d tests%s\n", c.Total, suffix)
	} else {
		fmt.Fprintf(r.out, "%d/%d tests failed%s\n", c.Failed, c.Total, suffix)
	}
}

// NewJSONReporter creates a reporter that prints the finished record as JSON.
func NewJSONReporter(out io.Writer) Reporter {
	return &jsonReporter{out: out}
}

type jsonReporter struct {
	out io.Writer
}

func (r *jsonReporter) ReportStart(RecordHeader) {}

func (r *jsonReporter) ReportEvent(TestEvent) {}

func (r *jsonReporter) ReportEnd(rec *Record) {
	summary := struct {
		*Record
		Counts Counts `json:"counts"`
	}{Record: rec, Counts: rec.Counts()}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, `{"error": "failed to marshal record: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(r.out, string(data))
}

// NewReporter picks a reporter by name: "console", "verbose", "quiet" or "json".
func NewReporter(name string, out io.Writer) (Reporter, error) {
	switch name {
	case "", "console":
		return NewConsoleReporter(out, false), nil
	case "verbose":
		return NewConsoleReporter(out, true), nil
	case "quiet":
		return NewQuietReporter(out), nil
	case "json":
		return NewJSONReporter(out), nil
	}
	return nil, fmt.Errorf("unknown output mode %q", name)
}
