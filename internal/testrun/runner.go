package testrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"envpin/internal/environment"
	"envpin/internal/resolve"
	"envpin/pkg/logging"
)

const (
	maxLineSize    = 4 * 1024 * 1024
	maxMessageSize = 64 * 1024
)

// Runner executes a test command under a profile and records its outcomes.
type Runner struct {
	launcher Launcher
	sink     Sink
	reporter Reporter
	baseEnv  []string
	now      func() time.Time
	newID    func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink streams every record line to s as it is observed.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithReporter attaches progress reporting.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// WithBaseEnv sets the environment the profile is layered on. Defaults to os.Environ().
func WithBaseEnv(env []string) Option {
	return func(r *Runner) { r.baseEnv = env }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.newID = func() string { return id } }
}

// NewRunner creates a runner using launcher to start the collaborator.
func NewRunner(launcher Launcher, opts ...Option) *Runner {
	r := &Runner{
		launcher: launcher,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.baseEnv == nil {
		r.baseEnv = os.Environ()
	}
	if r.reporter == nil {
		r.reporter = NewQuietReporter(io.Discard)
	}
	return r
}

type scannedLine struct {
	data []byte
	err  error
}

type testKey struct {
	pkg, test string
}

// Run starts inv under profile and consumes its event stream until the
// end-of-stream signal, EOF, a malformed line, or cancellation of ctx.
//
// The returned record is never nil once the process started. A non-nil error
// alongside a record means persisting the record failed; the in-memory
// record is still complete.
func (r *Runner) Run(ctx context.Context, profile resolve.Profile, inv Invocation) (*Record, error) {
	dec, err := newDecoder(inv.Format)
	if err != nil {
		return nil, err
	}

	rec := &Record{RecordHeader: RecordHeader{
		RunID:     r.newID(),
		Suite:     inv.Suite,
		Profile:   profile.Name,
		Platform:  string(profile.Platform),
		Command:   append([]string(nil), inv.Command...),
		StartedAt: r.now(),
	}}
	if rec.Suite == "" {
		rec.Suite = profile.Name
	}

	env := environment.Materialize(profile, r.baseEnv).Environ()
	proc, err := r.launcher.Launch(ctx, inv, env)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s under profile %s: %w", strings.Join(inv.Command, " "), profile.Name, err)
	}

	var sinkErrs []error
	if r.sink != nil {
		if err := r.sink.Begin(rec.RecordHeader); err != nil {
			sinkErrs = append(sinkErrs, err)
		}
	}
	r.reporter.ReportStart(rec.RecordHeader)
	logging.Info("TestRunner", "started %s (run %s, profile %s)", strings.Join(inv.Command, " "), rec.RunID, profile.Name)

	lines := make(chan scannedLine)
	stop := make(chan struct{})
	go scanLines(proc.Stdout(), lines, stop)

	starts := make(map[testKey]time.Time)
	outputs := make(map[testKey]*strings.Builder)
	lineNo := 0
	killed := false

	kill := func(reason string) {
		rec.truncate(reason)
		if err := proc.Kill(); err != nil {
			logging.Debug("TestRunner", "kill after %q: %v", reason, err)
		}
		killed = true
	}

consume:
	for {
		select {
		case <-ctx.Done():
			kill(fmt.Sprintf("cancelled: %v", ctx.Err()))
			break consume
		case line, ok := <-lines:
			if !ok {
				break consume
			}
			if line.err != nil {
				kill(fmt.Sprintf("reading event stream: %v", line.err))
				break consume
			}
			lineNo++
			if len(strings.TrimSpace(string(line.data))) == 0 {
				continue
			}
			observations, err := dec.decode(line.data)
			if err != nil {
				kill(fmt.Sprintf("line %d: %v", lineNo, err))
				break consume
			}
			for _, obs := range observations {
				ev, ok := r.observe(obs, starts, outputs)
				if !ok {
					continue
				}
				ev.Ordinal = len(rec.Events) + 1
				rec.Events = append(rec.Events, ev)
				if r.sink != nil {
					if err := r.sink.Append(ev); err != nil {
						sinkErrs = append(sinkErrs, err)
					}
				}
				r.reporter.ReportEvent(ev)
			}
		}
	}
	close(stop)

	// The collaborator may close stdout and keep running; cancellation still
	// applies until it exits.
	exited := make(chan error, 1)
	go func() { exited <- proc.Wait() }()
	var waitErr error
	select {
	case waitErr = <-exited:
		// The launcher may have stopped the process on ctx itself.
		if waitErr != nil && ctx.Err() != nil && !killed {
			rec.truncate(fmt.Sprintf("cancelled: %v", ctx.Err()))
			killed = true
		}
	case <-ctx.Done():
		if !killed {
			kill(fmt.Sprintf("cancelled: %v", ctx.Err()))
		}
		waitErr = <-exited
	}
	rec.FinishedAt = r.now()
	rec.ExitCode = exitCode(waitErr)
	if !killed && !dec.complete() {
		reason := "stream ended before end-of-stream signal"
		if waitErr != nil {
			reason = fmt.Sprintf("%s (%v)", reason, waitErr)
		}
		rec.truncate(reason)
	}
	if len(starts) > 0 && rec.Truncated {
		logging.Warn("TestRunner", "%d tests were still running when the stream stopped", len(starts))
	}

	if r.sink != nil {
		if err := r.sink.End(rec); err != nil {
			sinkErrs = append(sinkErrs, err)
		}
	}
	r.reporter.ReportEnd(rec)

	counts := rec.Counts()
	logging.Info("TestRunner", "run %s finished: %d tests, %d failed, truncated=%t", rec.RunID, counts.Total, counts.Failed, rec.Truncated)

	if len(sinkErrs) > 0 {
		return rec, fmt.Errorf("failed to persist record: %w", errors.Join(sinkErrs...))
	}
	return rec, nil
}

// observe folds an observation into the per-test state and returns a
// TestEvent for completion observations.
func (r *Runner) observe(obs observation, starts map[testKey]time.Time, outputs map[testKey]*strings.Builder) (TestEvent, bool) {
	key := testKey{pkg: obs.pkg, test: obs.test}
	at := obs.time
	if at.IsZero() {
		at = r.now()
	}

	switch obs.kind {
	case obsStart:
		starts[key] = at
		return TestEvent{}, false
	case obsOutput:
		b := outputs[key]
		if b == nil {
			b = &strings.Builder{}
			outputs[key] = b
		}
		if b.Len() < maxMessageSize {
			b.WriteString(obs.message)
		}
		return TestEvent{}, false
	}

	ev := TestEvent{
		Test:    obs.test,
		Package: obs.pkg,
		Outcome: obs.outcome,
		Message: obs.message,
	}

	start, started := starts[key]
	switch {
	case started:
		ev.Timestamp = start
		ev.Duration = at.Sub(start)
	case obs.hasElapsed:
		ev.Duration = obs.elapsed
		ev.Timestamp = at.Add(-obs.elapsed)
	default:
		ev.Timestamp = at
	}
	if ev.Duration < 0 {
		logging.Warn("TestRunner", "test %s finished before it started, recording zero duration", obs.test)
		ev.Duration = 0
		ev.Timestamp = at
	}

	if ev.Message == "" && ev.Outcome != OutcomePass {
		if b := outputs[key]; b != nil {
			ev.Message = b.String()
		}
	}
	delete(starts, key)
	delete(outputs, key)
	return ev, true
}

func scanLines(r io.Reader, out chan<- scannedLine, stop <-chan struct{}) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		data := append([]byte(nil), scanner.Bytes()...)
		select {
		case out <- scannedLine{data: data}:
		case <-stop:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case out <- scannedLine{err: err}:
		case <-stop:
		}
	}
}
