package testrun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"envpin/pkg/logging"
)

type observationKind int

const (
	obsStart observationKind = iota
	obsFinish
	obsOutput
)

// observation is a decoded stream line, before ordinals and durations are assigned.
type observation struct {
	kind       observationKind
	pkg        string
	test       string
	outcome    Outcome
	time       time.Time
	elapsed    time.Duration
	hasElapsed bool
	message    string
}

// decoder turns stream lines into observations and knows whether the stream
// reached its end-of-stream signal.
type decoder interface {
	decode(line []byte) ([]observation, error)
	complete() bool
}

func newDecoder(format Format) (decoder, error) {
	switch format {
	case FormatNative, "":
		return &nativeDecoder{}, nil
	case FormatGoTest:
		return newGoTestDecoder(), nil
	}
	return nil, fmt.Errorf("unknown stream format %q", format)
}

type nativeLine struct {
	Event   string    `json:"event"`
	Test    string    `json:"test"`
	Package string    `json:"package"`
	Time    time.Time `json:"time"`
	Elapsed *float64  `json:"elapsed"`
	Message string    `json:"message"`
}

type nativeDecoder struct {
	ended bool
}

func (d *nativeDecoder) decode(line []byte) ([]observation, error) {
	var l nativeLine
	if err := json.Unmarshal(line, &l); err != nil {
		return nil, fmt.Errorf("invalid event line: %w", err)
	}
	if d.ended {
		logging.Warn("TestRunner", "ignoring %q event after end-of-stream", l.Event)
		return nil, nil
	}

	obs := observation{pkg: l.Package, test: l.Test, time: l.Time, message: l.Message}
	if l.Elapsed != nil {
		obs.elapsed = secondsToDuration(*l.Elapsed)
		obs.hasElapsed = true
	}

	switch l.Event {
	case "end":
		d.ended = true
		return nil, nil
	case "start":
		obs.kind = obsStart
	case "output":
		obs.kind = obsOutput
	case string(OutcomePass), string(OutcomeFail), string(OutcomeSkip):
		obs.kind = obsFinish
		obs.outcome = Outcome(l.Event)
	default:
		return nil, fmt.Errorf("unknown event %q", l.Event)
	}
	if l.Test == "" {
		return nil, fmt.Errorf("%s event without test identifier", l.Event)
	}
	return []observation{obs}, nil
}

func (d *nativeDecoder) complete() bool {
	return d.ended
}

// goTestLine is a test2json event.
type goTestLine struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed *float64  `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// goTestDecoder tracks packages: a package opens on its first event and
// closes on its terminal pass/fail/skip action. The stream is complete once
// at least one package was seen and all seen packages are closed.
type goTestDecoder struct {
	open   map[string]bool
	closed map[string]bool
}

func newGoTestDecoder() *goTestDecoder {
	return &goTestDecoder{open: map[string]bool{}, closed: map[string]bool{}}
}

func (d *goTestDecoder) decode(line []byte) ([]observation, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(line), []byte("{")) {
		// go test interleaves plain build output when compilation fails.
		logging.Debug("TestRunner", "skipping non-JSON line: %s", strings.TrimSpace(string(line)))
		return nil, nil
	}

	var l goTestLine
	if err := json.Unmarshal(line, &l); err != nil {
		return nil, fmt.Errorf("invalid test2json line: %w", err)
	}
	if l.Package != "" && !d.closed[l.Package] {
		d.open[l.Package] = true
	}

	obs := observation{pkg: l.Package, test: l.Test, time: l.Time}
	if l.Elapsed != nil {
		obs.elapsed = secondsToDuration(*l.Elapsed)
		obs.hasElapsed = true
	}

	switch l.Action {
	case "run":
		if l.Test == "" {
			return nil, nil
		}
		obs.kind = obsStart
	case "output":
		if l.Test == "" {
			return nil, nil
		}
		obs.kind = obsOutput
		obs.message = l.Output
	case "pass", "fail", "skip":
		if l.Test == "" {
			delete(d.open, l.Package)
			d.closed[l.Package] = true
			return nil, nil
		}
		obs.kind = obsFinish
		obs.outcome = Outcome(l.Action)
	default:
		// start, pause, cont, bench and future actions carry no outcome.
		return nil, nil
	}
	return []observation{obs}, nil
}

func (d *goTestDecoder) complete() bool {
	return len(d.closed) > 0 && len(d.open) == 0
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
