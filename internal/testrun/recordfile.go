package testrun

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	lineHeader  = "header"
	lineEvent   = "event"
	lineTrailer = "trailer"
)

// RecordTrailer closes a persisted record.
type RecordTrailer struct {
	Count           int       `json:"count"`
	Truncated       bool      `json:"truncated"`
	TruncatedReason string    `json:"truncated_reason,omitempty"`
	FinishedAt      time.Time `json:"finished_at"`
	ExitCode        int       `json:"exit_code"`
}

type recordLine struct {
	Kind    string         `json:"kind"`
	Header  *RecordHeader  `json:"header,omitempty"`
	Event   *TestEvent     `json:"event,omitempty"`
	Trailer *RecordTrailer `json:"trailer,omitempty"`
}

// Sink receives a record as it is built.
type Sink interface {
	Begin(header RecordHeader) error
	Append(ev TestEvent) error
	End(rec *Record) error
}

// JSONLSink writes a record as JSON lines, flushing each line so a crashed
// run leaves every observed event on disk.
type JSONLSink struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONLSink writes to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// CreateRecordFile creates (or truncates) path and returns a sink writing to it.
func CreateRecordFile(path string) (*JSONLSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create record directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create record file: %w", err)
	}
	return NewJSONLSink(f), nil
}

func (s *JSONLSink) Begin(h RecordHeader) error {
	return s.write(recordLine{Kind: lineHeader, Header: &h})
}

func (s *JSONLSink) Append(ev TestEvent) error {
	return s.write(recordLine{Kind: lineEvent, Event: &ev})
}

func (s *JSONLSink) End(rec *Record) error {
	return s.write(recordLine{Kind: lineTrailer, Trailer: &RecordTrailer{
		Count:           len(rec.Events),
		Truncated:       rec.Truncated,
		TruncatedReason: rec.TruncatedReason,
		FinishedAt:      rec.FinishedAt,
		ExitCode:        rec.ExitCode,
	}})
}

// Close closes the underlying writer when it is closable.
func (s *JSONLSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *JSONLSink) write(line recordLine) error {
	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to encode %s line: %w", line.Kind, err)
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return s.w.Flush()
}

// ReadRecordFile reads a persisted record from path.
func ReadRecordFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer f.Close()
	return ReadRecord(f)
}

// ReadRecord parses a JSON lines record. A record without a trailer, or
// whose final line was cut mid-write, is returned flagged as truncated.
func ReadRecord(r io.Reader) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	lines := bytes.Split(data, []byte("\n"))
	for len(lines) > 0 && len(bytes.TrimSpace(lines[len(lines)-1])) == 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, errors.New("record is empty")
	}

	rec := &Record{}
	var trailer *RecordTrailer
	for i, raw := range lines {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		last := i == len(lines)-1

		var line recordLine
		if err := json.Unmarshal(raw, &line); err != nil {
			if last && i > 0 {
				rec.truncate(fmt.Sprintf("final line %d is incomplete", i+1))
				break
			}
			return nil, fmt.Errorf("record line %d: %w", i+1, err)
		}
		if trailer != nil {
			return nil, fmt.Errorf("record line %d: data after trailer", i+1)
		}

		switch line.Kind {
		case lineHeader:
			if i != 0 || line.Header == nil {
				return nil, fmt.Errorf("record line %d: unexpected header", i+1)
			}
			rec.RecordHeader = *line.Header
		case lineEvent:
			if i == 0 {
				return nil, errors.New("record line 1: missing header")
			}
			if line.Event == nil {
				return nil, fmt.Errorf("record line %d: empty event", i+1)
			}
			rec.Events = append(rec.Events, *line.Event)
		case lineTrailer:
			if i == 0 || line.Trailer == nil {
				return nil, fmt.Errorf("record line %d: unexpected trailer", i+1)
			}
			trailer = line.Trailer
		default:
			return nil, fmt.Errorf("record line %d: unknown kind %q", i+1, line.Kind)
		}
	}

	if trailer == nil {
		rec.truncate("record has no trailer")
		return rec, nil
	}
	if trailer.Count != len(rec.Events) {
		return nil, fmt.Errorf("record trailer counts %d events, found %d", trailer.Count, len(rec.Events))
	}
	rec.FinishedAt = trailer.FinishedAt
	rec.ExitCode = trailer.ExitCode
	if trailer.Truncated {
		rec.truncate(trailer.TruncatedReason)
	}
	return rec, nil
}
