package testrun

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		RecordHeader: RecordHeader{RunID: "r", Suite: "unit", Profile: "ci", Platform: "linux-x64", StartedAt: t0},
		Events: []TestEvent{
			{Ordinal: 1, Test: "a", Outcome: OutcomePass, Duration: time.Second, Timestamp: t0},
			{Ordinal: 2, Test: "b", Outcome: OutcomeFail, Duration: 2 * time.Second, Timestamp: t0.Add(time.Second), Message: "boom"},
		},
		FinishedAt: t0.Add(3 * time.Second),
		ExitCode:   1,
	}
}

func writeRecord(t *testing.T, rec *Record, withTrailer bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)
	require.NoError(t, sink.Begin(rec.RecordHeader))
	for _, ev := range rec.Events {
		require.NoError(t, sink.Append(ev))
	}
	if withTrailer {
		require.NoError(t, sink.End(rec))
	}
	return &buf
}

func TestReadRecord_Complete(t *testing.T) {
	rec := sampleRecord()
	got, err := ReadRecord(writeRecord(t, rec, true))
	require.NoError(t, err)

	assert.Equal(t, rec.RecordHeader.RunID, got.RunID)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	require.Len(t, got.Events, 2)
	assert.Equal(t, "boom", got.Events[1].Message)
	assert.Equal(t, 2*time.Second, got.Events[1].Duration)
	assert.False(t, got.Truncated)
	assert.Equal(t, 1, got.ExitCode)
}

func TestReadRecord_MissingTrailer(t *testing.T) {
	got, err := ReadRecord(writeRecord(t, sampleRecord(), false))
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Len(t, got.Events, 2)
}

func TestReadRecord_CutMidLine(t *testing.T) {
	buf := writeRecord(t, sampleRecord(), false)
	data := buf.String()
	cut := data[:len(data)-10]

	got, err := ReadRecord(strings.NewReader(cut))
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Len(t, got.Events, 1)
}

func TestReadRecord_TruncatedTrailer(t *testing.T) {
	rec := sampleRecord()
	rec.truncate("cancelled: context canceled")

	got, err := ReadRecord(writeRecord(t, rec, true))
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Equal(t, "cancelled: context canceled", got.TruncatedReason)
}

func TestReadRecord_Invalid(t *testing.T) {
	good := writeRecord(t, sampleRecord(), true).String()
	lines := strings.Split(strings.TrimSpace(good), "\n")

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no header", strings.Join(lines[1:], "\n")},
		{"garbage in the middle", strings.Join([]string{lines[0], "not json", lines[2], lines[3]}, "\n")},
		{"count mismatch", strings.Join([]string{lines[0], lines[1], lines[3]}, "\n")},
		{"data after trailer", strings.Join(append(lines, lines[1]), "\n")},
		{"unknown kind", lines[0] + "\n" + `{"kind":"mystery"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecord(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestRecordFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "record.jsonl")
	sink, err := CreateRecordFile(path)
	require.NoError(t, err)

	rec := sampleRecord()
	require.NoError(t, sink.Begin(rec.RecordHeader))
	for _, ev := range rec.Events {
		require.NoError(t, sink.Append(ev))
	}
	require.NoError(t, sink.End(rec))
	require.NoError(t, sink.Close())

	got, err := ReadRecordFile(path)
	require.NoError(t, err)
	assert.Len(t, got.Events, 2)
	assert.False(t, got.Truncated)
}
