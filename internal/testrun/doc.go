// Package testrun drives an external test process and captures its outcomes.
//
// The external collaborator (a test binary, `go test -json`, or any command
// that speaks the native event format) is started under a materialized
// profile environment. Its stdout is consumed line by line; every completed
// test becomes a TestEvent with an increasing ordinal and is appended to the
// Record and to the Sink as soon as it is observed, so nothing depends on the
// run finishing.
//
// # Stream formats
//
// Native (FormatNative) is JSON lines:
//
//	{"event":"start","test":"backend::redis::store","time":"2024-02-01T10:00:00Z"}
//	{"event":"pass","test":"backend::redis::store","time":"2024-02-01T10:00:01Z"}
//	{"event":"fail","test":"beat::schedule","elapsed":0.25,"message":"assertion failed"}
//	{"event":"end"}
//
// FormatGoTest accepts the output of `go test -json` (test2json actions).
//
// # Truncation
//
// A Record is marked Truncated, never discarded, when the stream stops
// before its end-of-stream signal, a line cannot be decoded, or the context
// is cancelled. Events observed up to that point are always kept.
//
// # Persistence
//
// JSONLSink writes a header line, one line per event, and a trailer. A file
// without a trailer is read back by ReadRecord as a truncated record.
package testrun
