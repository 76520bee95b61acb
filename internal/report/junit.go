package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"envpin/internal/testrun"
)

type junitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name       string          `xml:"name,attr"`
	ID         string          `xml:"id,attr,omitempty"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       string          `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []junitProperty `xml:"properties>property,omitempty"`
	Cases      []junitTestCase `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Timestamp string        `xml:"timestamp,attr,omitempty"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteJUnit encodes r as a single-suite JUnit XML document.
func WriteJUnit(w io.Writer, r *Report) error {
	doc := junitDocument(r)
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JUnit report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteJUnitFile writes r to path, replacing any existing file.
func WriteJUnitFile(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteJUnit(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func junitDocument(r *Report) junitTestSuites {
	suite := junitTestSuite{
		Name:     r.Name,
		ID:       r.RunID,
		Tests:    r.Totals.Tests,
		Failures: r.Totals.Failures,
		Skipped:  r.Totals.Skipped,
		Time:     seconds(r.Totals.Time),
		Cases:    make([]junitTestCase, 0, len(r.Entries)),
	}
	if !r.Timestamp.IsZero() {
		suite.Timestamp = timestamp(r.Timestamp)
	}

	suite.Properties = append(suite.Properties, junitProperty{Name: "truncated", Value: strconv.FormatBool(r.Truncated)})
	if r.Truncated && r.Reason != "" {
		suite.Properties = append(suite.Properties, junitProperty{Name: "truncated.reason", Value: r.Reason})
	}
	if r.Profile != "" {
		suite.Properties = append(suite.Properties, junitProperty{Name: "envpin.profile", Value: r.Profile})
	}
	if r.Platform != "" {
		suite.Properties = append(suite.Properties, junitProperty{Name: "envpin.platform", Value: r.Platform})
	}

	for _, e := range r.Entries {
		tc := junitTestCase{
			Name:      e.Name,
			ClassName: e.ClassName,
			Time:      seconds(e.Duration),
		}
		if !e.Timestamp.IsZero() {
			tc.Timestamp = timestamp(e.Timestamp)
		}
		switch e.Outcome {
		case testrun.OutcomeFail:
			tc.Failure = &junitFailure{Message: firstLine(e.Message), Type: "failure", Body: e.Message}
		case testrun.OutcomeSkip:
			tc.Skipped = &junitSkipped{Message: firstLine(e.Message)}
		default:
			tc.SystemOut = e.Message
		}
		suite.Cases = append(suite.Cases, tc)
	}

	return junitTestSuites{
		Name:     r.Name,
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Skipped:  suite.Skipped,
		Time:     suite.Time,
		Suites:   []junitTestSuite{suite},
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
