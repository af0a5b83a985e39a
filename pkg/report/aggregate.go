package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Entry pairs an image with its result in JSON mode.
type Entry struct {
	Image  string          `json:"image"`
	Result json.RawMessage `json:"result"`
}

// Report is the aggregated output of a run. Exactly one of Text or Entries
// is meaningful, selected by JSON.
type Report struct {
	JSON    bool
	Text    string
	Entries []Entry
}

var emptyResult = json.RawMessage(`{}`)

// Aggregate folds outcomes into a Report, preserving their order.
//
// In text mode every Scanned outcome contributes "Image: <name>\n<output>\n"
// and the other variants are left out. In JSON mode every outcome becomes an
// Entry: Scanned carries the scanner's JSON output (or the raw output as a
// JSON string when it is not valid JSON), Skipped carries {} and Failed
// carries {"error": "<detail>"}.
func Aggregate(outcomes []Outcome, asJSON bool) *Report {
	if !asJSON {
		var b strings.Builder
		for _, o := range outcomes {
			if s, ok := o.(Scanned); ok {
				fmt.Fprintf(&b, "Image: %s\n%s\n", s.Image, s.Output)
			}
		}
		return &Report{Text: b.String()}
	}

	entries := make([]Entry, 0, len(outcomes))
	for _, o := range outcomes {
		entries = append(entries, Entry{Image: o.Ref().String(), Result: result(o)})
	}
	return &Report{JSON: true, Entries: entries}
}

func result(o Outcome) json.RawMessage {
	switch v := o.(type) {
	case Scanned:
		return scannerOutput(v.Output)
	case Skipped:
		return emptyResult
	case Failed:
		detail := "unknown error"
		if v.Err != nil {
			detail = v.Err.Error()
		}
		return mustMarshal(map[string]string{"error": detail})
	default:
		panic(fmt.Sprintf("report: unhandled outcome type %T", o))
	}
}

// scannerOutput keeps valid JSON as-is and wraps anything else in a string.
func scannerOutput(out string) json.RawMessage {
	trimmed := bytes.TrimSpace([]byte(out))
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return mustMarshal(out)
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Strings and string maps always marshal.
		panic(err)
	}
	return b
}
