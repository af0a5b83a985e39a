// Package testutil provides shared helpers for tests: capturing structured
// log output and asserting on the parsed records.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucas-albers-lz4/helm-snyk/pkg/log"
)

// LogCapture is a JSON logger whose output is kept in memory.
type LogCapture struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	Logger *slog.Logger
}

// NewLogCapture returns a LogCapture writing records at or above level.
func NewLogCapture(level log.Level) *LogCapture {
	c := &LogCapture{}
	c.Logger = log.New(lockedWriter{c}, log.Options{Level: level, Format: log.FormatJSON})
	return c
}

type lockedWriter struct{ c *LogCapture }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	n, err := w.c.buf.Write(p)
	if err != nil {
		return n, fmt.Errorf("capture log record: %w", err)
	}
	return n, nil
}

// String returns the raw captured output.
func (c *LogCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Records parses the captured output as one JSON object per line.
func (c *LogCapture) Records() ([]map[string]interface{}, error) {
	return ParseJSONLogs(c.String())
}

// ParseJSONLogs splits output into lines and unmarshals each as a JSON object.
// Empty lines are skipped.
func ParseJSONLogs(output string) ([]map[string]interface{}, error) {
	var parsed []map[string]interface{}
	if strings.TrimSpace(output) == "" {
		return parsed, nil
	}

	for i, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return parsed, fmt.Errorf("failed to unmarshal log line %d as JSON: %w\nLine content: %s", i+1, err, line)
		}
		parsed = append(parsed, entry)
	}
	return parsed, nil
}

// AssertLogContainsJSON checks if any log entry contains all the key-value
// pairs present in expectedLog.
func AssertLogContainsJSON(t *testing.T, logs []map[string]interface{}, expectedLog map[string]interface{}) {
	t.Helper()
	for _, logEntry := range logs {
		if containsAll(logEntry, expectedLog) {
			return
		}
	}

	var logBuffer bytes.Buffer
	encoder := json.NewEncoder(&logBuffer)
	encoder.SetIndent("", "  ")
	for _, entry := range logs {
		_ = encoder.Encode(entry) //nolint:errcheck // Ignore error for test helper
	}
	expectedLogJSON, _ := json.MarshalIndent(expectedLog, "", "  ") //nolint:errcheck // Ignore error for test helper

	assert.Fail(t, "Expected log entry not found",
		"Expected log containing:\n%s\n\nActual captured logs:\n%s",
		string(expectedLogJSON), logBuffer.String())
}

// AssertLogDoesNotContainJSON checks that no log entry contains all the
// key-value pairs present in unexpectedLog.
func AssertLogDoesNotContainJSON(t *testing.T, logs []map[string]interface{}, unexpectedLog map[string]interface{}) {
	t.Helper()
	for _, logEntry := range logs {
		if containsAll(logEntry, unexpectedLog) {
			foundEntryJSON, _ := json.MarshalIndent(logEntry, "", "  ")         //nolint:errcheck // Ignore error for test helper
			unexpectedLogJSON, _ := json.MarshalIndent(unexpectedLog, "", "  ") //nolint:errcheck // Ignore error for test helper
			assert.Fail(t, "Unexpected log entry found",
				"Found log entry:\n%s\n\nUnexpected log containing:\n%s",
				string(foundEntryJSON), string(unexpectedLogJSON))
			return
		}
	}
}

// CountLogs returns how many entries contain all key-value pairs in match.
func CountLogs(logs []map[string]interface{}, match map[string]interface{}) int {
	n := 0
	for _, entry := range logs {
		if containsAll(entry, match) {
			n++
		}
	}
	return n
}

// containsAll checks if the actual map contains all key-value pairs from the
// expected map. JSON numbers decode to float64, so ints in expected are
// compared numerically.
func containsAll(actual, expected map[string]interface{}) bool {
	for key, expectedValue := range expected {
		actualValue, ok := actual[key]
		if !ok {
			return false
		}

		switch actualVal := actualValue.(type) {
		case float64:
			switch expectedVal := expectedValue.(type) {
			case float64:
				if actualVal != expectedVal {
					return false
				}
			case int:
				if actualVal != float64(expectedVal) {
					return false
				}
			case int64:
				if actualVal != float64(expectedVal) {
					return false
				}
			default:
				return false
			}
		default:
			if actualValue != expectedValue {
				return false
			}
		}
	}
	return true
}
