package image

import (
	"log/slog"
	"strings"
)

const (
	imageKey       = "image:"
	valueSeparator = ": "
)

// ExtractImages scans rendered manifest text line by line and returns every
// valid image reference declared with an "image:" key, in first-seen order.
//
// This is a text heuristic rather than a YAML parse: it accepts any
// indentation or parent structure, and any line whose trimmed form starts
// with "image:" is a candidate. One layer of matching single or double quotes
// is removed from the value. Candidates that fail validation are logged at
// warn level and skipped.
func ExtractImages(text string, logger *slog.Logger) *Set {
	images := NewSet()
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, imageKey) {
			continue
		}

		candidate := candidateValue(trimmed)
		ref, err := NewRef(candidate)
		if err != nil {
			logger.Warn("image name thrown out because it did not pass validation", "candidate", candidate, "error", err)
			continue
		}
		if images.Add(ref) {
			logger.Debug("found image", "image", candidate)
		}
	}
	return images
}

// candidateValue returns the value after the first ": " with one layer of
// matching quotes removed. A line without the separator yields "".
func candidateValue(line string) string {
	_, value, found := strings.Cut(line, valueSeparator)
	if !found {
		return ""
	}
	return unquote(value)
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if first == last && (first == '"' || first == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
