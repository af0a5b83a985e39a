package pipeline

import "errors"

var (
	// ErrMissingToken is returned when no scanner token is configured.
	ErrMissingToken = errors.New("SNYK_TOKEN is not set")
	// ErrRenderFailed is returned when the renderer exits non-zero.
	ErrRenderFailed = errors.New("chart rendering failed")
	// ErrInvalidScannerImage is returned when the scanner image is not a valid reference.
	ErrInvalidScannerImage = errors.New("invalid scanner image")
)
