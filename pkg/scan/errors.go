package scan

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
)

// ErrPullStream is the cause recorded when the runtime embeds an error in the
// pull progress stream instead of failing the request.
var ErrPullStream = errors.New("error reported in pull progress stream")

// PullError reports a failed image pull. StatusCode follows HTTP conventions
// and is derived from the runtime's error class.
type PullError struct {
	Image      string
	StatusCode int
	Message    string
	Err        error
}

func (e *PullError) Error() string {
	return fmt.Sprintf("failed to pull image %s (status %d): %s", e.Image, e.StatusCode, e.Message)
}

func (e *PullError) Unwrap() error {
	return e.Err
}

// ScanError reports a scan that could not run to a usable result: the
// container failed to start, or the scanner exited with a status other than
// 0 (clean) or 1 (vulnerabilities found).
type ScanError struct {
	Image      string
	StatusCode int64
	Stderr     string
	Err        error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan of %s failed: %v", e.Image, e.Err)
	}
	return fmt.Sprintf("scan of %s failed with exit status %d: %s", e.Image, e.StatusCode, e.Stderr)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// statusCode maps a runtime error onto the HTTP status the engine would have
// answered with.
func statusCode(err error) int {
	switch {
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errdefs.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errdefs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
