package scan

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/lucas-albers-lz4/helm-snyk/internal/docker"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/image"
)

// Runtime is the container runtime the scanner is driven through.
// *docker.Client satisfies it.
type Runtime interface {
	Pull(ctx context.Context, ref string) (io.ReadCloser, error)
	Run(ctx context.Context, spec docker.ContainerSpec) (*docker.ContainerResult, error)
}

// Puller pulls images and drains their progress streams.
type Puller struct {
	runtime Runtime
	logger  *slog.Logger
}

// NewPuller creates a Puller backed by runtime.
func NewPuller(runtime Runtime, logger *slog.Logger) *Puller {
	return &Puller{runtime: runtime, logger: logger}
}

// Pull pulls ref and returns the concatenated progress output once the
// stream ends. Failures are returned as *PullError. No retries are made.
func (p *Puller) Pull(ctx context.Context, ref image.Ref) (string, error) {
	target, err := image.Normalize(ref)
	if err != nil {
		p.logger.Debug("pulling reference as written", "image", ref.String(), "error", err)
	}

	stream, err := p.runtime.Pull(ctx, target)
	if err != nil {
		return "", &PullError{
			Image:      ref.String(),
			StatusCode: statusCode(err),
			Message:    err.Error(),
			Err:        err,
		}
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			p.logger.Debug("failed to close pull stream", "image", ref.String(), "error", closeErr)
		}
	}()

	var progress bytes.Buffer
	if _, err := io.Copy(&progress, stream); err != nil {
		return "", &PullError{
			Image:      ref.String(),
			StatusCode: statusCode(err),
			Message:    fmt.Sprintf("reading pull progress: %v", err),
			Err:        err,
		}
	}

	if jerr := streamError(progress.Bytes()); jerr != nil {
		code := jerr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return "", &PullError{
			Image:      ref.String(),
			StatusCode: code,
			Message:    jerr.Message,
			Err:        fmt.Errorf("%w: %s", ErrPullStream, jerr.Message),
		}
	}

	p.logger.Debug("pull complete", "image", ref.String(), "target", target, "bytes", progress.Len())
	return progress.String(), nil
}

// streamError returns the first error message embedded in a newline
// delimited JSON progress stream. Lines that are not JSON are ignored.
func streamError(progress []byte) *jsonmessage.JSONError {
	scanner := bufio.NewScanner(bytes.NewReader(progress))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg jsonmessage.JSONMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		if msg.Error != nil {
			return msg.Error
		}
		if msg.ErrorMessage != "" {
			return &jsonmessage.JSONError{Message: msg.ErrorMessage}
		}
	}
	return nil
}
