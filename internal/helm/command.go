package helm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/lucas-albers-lz4/helm-snyk/pkg/version"
)

// DefaultBinary is the helm executable looked up on PATH.
const DefaultBinary = "helm"

// Variable for exec.CommandContext to support mocking in tests
var execCommand = exec.CommandContext

// CommandRenderer renders charts by running `helm template`.
type CommandRenderer struct {
	// Binary is the helm executable. Defaults to DefaultBinary.
	Binary string
	// CheckVersion logs a warning before the first render when the installed
	// helm is older than version.MinHelmVersion.
	CheckVersion bool

	logger  *slog.Logger
	checked bool
}

// NewCommandRenderer creates a renderer that runs binary.
func NewCommandRenderer(binary string, logger *slog.Logger) *CommandRenderer {
	if binary == "" {
		binary = DefaultBinary
	}
	return &CommandRenderer{Binary: binary, CheckVersion: true, logger: logger}
}

// Render runs `helm template <chartDir>` with the forwarded value flags.
//
// A non-zero helm exit is not an error: it is reported through
// CommandResult.ExitCode with helm's stderr. The error is non-nil only when
// helm could not be started or the context ended.
func (r *CommandRenderer) Render(ctx context.Context, chartDir string, opts TemplateOptions) (*CommandResult, error) {
	r.checkVersion(ctx)

	args := append([]string{"template", chartDir}, opts.Args()...)
	r.logger.Debug("executing helm", "binary", r.Binary, "args", strings.Join(args, " "))

	// #nosec G204 -- We need to allow variable arguments to helm command
	cmd := execCommand(ctx, r.Binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("helm template interrupted: %w", ctxErr)
	}

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrHelmNotStarted, r.Binary, err)
		}
		result.ExitCode = exitErr.ExitCode()
		r.logger.Debug("helm template failed", "exitCode", result.ExitCode, "stderr", result.Stderr)
	}
	return result, nil
}

func (r *CommandRenderer) checkVersion(ctx context.Context) {
	if !r.CheckVersion || r.checked {
		return
	}
	r.checked = true

	v, err := version.CheckHelmVersion(ctx, r.Binary)
	switch {
	case errors.Is(err, version.ErrUnsupportedHelmVersion):
		r.logger.Warn("installed helm is older than the supported minimum", "version", v, "minimum", version.MinHelmVersion)
	case err != nil:
		r.logger.Debug("could not determine helm version", "error", err)
	default:
		r.logger.Debug("helm version check passed", "version", v)
	}
}
