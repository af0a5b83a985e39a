package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lucas-albers-lz4/helm-snyk/internal/helm"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/exitcodes"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/image"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/report"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/scan"
)

// Renderer turns a chart directory into manifest text.
type Renderer interface {
	Render(ctx context.Context, chartDir string, opts helm.TemplateOptions) (*helm.CommandResult, error)
}

// ChartInspector validates a chart directory and returns its display label.
type ChartInspector interface {
	Label(dir string) (string, error)
}

// Puller pulls one image.
type Puller interface {
	Pull(ctx context.Context, ref image.Ref) (string, error)
}

// Scanner scans one image inside the scanner image.
type Scanner interface {
	Run(ctx context.Context, token string, scannerImage, target image.Ref, opts scan.CommandOptions) (string, error)
}

// Sink writes the final report to dest, or to standard output when dest is empty.
type Sink interface {
	Write(ctx context.Context, rep *report.Report, dest string) error
}

// Deps are the collaborators a Driver sequences.
type Deps struct {
	Renderer Renderer
	Charts   ChartInspector
	Puller   Puller
	Scanner  Scanner
	Sink     Sink
}

// Result is what a run produced.
type Result struct {
	// Chart is the chart label "name@version".
	Chart string
	// Outcomes are in the order images were first found in the rendered text.
	Outcomes []report.Outcome
	// Report is the aggregated report handed to the sink.
	Report *report.Report
}

// Driver runs the pipeline. A Driver is used for a single run.
type Driver struct {
	deps   Deps
	logger *slog.Logger
	state  State
}

// NewDriver creates a Driver.
func NewDriver(deps Deps, logger *slog.Logger) *Driver {
	return &Driver{deps: deps, logger: logger, state: StateInit}
}

// State returns the step the driver is in, or ended in.
func (d *Driver) State() State {
	return d.state
}

func (d *Driver) transition(s State, attrs ...any) {
	d.logger.Debug("pipeline state", append([]any{"from", d.state.String(), "to", s.String()}, attrs...)...)
	d.state = s
}

func (d *Driver) fatal(code int, err error) error {
	d.transition(StateFatal, "error", err)
	return &exitcodes.ExitCodeError{Code: code, Err: err}
}

// Run executes one invocation described by cfg.
//
// Configuration problems and renderer failures are returned as
// *exitcodes.ExitCodeError before any image is processed. Pull and scan
// failures for individual images are recorded as report.Failed and the run
// continues. The sink is called exactly once, after every image has been
// processed; a cancelled context aborts the run before that.
func (d *Driver) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Token == "" {
		return nil, d.fatal(exitcodes.ExitInputConfigurationError, ErrMissingToken)
	}

	label, err := d.deps.Charts.Label(cfg.ChartDir)
	if err != nil {
		return nil, d.fatal(exitcodes.ExitInputConfigurationError, err)
	}

	scannerImage, err := image.NewRef(cfg.ScannerImage)
	if err != nil {
		return nil, d.fatal(exitcodes.ExitInputConfigurationError, fmt.Errorf("%w: %w", ErrInvalidScannerImage, err))
	}

	d.logger.Info("scanning chart", "chart", label, "directory", cfg.ChartDir)

	d.transition(StateRendering)
	rendered, err := d.deps.Renderer.Render(ctx, cfg.ChartDir, cfg.Template)
	if err != nil {
		if ctx.Err() != nil {
			d.transition(StateFatal, "error", err)
			return nil, err
		}
		return nil, d.fatal(exitcodes.ExitHelmCommandFailed, err)
	}
	if !rendered.Success() {
		code := rendered.ExitCode
		if code < 0 {
			code = exitcodes.ExitHelmCommandFailed
		}
		return nil, d.fatal(code,
			fmt.Errorf("%w (exit code %d): %s", ErrRenderFailed, rendered.ExitCode, strings.TrimSpace(rendered.Stderr)))
	}
	if stderr := strings.TrimSpace(rendered.Stderr); stderr != "" {
		d.logger.Warn("renderer reported warnings", "stderr", stderr)
	}

	d.transition(StateExtracting)
	images := image.ExtractImages(rendered.Stdout, d.logger)
	d.logger.Info("found images", "count", images.Len(), "images", images.Strings())

	outcomes, err := d.process(ctx, cfg, scannerImage, images.Items())
	if err != nil {
		d.transition(StateFatal, "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("run interrupted: %w", err)
		d.transition(StateFatal, "error", err)
		return nil, err
	}

	d.transition(StateAggregating)
	rep := report.Aggregate(outcomes, cfg.JSON)
	if err := d.deps.Sink.Write(ctx, rep, cfg.OutputPath); err != nil {
		return nil, d.fatal(exitcodes.ExitIOError, fmt.Errorf("failed to write report: %w", err))
	}

	d.transition(StateDone)
	return &Result{Chart: label, Outcomes: outcomes, Report: rep}, nil
}

// process produces one outcome per image, in order.
func (d *Driver) process(ctx context.Context, cfg RunConfig, scannerImage image.Ref, images []image.Ref) ([]report.Outcome, error) {
	outcomes := make([]report.Outcome, 0, len(images))

	if cfg.NoTest {
		for _, ref := range images {
			d.transition(StateRecording, "image", ref.String())
			outcomes = append(outcomes, report.Skipped{Image: ref})
		}
		return outcomes, nil
	}

	d.transition(StatePulling, "image", scannerImage.String())
	if _, err := d.deps.Puller.Pull(ctx, scannerImage); err != nil {
		d.logger.Warn("failed to pull scanner image", "image", scannerImage.String(), "error", err)
	}

	opts := scan.CommandOptions{JSON: cfg.JSON, Debug: cfg.Debug, Program: cfg.ScannerProgram}
	for _, ref := range images {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted: %w", err)
		}
		outcomes = append(outcomes, d.processImage(ctx, cfg.Token, scannerImage, ref, opts))
	}
	return outcomes, nil
}

func (d *Driver) processImage(ctx context.Context, token string, scannerImage, ref image.Ref, opts scan.CommandOptions) report.Outcome {
	d.transition(StatePulling, "image", ref.String())
	if _, err := d.deps.Puller.Pull(ctx, ref); err != nil {
		d.logger.Error("failed to pull image", "image", ref.String(), "error", err)
		d.transition(StateRecording, "image", ref.String())
		return report.Failed{Image: ref, Err: err}
	}

	d.transition(StateScanning, "image", ref.String())
	out, err := d.deps.Scanner.Run(ctx, token, scannerImage, ref, opts)
	d.transition(StateRecording, "image", ref.String())
	if err != nil {
		d.logger.Error("failed to scan image", "image", ref.String(), "error", err)
		return report.Failed{Image: ref, Err: err}
	}
	return report.Scanned{Image: ref, Output: out}
}
