// Package pipeline drives one helm-snyk run: render the chart, extract the
// images, pull and scan each one in discovery order, aggregate the outcomes
// and hand the report to the output sink.
package pipeline

import (
	"github.com/lucas-albers-lz4/helm-snyk/internal/helm"
)

// RunConfig is the resolved, immutable configuration for one run.
type RunConfig struct {
	// ChartDir is the chart directory to render.
	ChartDir string
	// Token authenticates the scanner. Required.
	Token string
	// NoTest skips pulling and scanning; every image is recorded as skipped.
	NoTest bool
	// JSON selects the structured report.
	JSON bool
	// OutputPath is the report destination. Empty means standard output.
	OutputPath string
	// Template holds the value flags forwarded to the renderer.
	Template helm.TemplateOptions
	// Debug enables command diagnostics in the scan executor.
	Debug bool
	// ScannerImage is the image the scanner runs in.
	ScannerImage string
	// ScannerProgram overrides the program invoked inside the scanner image.
	ScannerProgram string
}
