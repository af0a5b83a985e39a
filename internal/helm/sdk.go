package helm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"

	"github.com/lucas-albers-lz4/helm-snyk/pkg/exitcodes"
)

// sdkFailureExitCode is reported for in-process render failures, matching
// what the helm binary exits with.
const sdkFailureExitCode = 1

// SDKRenderer renders charts in process with a client-only dry-run install,
// the same way `helm template` does internally.
type SDKRenderer struct {
	settings *cli.EnvSettings
	logger   *slog.Logger
}

// NewSDKRenderer creates a renderer using Helm's environment settings.
func NewSDKRenderer(logger *slog.Logger) *SDKRenderer {
	return &SDKRenderer{settings: cli.New(), logger: logger}
}

// Render loads the chart in chartDir, merges the value flags and returns the
// rendered manifests followed by hook manifests. Load, values and template
// errors are reported as a failed CommandResult, not as an error. A chart that
// cannot be loaded exits with exitcodes.ExitChartLoadFailed.
func (r *SDKRenderer) Render(ctx context.Context, chartDir string, opts TemplateOptions) (*CommandResult, error) {
	helmLogger := func(format string, v ...interface{}) {
		r.logger.Debug("helm sdk", "message", strings.TrimSpace(fmt.Sprintf(format, v...)))
	}

	actionConfig := new(action.Configuration)
	if err := actionConfig.Init(r.settings.RESTClientGetter(), r.settings.Namespace(), os.Getenv("HELM_DRIVER"), helmLogger); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize Helm action configuration: %w", ErrHelmNotStarted, err)
	}

	vals, err := opts.ValuesOptions().MergeValues(getter.All(r.settings))
	if err != nil {
		return failed(sdkFailureExitCode, fmt.Errorf("failed to merge values: %w", err)), nil
	}

	chrt, err := loader.Load(chartDir)
	if err != nil {
		return failed(exitcodes.ExitChartLoadFailed, fmt.Errorf("failed to load chart %s: %w", chartDir, err)), nil
	}

	client := action.NewInstall(actionConfig)
	client.ClientOnly = true
	client.DryRun = true
	client.Replace = true
	client.IncludeCRDs = true
	client.ReleaseName = DefaultReleaseName
	client.Namespace = r.settings.Namespace()

	rel, err := client.RunWithContext(ctx, chrt, vals)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("helm template interrupted: %w", ctxErr)
	}
	if err != nil {
		return failed(sdkFailureExitCode, fmt.Errorf("helm SDK templating failed for chart %s: %w", chartDir, err)), nil
	}

	return &CommandResult{Stdout: manifestWithHooks(rel)}, nil
}

func failed(code int, err error) *CommandResult {
	return &CommandResult{ExitCode: code, Stderr: "Error: " + err.Error() + "\n"}
}

// manifestWithHooks appends hook manifests in path order, each as its own
// document, like `helm template` prints them.
func manifestWithHooks(rel *release.Release) string {
	var b strings.Builder
	b.WriteString(rel.Manifest)
	if rel.Manifest != "" && !strings.HasSuffix(rel.Manifest, "\n") {
		b.WriteString("\n")
	}

	hooks := append([]*release.Hook(nil), rel.Hooks...)
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Path < hooks[j].Path })
	for _, h := range hooks {
		fmt.Fprintf(&b, "---\n# Source: %s\n%s\n", h.Path, h.Manifest)
	}
	return b.String()
}
