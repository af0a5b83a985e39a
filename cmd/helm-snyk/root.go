package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lucas-albers-lz4/helm-snyk/internal/docker"
	"github.com/lucas-albers-lz4/helm-snyk/internal/helm"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/exitcodes"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/log"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/pipeline"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/scan"
)

// AppFs defines the filesystem interface to use, allows mocking in tests.
var AppFs = afero.NewOsFs()

// SetFs replaces the current filesystem with the provided one and returns a function to restore it.
// This is primarily used for testing.
func SetFs(newFs afero.Fs) func() {
	oldFs := AppFs
	AppFs = newFs
	return func() { AppFs = oldFs }
}

// containerRuntime is the runtime the puller and scanner share.
type containerRuntime interface {
	scan.Runtime
	Close() error
}

// newRuntime connects to the container runtime. Replaced in tests.
var newRuntime = func(logger *slog.Logger) (containerRuntime, error) {
	cli, err := docker.NewFromEnv(logger)
	if err != nil {
		return nil, err
	}
	return cli, nil
}

// newRenderer selects the chart renderer. Replaced in tests.
var newRenderer = func(kind, binary string, logger *slog.Logger) (pipeline.Renderer, error) {
	switch kind {
	case rendererCLI:
		return helm.NewCommandRenderer(binary, logger), nil
	case rendererSDK:
		return helm.NewSDKRenderer(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %q or %q)", errUnknownRenderer, kind, rendererCLI, rendererSDK)
	}
}

// rootOptions holds the flag values of one invocation.
type rootOptions struct {
	configFile string
	json       bool
	debug      bool
	noTest     bool
	output     string
	logLevel   string
	logFormat  string
	renderer   string
	template   helm.TemplateOptions
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "helm-snyk [chart-directory]",
		Short: "Scan every container image a Helm chart deploys with Snyk",
		Long: `Render a Helm chart, collect the container images referenced by the
rendered manifests and test each one with the Snyk CLI running in Docker.

SNYK_TOKEN must be set. Images that fail to pull or scan are reported and the
remaining images are still scanned.`,
		Example: `  # Scan the chart in the current directory
  helm snyk .

  # Scan with overridden values and write JSON results to a file
  helm snyk ./mychart --set image.tag=1.2.3 -f prod-values.yaml --json -o snyk-out.json

  # List the images a chart would deploy without scanning them
  helm snyk ./mychart --notest --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &exitcodes.ExitCodeError{Code: exitcodes.ExitInputConfigurationError, Err: err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.helm-snyk.yaml)")
	flags.BoolVarP(&opts.json, "json", "j", false, "output the scan results as JSON")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")
	flags.BoolVarP(&opts.noTest, "notest", "n", false, "list the images without scanning them")
	flags.StringVarP(&opts.output, "output", "o", "", "write the results to this file instead of stdout")
	flags.StringVar(&opts.logLevel, flagLogLevel, "warn", "set log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, flagLogFormat, "", "log format (json or text); defaults to $LOG_FORMAT, then json")
	flags.StringVar(&opts.renderer, flagRenderer, rendererCLI, "chart renderer: cli runs `helm template`, sdk renders in process")

	flags.StringArrayVarP(&opts.template.Values, "values", "f", nil, "specify values in a YAML file (can specify multiple)")
	flags.StringArrayVar(&opts.template.Set, "set", nil, "set values on the command line (can specify multiple or separate values with commas: key1=val1,key2=val2)")
	flags.StringArrayVar(&opts.template.SetString, "set-string", nil, "set STRING values on the command line (can specify multiple or separate values with commas: key1=val1,key2=val2)")
	flags.StringArrayVar(&opts.template.SetFile, "set-file", nil, "set values from respective files specified via the command line (can specify multiple or separate values with commas: key1=path1,key2=path2)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitInputConfigurationError, Err: err}
	})

	return cmd
}

// runScan wires the collaborators for one run and hands them to the pipeline.
func runScan(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := loadSettings(AppFs, cmd.Flags(), opts.configFile)
	if err != nil {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitInputConfigurationError, Err: err}
	}

	level, levelErr := log.ForRun(opts.debug, cfg.LogLevel)
	logger := log.New(cmd.ErrOrStderr(), log.Options{Level: level, Format: cfg.LogFormat})
	if levelErr != nil {
		logger.Warn("invalid log level, using default", "level", cfg.LogLevel, "default", level.String(), "error", levelErr)
	}

	chartDir := "."
	if len(args) == 1 {
		chartDir = args[0]
	}

	renderer, err := newRenderer(cfg.Renderer, cfg.HelmBinary, logger)
	if err != nil {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitInputConfigurationError, Err: err}
	}

	runtime, err := newRuntime(logger)
	if err != nil {
		return &exitcodes.ExitCodeError{Code: exitcodes.ExitGeneralRuntimeError, Err: err}
	}
	defer func() {
		if cerr := runtime.Close(); cerr != nil {
			logger.Warn("failed to close container runtime client", "error", cerr)
		}
	}()

	projectDir, err := filepath.Abs(chartDir)
	if err != nil {
		return &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  fmt.Errorf("failed to resolve chart directory %s: %w", chartDir, err),
		}
	}

	driver := pipeline.NewDriver(pipeline.Deps{
		Renderer: renderer,
		Charts:   helm.NewChartInspector(AppFs),
		Puller:   scan.NewPuller(runtime, logger),
		Scanner:  scan.NewExecutor(runtime, logger, projectDir),
		Sink:     newReportSink(AppFs, cmd.OutOrStdout(), logger),
	}, logger)

	res, err := driver.Run(cmd.Context(), pipeline.RunConfig{
		ChartDir:       chartDir,
		Token:          cfg.Token,
		NoTest:         opts.noTest,
		JSON:           opts.json,
		OutputPath:     opts.output,
		Template:       opts.template,
		Debug:          opts.debug,
		ScannerImage:   cfg.ScannerImage,
		ScannerProgram: cfg.ScannerCommand,
	})
	if err != nil {
		return err
	}

	logger.Info("scan complete", "chart", res.Chart, "images", len(res.Outcomes))
	return nil
}
