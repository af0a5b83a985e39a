package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lucas-albers-lz4/helm-snyk/internal/docker"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/image"
)

const (
	// DefaultScannerImage is the image the scanner runs in.
	DefaultScannerImage = "snyk/snyk-cli:docker"
	// DefaultProgram is the scanner program invoked inside the scanner image.
	DefaultProgram = "snyk"
	// TokenEnvVar carries the scan authentication token into the container.
	TokenEnvVar = "SNYK_TOKEN"
	// ProjectMountPath is where the chart directory is mounted read-only.
	ProjectMountPath = "/project"

	// failedProcessBanner is printed by the scanner image's entrypoint when
	// the scanner exits non-zero.
	failedProcessBanner = "Failed to run the process ..."
)

// Exit statuses of the scanner program.
const (
	StatusClean           int64 = 0
	StatusVulnerabilities int64 = 1
)

// CommandOptions controls how the scan command is assembled.
type CommandOptions struct {
	JSON  bool
	Debug bool
	// Program names the scanner binary. When empty, DefaultProgram is
	// assumed and supplied by the scanner image's entrypoint.
	Program string
}

// Command is an assembled scanner invocation.
type Command struct {
	Program string
	Args    []string

	// explicit is set when the program must be part of the container command
	// because the image entrypoint does not supply it.
	explicit bool
}

// String renders the full command line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// ContainerCmd is the command handed to the scanner container: a single
// argument holding the command line, without the program name unless it was
// set explicitly.
func (c Command) ContainerCmd() []string {
	if c.explicit {
		return []string{c.String()}
	}
	return []string{strings.Join(c.Args, " ")}
}

// AssembleCommand builds "<program> test --docker <target> [--json]".
func AssembleCommand(target image.Ref, opts CommandOptions) Command {
	cmd := Command{
		Program:  opts.Program,
		Args:     []string{"test", "--docker", target.String()},
		explicit: opts.Program != "",
	}
	if cmd.Program == "" {
		cmd.Program = DefaultProgram
	}
	if opts.JSON {
		cmd.Args = append(cmd.Args, "--json")
	}
	return cmd
}

// Executor runs the scanner container against one image at a time.
type Executor struct {
	runtime Runtime
	logger  *slog.Logger
	// ProjectDir is bound read-only at ProjectMountPath when set.
	ProjectDir string
}

// NewExecutor creates an Executor backed by runtime.
func NewExecutor(runtime Runtime, logger *slog.Logger, projectDir string) *Executor {
	return &Executor{runtime: runtime, logger: logger, ProjectDir: projectDir}
}

// Run scans target inside scannerImage and returns the scanner's stdout.
//
// Exit status 0 (no issues) and 1 (vulnerabilities found) are both
// successful scans. Any other status, or a failure to run the container,
// is returned as *ScanError carrying the captured stderr.
func (e *Executor) Run(ctx context.Context, token string, scannerImage, target image.Ref, opts CommandOptions) (string, error) {
	cmd := AssembleCommand(target, opts)
	if opts.Debug {
		e.logger.Debug("running scan",
			"command", cmd.String(),
			"scannerImage", scannerImage.String(),
			"json", opts.JSON,
			"projectDir", e.ProjectDir)
	}

	spec := docker.ContainerSpec{
		Image: scannerImage.String(),
		Cmd:   cmd.ContainerCmd(),
		Env:   []string{TokenEnvVar + "=" + token, "MONITOR=false"},
		Binds: e.binds(),
	}

	res, err := e.runtime.Run(ctx, spec)
	if err != nil {
		return "", &ScanError{Image: target.String(), StatusCode: -1, Err: err}
	}

	stdout := string(res.Stdout)
	switch res.StatusCode {
	case StatusClean:
		return stdout, nil
	case StatusVulnerabilities:
		e.logger.Debug("scanner reported vulnerabilities", "image", target.String())
		return strings.Replace(stdout, failedProcessBanner, "", 1), nil
	default:
		return "", &ScanError{
			Image:      target.String(),
			StatusCode: res.StatusCode,
			Stderr:     strings.TrimSpace(string(res.Stderr)),
		}
	}
}

func (e *Executor) binds() []string {
	binds := []string{fmt.Sprintf("%s:%s", docker.SocketPath, docker.SocketPath)}
	if e.ProjectDir != "" {
		binds = append(binds, fmt.Sprintf("%s:%s:ro", e.ProjectDir, ProjectMountPath))
	}
	return binds
}
