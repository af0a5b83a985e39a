package main

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucas-albers-lz4/helm-snyk/internal/docker"
	"github.com/lucas-albers-lz4/helm-snyk/internal/helm"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/exitcodes"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/scan"
)

func TestRootCmdNoTestJSON(t *testing.T) {
	env := setupTestEnv(t)

	stdout, stderr, code := executeCommand(testChartDir, "--notest", "--json")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)

	want := `[
  {
    "image": "nginx:1.25",
    "result": {}
  },
  {
    "image": "registry.example.com/team/proxy:v2",
    "result": {}
  }
]
`
	assert.Equal(t, want, stdout)
	assert.Empty(t, env.runtime.pulled, "nothing is pulled with --notest")
	assert.True(t, env.runtime.closed)
}

func TestRootCmdScansAndWritesTextFile(t *testing.T) {
	env := setupTestEnv(t)

	stdout, stderr, code := executeCommand(testChartDir, "-o", "/out/report.txt")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)
	assert.Empty(t, stdout)

	data, err := afero.ReadFile(env.fs, "/out/report.txt")
	require.NoError(t, err)
	assert.Equal(t,
		"Image: nginx:1.25\n{\"ok\":true}\nImage: registry.example.com/team/proxy:v2\n{\"ok\":true}\n",
		string(data))

	assert.Equal(t, []string{
		"docker.io/snyk/snyk-cli:docker",
		"docker.io/library/nginx:1.25",
		"registry.example.com/team/proxy:v2",
	}, env.runtime.pulled)

	require.Len(t, env.runtime.specs, 2)
	spec := env.runtime.specs[0]
	assert.Equal(t, scan.DefaultScannerImage, spec.Image)
	assert.Equal(t, []string{"test --docker nginx:1.25"}, spec.Cmd)
	assert.Contains(t, spec.Env, "SNYK_TOKEN=test-token")
	assert.Contains(t, spec.Env, "MONITOR=false")
	assert.Contains(t, spec.Binds, docker.SocketPath+":"+docker.SocketPath)
	assert.Contains(t, spec.Binds, testChartDir+":"+scan.ProjectMountPath+":ro")
}

func TestRootCmdForwardsTemplateFlags(t *testing.T) {
	env := setupTestEnv(t)

	_, stderr, code := executeCommand(testChartDir, "--notest",
		"-f", "a.yaml", "--values", "b.yaml",
		"--set", "image.tag=2", "--set-string", "port=80", "--set-file", "cfg=app.conf")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)

	assert.Equal(t, testChartDir, env.renderer.chartDir)
	assert.Equal(t, helm.TemplateOptions{
		Values:    []string{"a.yaml", "b.yaml"},
		Set:       []string{"image.tag=2"},
		SetString: []string{"port=80"},
		SetFile:   []string{"cfg=app.conf"},
	}, env.renderer.opts)
	assert.Equal(t, rendererCLI, env.rendererKind)
	assert.Equal(t, helm.DefaultBinary, env.rendererBinary)
}

func TestRootCmdDefaultsToCurrentDirectory(t *testing.T) {
	env := setupTestEnv(t)
	// The in-memory filesystem has no Chart.yaml at ".".
	_, stderr, code := executeCommand("--notest")
	assert.Equal(t, exitcodes.ExitInputConfigurationError, code, stderr)
	assert.Contains(t, stderr, "Error: ")
	assert.Empty(t, env.renderer.chartDir, "renderer is not called for an invalid directory")
}

func TestRootCmdConfigurationErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		env         map[string]string
		wantStderr  string
		wantRuntime bool
	}{
		{
			name:       "missing token",
			args:       []string{testChartDir},
			env:        map[string]string{"SNYK_TOKEN": ""},
			wantStderr: "SNYK_TOKEN",
		},
		{
			name:       "too many arguments",
			args:       []string{testChartDir, "other"},
			wantStderr: "accepts at most 1 arg(s)",
		},
		{
			name:       "unknown flag",
			args:       []string{testChartDir, "--bogus"},
			wantStderr: "unknown flag: --bogus",
		},
		{
			name:       "unknown renderer",
			args:       []string{testChartDir, "--renderer", "kustomize"},
			wantStderr: "unknown renderer",
		},
		{
			name:       "missing chart directory",
			args:       []string{"/charts/missing"},
			wantStderr: "not a chart directory",
		},
		{
			name:       "missing config file",
			args:       []string{testChartDir, "--config", "/etc/helm-snyk.yaml"},
			wantStderr: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			stdout, stderr, code := executeCommand(tt.args...)
			assert.Equal(t, exitcodes.ExitInputConfigurationError, code)
			assert.Contains(t, stderr, "Error: ")
			assert.Contains(t, stderr, tt.wantStderr)
			assert.NotContains(t, stderr, "exit code 2", "the exit code wrapper is not shown")
			assert.Empty(t, stdout)
			assert.Empty(t, env.runtime.pulled)
		})
	}
}

func TestRootCmdRuntimeUnavailable(t *testing.T) {
	setupTestEnv(t)
	newRuntime = func(*slog.Logger) (containerRuntime, error) {
		return nil, errors.New("cannot connect to the Docker daemon")
	}

	_, stderr, code := executeCommand(testChartDir)
	assert.Equal(t, exitcodes.ExitGeneralRuntimeError, code)
	assert.Contains(t, stderr, "cannot connect to the Docker daemon")
}

func TestRootCmdOutputWriteFailure(t *testing.T) {
	env := setupTestEnv(t)
	SetFs(afero.NewReadOnlyFs(env.fs))

	_, stderr, code := executeCommand(testChartDir, "--notest", "-o", "/out/report.json")
	assert.Equal(t, exitcodes.ExitIOError, code)
	assert.Contains(t, stderr, "failed to write report")
}

func TestRootCmdConfigFileOverridesScanner(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, testHome+"/.helm-snyk.yaml", []byte(`
scanner-image: registry.example.com/tools/snyk:1.0
renderer: sdk
helm-binary: /opt/helm/bin/helm
`), 0o644))

	_, stderr, code := executeCommand(testChartDir, "--json")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)

	require.NotEmpty(t, env.runtime.pulled)
	assert.Equal(t, "registry.example.com/tools/snyk:1.0", env.runtime.pulled[0])
	assert.Equal(t, "registry.example.com/tools/snyk:1.0", env.runtime.specs[0].Image)
	assert.Equal(t, []string{"test --docker nginx:1.25 --json"}, env.runtime.specs[0].Cmd)
	assert.Equal(t, rendererSDK, env.rendererKind)
	assert.Equal(t, "/opt/helm/bin/helm", env.rendererBinary)
}

func TestRootCmdDebugLogging(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := executeCommand(testChartDir, "--notest", "-d", "--log-format", "json")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)
	assert.Contains(t, stderr, `"msg":"pipeline state"`)
	assert.Contains(t, stderr, `"msg":"scan complete"`)

	_, stderr, code = executeCommand(testChartDir, "--notest")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)
	assert.Empty(t, stderr, "only warnings and errors are shown by default")
}

func TestRootCmdInvalidLogLevelWarns(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := executeCommand(testChartDir, "--notest", "--log-level", "loud", "--log-format", "json")
	require.Equal(t, exitcodes.ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "invalid log level")
}

func TestRootCmdHelp(t *testing.T) {
	stdout, _, code := executeCommand("--help")
	assert.Equal(t, exitcodes.ExitSuccess, code)
	assert.Contains(t, stdout, "helm-snyk [chart-directory]")
	assert.Contains(t, stdout, "--notest")
	assert.Contains(t, stdout, "--set-file")
}
