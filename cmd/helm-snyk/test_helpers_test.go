package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/lucas-albers-lz4/helm-snyk/internal/docker"
	"github.com/lucas-albers-lz4/helm-snyk/internal/helm"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/pipeline"
)

const (
	testChartDir = "/charts/web"
	testHome     = "/home/tester"
	testManifest = `---
# Source: web/templates/deployment.yaml
apiVersion: apps/v1
kind: Deployment
spec:
  template:
    spec:
      containers:
        - name: web
          image: "nginx:1.25"
        - name: sidecar
          image: registry.example.com/team/proxy:v2
`
)

type fakeRuntime struct {
	pulled []string
	specs  []docker.ContainerSpec
	result *docker.ContainerResult
	closed bool
}

func (f *fakeRuntime) Pull(_ context.Context, ref string) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, ref)
	return io.NopCloser(strings.NewReader(`{"status":"Pull complete"}` + "\n")), nil
}

func (f *fakeRuntime) Run(_ context.Context, spec docker.ContainerSpec) (*docker.ContainerResult, error) {
	f.specs = append(f.specs, spec)
	return f.result, nil
}

func (f *fakeRuntime) Close() error {
	f.closed = true
	return nil
}

type fakeRenderer struct {
	manifest string
	chartDir string
	opts     helm.TemplateOptions
}

func (f *fakeRenderer) Render(_ context.Context, chartDir string, opts helm.TemplateOptions) (*helm.CommandResult, error) {
	f.chartDir = chartDir
	f.opts = opts
	return &helm.CommandResult{Stdout: f.manifest}, nil
}

// testEnv replaces the filesystem, renderer and runtime factories for one test.
type testEnv struct {
	fs       afero.Fs
	runtime  *fakeRuntime
	renderer *fakeRenderer

	rendererKind   string
	rendererBinary string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		fs:       afero.NewMemMapFs(),
		runtime:  &fakeRuntime{result: &docker.ContainerResult{Stdout: []byte(`{"ok":true}`)}},
		renderer: &fakeRenderer{manifest: testManifest},
	}
	t.Cleanup(SetFs(env.fs))

	require.NoError(t, env.fs.MkdirAll(testChartDir+"/templates", 0o755))
	require.NoError(t, afero.WriteFile(env.fs, testChartDir+"/Chart.yaml",
		[]byte("apiVersion: v2\nname: web\nversion: 1.0.0\n"), 0o644))
	require.NoError(t, env.fs.MkdirAll(testHome, 0o755))

	t.Setenv("HOME", testHome)
	t.Setenv("SNYK_TOKEN", "test-token")
	for _, name := range []string{
		"HELM_SNYK_TOKEN", "HELM_SNYK_SCANNER_IMAGE", "HELM_SNYK_SCANNER_COMMAND",
		"HELM_SNYK_RENDERER", "HELM_SNYK_HELM_BINARY", "HELM_SNYK_LOG_LEVEL",
		"HELM_SNYK_LOG_FORMAT", "HELM_BIN", "LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}

	origRuntime, origRenderer := newRuntime, newRenderer
	newRuntime = func(*slog.Logger) (containerRuntime, error) {
		return env.runtime, nil
	}
	newRenderer = func(kind, binary string, _ *slog.Logger) (pipeline.Renderer, error) {
		env.rendererKind = kind
		env.rendererBinary = binary
		if _, err := origRenderer(kind, binary, nil); err != nil {
			return nil, err
		}
		return env.renderer, nil
	}
	t.Cleanup(func() {
		newRuntime = origRuntime
		newRenderer = origRenderer
	})

	return env
}

// executeCommand runs the CLI with args and returns stdout, stderr and the
// exit code.
func executeCommand(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}
