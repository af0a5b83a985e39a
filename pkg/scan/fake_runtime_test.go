package scan

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/lucas-albers-lz4/helm-snyk/internal/docker"
)

var errReadFailed = errors.New("connection reset")

// failingReader returns its payload and then an error.
type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, f.err
	}
	return n, err
}

func (f *failingReader) Close() error { return nil }

type fakeRuntime struct {
	pullBody    string
	pullErr     error
	pullReadErr error
	pulled      []string

	runResult *docker.ContainerResult
	runErr    error
	specs     []docker.ContainerSpec
}

func (f *fakeRuntime) Pull(_ context.Context, ref string) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, ref)
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if f.pullReadErr != nil {
		return &failingReader{r: strings.NewReader(f.pullBody), err: f.pullReadErr}, nil
	}
	return io.NopCloser(strings.NewReader(f.pullBody)), nil
}

func (f *fakeRuntime) Run(_ context.Context, spec docker.ContainerSpec) (*docker.ContainerResult, error) {
	f.specs = append(f.specs, spec)
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.runResult, nil
}
