// Package docker wraps the Docker Engine API client with the two operations
// the scanner needs: pulling an image and running a container to completion
// while capturing its output.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// SocketPath is the host path of the Docker Engine socket.
const SocketPath = "/var/run/docker.sock"

// EngineAPI is the subset of the Docker Engine client used by Client.
// *client.Client satisfies it.
type EngineAPI interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// ContainerSpec describes a one-shot container run.
type ContainerSpec struct {
	Image string
	Cmd   []string
	Env   []string
	// Binds are host:container[:mode] volume bindings.
	Binds []string
}

// ContainerResult holds the captured output streams and exit status of a run.
type ContainerResult struct {
	StatusCode int64
	Stdout     []byte
	Stderr     []byte
}

// Client runs pulls and containers against a Docker Engine.
type Client struct {
	api    EngineAPI
	logger *slog.Logger
}

// NewFromEnv connects to the engine configured by the standard DOCKER_HOST,
// DOCKER_API_VERSION, DOCKER_CERT_PATH and DOCKER_TLS_VERIFY variables and
// negotiates the API version.
func NewFromEnv(logger *slog.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return NewClient(cli, logger)
}

// NewClient wraps an existing Engine API implementation.
func NewClient(api EngineAPI, logger *slog.Logger) (*Client, error) {
	if api == nil {
		return nil, ErrNilClient
	}
	return &Client{api: api, logger: logger}, nil
}

// Close releases the underlying engine connection.
func (c *Client) Close() error {
	return c.api.Close()
}

// Pull starts pulling ref and returns the progress stream. The caller must
// drain and close it; the pull is complete when the stream ends.
func (c *Client) Pull(ctx context.Context, ref string) (io.ReadCloser, error) {
	c.logger.Debug("pulling image", "image", ref)
	rc, err := c.api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", ref, err)
	}
	return rc, nil
}

// Run creates a container from spec, starts it, waits for it to exit and
// returns its demultiplexed stdout and stderr. The container is always
// removed afterwards. A non-zero exit status is not an error; it is reported
// in ContainerResult.StatusCode.
func (c *Client) Run(ctx context.Context, spec ContainerSpec) (*ContainerResult, error) {
	created, err := c.api.ContainerCreate(ctx,
		&container.Config{
			Image:        spec.Image,
			Cmd:          spec.Cmd,
			Env:          spec.Env,
			AttachStdout: true,
			AttachStderr: true,
		},
		&container.HostConfig{Binds: spec.Binds},
		nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create container from %s: %w", spec.Image, err)
	}
	for _, w := range created.Warnings {
		c.logger.Warn("container create warning", "image", spec.Image, "warning", w)
	}
	defer c.remove(ctx, created.ID)

	// Register the wait before starting so a fast exit is not missed.
	waitCh, errCh := c.api.ContainerWait(ctx, created.ID, container.WaitConditionNextExit)

	if err := c.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container %s: %w", created.ID, err)
	}
	c.logger.Debug("container started", "id", created.ID, "image", spec.Image)

	var status int64
	select {
	case resp := <-waitCh:
		if resp.Error != nil && resp.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrContainerExit, resp.Error.Message)
		}
		status = resp.StatusCode
	case err := <-errCh:
		return nil, fmt.Errorf("wait for container %s: %w", created.ID, err)
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for container %s: %w", created.ID, ctx.Err())
	}

	logs, err := c.api.ContainerLogs(ctx, created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("read logs of container %s: %w", created.ID, err)
	}
	defer func() {
		if closeErr := logs.Close(); closeErr != nil {
			c.logger.Debug("failed to close log stream", "id", created.ID, "error", closeErr)
		}
	}()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("demultiplex logs of container %s: %w", created.ID, err)
	}

	c.logger.Debug("container exited", "id", created.ID, "status", status)
	return &ContainerResult{
		StatusCode: status,
		Stdout:     stdout.Bytes(),
		Stderr:     stderr.Bytes(),
	}, nil
}

func (c *Client) remove(ctx context.Context, id string) {
	// Removal still runs when the run itself was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := c.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		c.logger.Warn("failed to remove container", "id", id, "error", err)
	}
}
