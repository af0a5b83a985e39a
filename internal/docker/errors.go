package docker

import "errors"

var (
	// ErrContainerExit is returned when the runtime reports an error while
	// waiting for a container to exit.
	ErrContainerExit = errors.New("container exited with an error")
	// ErrNilClient is returned when a Client is built without an Engine API.
	ErrNilClient = errors.New("docker engine client is nil")
)
