package image

import (
	"fmt"

	"github.com/distribution/reference"
)

const (
	// DefaultTag is the tag the runtime assumes when none is given
	DefaultTag = "latest"
	// DefaultRegistry is the registry the runtime assumes when none is given
	DefaultRegistry = "docker.io"
)

// Components holds the parts of a reference after Docker-style normalization.
type Components struct {
	Registry   string
	Repository string
	Tag        string
}

// Parse splits ref into its normalized registry, repository and tag.
// For single-name images like "nginx" the registry is docker.io, the
// repository gains the "library/" prefix and the tag defaults to "latest".
func Parse(ref Ref) (Components, error) {
	named, err := reference.ParseNormalizedNamed(ref.String())
	if err != nil {
		return Components{}, fmt.Errorf("%w: %w", ErrInvalidImageReference, err)
	}

	c := Components{
		Registry:   reference.Domain(named),
		Repository: reference.Path(named),
		Tag:        DefaultTag,
	}
	if tagged, ok := named.(reference.Tagged); ok {
		c.Tag = tagged.Tag()
	}
	return c, nil
}

// Normalize returns the fully qualified form of ref that is handed to the
// container runtime, e.g. "docker.io/library/nginx:latest". When the
// reference cannot be normalized the original string is returned with the error.
func Normalize(ref Ref) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref.String())
	if err != nil {
		return ref.String(), fmt.Errorf("%w: %w", ErrInvalidImageReference, err)
	}
	return reference.TagNameOnly(named).String(), nil
}
