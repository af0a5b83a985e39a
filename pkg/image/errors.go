package image

import "errors"

// Sentinel errors related to image reference handling.
var (
	ErrEmptyImageReference   = errors.New("image reference is empty")
	ErrInvalidImageReference = errors.New("invalid image reference")
	ErrWhitespaceInReference = errors.New("image reference contains whitespace")
)
