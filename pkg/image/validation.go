package image

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxTagLength is the maximum length of a tag
	MaxTagLength = 128
	// MaxHostLabelLength is the maximum length of a single DNS label in a registry host
	MaxHostLabelLength = 63

	hostLabel = `[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`
)

var (
	registryRegex  = regexp.MustCompile(`^` + hostLabel + `(?:\.` + hostLabel + `)*(?::[0-9]{1,5})?$`)
	componentRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?$`)
	tagRegex       = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{0,127}$`)
)

// IsValidReference reports whether candidate is a syntactically valid image
// reference of the form [registry/]repository[:tag].
//
// A first path component that is hostname-like, with an optional port, is read
// as a registry. When the rest does not validate on that reading, the whole
// candidate is checked as a repository path instead. Digests are not
// accepted. Any whitespace makes the candidate invalid.
func IsValidReference(candidate string) bool {
	return validateReference(candidate) == nil
}

func validateReference(candidate string) error {
	if candidate == "" {
		return ErrEmptyImageReference
	}
	if strings.IndexFunc(candidate, unicode.IsSpace) >= 0 {
		return ErrWhitespaceInReference
	}

	if _, remainder, ok := splitRegistry(candidate); ok && validatePath(remainder) == nil {
		return nil
	}
	return validatePath(candidate)
}

// splitRegistry separates a leading hostname-like component from the rest of
// the reference. ok is false when there is no such component.
func splitRegistry(candidate string) (registry, remainder string, ok bool) {
	first, rest, found := strings.Cut(candidate, "/")
	if !found || !registryRegex.MatchString(first) {
		return "", candidate, false
	}
	return first, rest, true
}

// validatePath checks repository[:tag].
func validatePath(remainder string) error {
	repository, tag, hasTag := splitTag(remainder)
	if !isValidRepository(repository) {
		return ErrInvalidImageReference
	}
	if hasTag && !isValidTag(tag) {
		return ErrInvalidImageReference
	}
	return nil
}

// splitTag cuts the tag off the last path component. Only a colon after the
// final slash is a tag separator.
func splitTag(remainder string) (repository, tag string, hasTag bool) {
	idx := strings.LastIndex(remainder, ":")
	if idx < 0 || strings.Contains(remainder[idx+1:], "/") {
		return remainder, "", false
	}
	return remainder[:idx], remainder[idx+1:], true
}

// isValidRepository checks every slash-separated component of a repository path.
func isValidRepository(repo string) bool {
	if repo == "" {
		return false
	}
	for _, component := range strings.Split(repo, "/") {
		if !componentRegex.MatchString(component) {
			return false
		}
	}
	return true
}

// isValidTag checks if a tag string is valid
func isValidTag(tag string) bool {
	return len(tag) <= MaxTagLength && tagRegex.MatchString(tag)
}
