// Package version checks the installed Helm client against the minimum
// version the CLI renderer supports.
package version

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// MinHelmVersion is the minimum supported Helm version
	MinHelmVersion = "3.0.0"
)

// ErrUnsupportedHelmVersion is returned when the installed Helm is older than MinHelmVersion.
var ErrUnsupportedHelmVersion = errors.New("unsupported helm version")

// Variable for exec.CommandContext to support mocking in tests
var execCommand = exec.CommandContext

// parseHelmVersionString parses the output of `helm version --short`
// (e.g. "v3.14.2+g0e1f115") into a semantic version.
func parseHelmVersionString(versionStr string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(versionStr))
	if err != nil {
		return nil, fmt.Errorf("cannot parse helm version %q: %w", strings.TrimSpace(versionStr), err)
	}
	return v, nil
}

// CheckHelmVersion runs `<binary> version --short` and returns the installed
// version. The error wraps ErrUnsupportedHelmVersion when that version is
// older than MinHelmVersion.
func CheckHelmVersion(ctx context.Context, binary string) (string, error) {
	cmd := execCommand(ctx, binary, "version", "--short")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get Helm version: %w", err)
	}

	v, err := parseHelmVersionString(string(output))
	if err != nil {
		return "", err
	}

	ok, err := isVersionGreaterOrEqual(v, MinHelmVersion)
	if err != nil {
		return v.String(), err
	}
	if !ok {
		return v.String(), fmt.Errorf("%w: helm %s is older than %s", ErrUnsupportedHelmVersion, v, MinHelmVersion)
	}
	return v.String(), nil
}

// isVersionGreaterOrEqual reports whether v satisfies ">= minimum".
// Build metadata is ignored.
func isVersionGreaterOrEqual(v *semver.Version, minimum string) (bool, error) {
	c, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", minimum, err)
	}
	return c.Check(v), nil
}
