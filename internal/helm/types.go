package helm

import "helm.sh/helm/v3/pkg/cli/values"

// DefaultReleaseName matches the release name `helm template` uses when none is given.
const DefaultReleaseName = "release-name"

// TemplateOptions are the value flags forwarded verbatim to the renderer.
type TemplateOptions struct {
	Values    []string // --values / -f
	Set       []string // --set
	SetString []string // --set-string
	SetFile   []string // --set-file
}

// Args renders the options as helm command line flags.
func (o TemplateOptions) Args() []string {
	var args []string
	for _, v := range o.Values {
		args = append(args, "--values", v)
	}
	for _, v := range o.Set {
		args = append(args, "--set", v)
	}
	for _, v := range o.SetString {
		args = append(args, "--set-string", v)
	}
	for _, v := range o.SetFile {
		args = append(args, "--set-file", v)
	}
	return args
}

// ValuesOptions converts the options for the Helm SDK.
func (o TemplateOptions) ValuesOptions() *values.Options {
	return &values.Options{
		ValueFiles:   o.Values,
		Values:       o.Set,
		StringValues: o.SetString,
		FileValues:   o.SetFile,
	}
}

// CommandResult represents the result of rendering a chart.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the render exited cleanly.
func (r *CommandResult) Success() bool {
	return r.ExitCode == 0
}
