package helm

import "errors"

var (
	// ErrHelmNotStarted indicates the helm binary could not be executed at all.
	ErrHelmNotStarted = errors.New("helm command could not be started")
	// ErrNotChartDirectory indicates the chart path is missing or not a directory.
	ErrNotChartDirectory = errors.New("not a chart directory")
	// ErrChartDescriptorMissing indicates the chart directory has no Chart.yaml.
	ErrChartDescriptorMissing = errors.New("chart descriptor not found")
	// ErrInvalidChartDescriptor indicates Chart.yaml could not be parsed or validated.
	ErrInvalidChartDescriptor = errors.New("invalid chart descriptor")
)
