package helm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	"sigs.k8s.io/yaml"
)

// ChartInspector reads chart descriptors through an afero filesystem.
type ChartInspector struct {
	fs afero.Fs
}

// NewChartInspector creates a ChartInspector over fs.
func NewChartInspector(fs afero.Fs) *ChartInspector {
	return &ChartInspector{fs: fs}
}

// Inspect checks that dir is a directory holding a valid Chart.yaml and
// returns its metadata.
func (i *ChartInspector) Inspect(dir string) (*chart.Metadata, error) {
	info, err := i.fs.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrNotChartDirectory, "%s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNotChartDirectory, "%s is a file", dir)
	}

	descriptor := filepath.Join(dir, chartutil.ChartfileName)
	data, err := afero.ReadFile(i.fs, descriptor)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrChartDescriptorMissing, "%s", descriptor)
		}
		return nil, errors.Wrapf(err, "failed to read %s", descriptor)
	}

	md := new(chart.Metadata)
	if err := yaml.Unmarshal(data, md); err != nil {
		return nil, errors.Wrapf(ErrInvalidChartDescriptor, "%s: %v", descriptor, err)
	}
	// Helm treats a descriptor without apiVersion as a v1 chart.
	if md.APIVersion == "" {
		md.APIVersion = chart.APIVersionV1
	}
	if err := md.Validate(); err != nil {
		return nil, errors.Wrapf(ErrInvalidChartDescriptor, "%s: %v", descriptor, err)
	}
	return md, nil
}

// Label returns the chart's display label "name@version".
func (i *ChartInspector) Label(dir string) (string, error) {
	md, err := i.Inspect(dir)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s@%s", md.Name, md.Version), nil
}
