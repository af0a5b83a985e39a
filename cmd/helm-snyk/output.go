package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/lucas-albers-lz4/helm-snyk/pkg/fileutil"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/report"
)

// reportSink writes the final report to a file or to standard output.
type reportSink struct {
	fs     afero.Fs
	stdout io.Writer
	logger *slog.Logger
}

func newReportSink(fs afero.Fs, stdout io.Writer, logger *slog.Logger) *reportSink {
	return &reportSink{fs: fs, stdout: stdout, logger: logger}
}

// Write renders rep and writes it to dest, or to stdout when dest is empty.
// Files are replaced atomically.
func (s *reportSink) Write(_ context.Context, rep *report.Report, dest string) error {
	data, err := renderReport(rep)
	if err != nil {
		return err
	}

	if dest == "" {
		if _, err := s.stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write report to stdout: %w", err)
		}
		return nil
	}

	s.logger.Info("writing output", "path", dest)
	if err := fileutil.WriteFileAtomic(s.fs, dest, data, fileutil.ReadWriteUserReadOthers); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", dest, err)
	}
	return nil
}

// renderReport encodes JSON reports with a two-space indent; text reports are
// written as aggregated.
func renderReport(rep *report.Report) ([]byte, error) {
	if !rep.JSON {
		return []byte(rep.Text), nil
	}
	data, err := json.MarshalIndent(rep.Entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}
