// Package report defines the per-image scan outcomes and folds them into the
// final report, either as a text block or as an ordered list of entries.
package report

import "github.com/lucas-albers-lz4/helm-snyk/pkg/image"

// Outcome is the result of processing one image. It is implemented only by
// Scanned, Skipped and Failed.
type Outcome interface {
	Ref() image.Ref
	isOutcome()
}

// Scanned is an image the scanner ran against. Output is the scanner's raw
// stdout, which may report vulnerabilities.
type Scanned struct {
	Image  image.Ref
	Output string
}

// Skipped is an image that was discovered but not scanned because testing
// was disabled.
type Skipped struct {
	Image image.Ref
}

// Failed is an image whose pull or scan could not complete.
type Failed struct {
	Image image.Ref
	Err   error
}

func (o Scanned) Ref() image.Ref { return o.Image }
func (o Skipped) Ref() image.Ref { return o.Image }
func (o Failed) Ref() image.Ref  { return o.Image }

func (Scanned) isOutcome() {}
func (Skipped) isOutcome() {}
func (Failed) isOutcome()  {}
