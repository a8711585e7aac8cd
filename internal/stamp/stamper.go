// Package stamp places seal images on paginated documents.
//
// Two stampers share one capability, Stamper:
//
//   - ElectronicStamper puts a square corner stamp on every page.
//   - SealStamper slices the seal across the right edge of adjoining pages
//     so that the stacked paper shows one continuous straddle seal.
//
// Processor runs them for a Kind, handling Word conversion and the temp
// files between passes. Inserter places one arbitrary image on one page.
// All work is synchronous; a Config may be shared, a pdf.Document may not.
package stamp

import (
	"fmt"

	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/raster"
)

// Stamper applies a seal image to every applicable page of doc.
type Stamper interface {
	Apply(doc pdf.Document, sealPath string) error
}

// loadSeal decodes the seal at path and converts it to NRGBA.
func loadSeal(path string) (*raster.Image, error) {
	img, err := raster.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageProcessing, err)
	}
	return img.Alpha(), nil
}
