package stamp

import (
	"fmt"

	"go-stamppdf/internal/pdf"
)

// ElectronicStamper places the seal as a square in the bottom-right corner
// of each page, inset by the configured margins.
type ElectronicStamper struct {
	cfg Config
}

func NewElectronicStamper(cfg Config) *ElectronicStamper {
	return &ElectronicStamper{cfg: cfg}
}

// Apply stamps every page of doc, not only the last one.
// TODO: add a page selector once callers can name the signature page.
func (s *ElectronicStamper) Apply(doc pdf.Document, sealPath string) error {
	seal, err := loadSeal(sealPath)
	if err != nil {
		return err
	}
	data, err := seal.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageProcessing, err)
	}

	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.Page(i)
		if err != nil {
			return err
		}
		w, h := page.Size()
		if err := page.InsertImage(s.Rect(w, h), data); err != nil {
			return fmt.Errorf("stamp page %d: %w", i+1, err)
		}
	}
	return nil
}

// Rect returns the stamp rectangle on a page of the given size.
func (s *ElectronicStamper) Rect(pageWidth, pageHeight float64) pdf.Rect {
	size := MmToUnits(s.cfg.StampSizeMm())
	return pdf.Rect{
		X:      pageWidth - MmToUnits(s.cfg.MarginRightMm()) - size,
		Y:      pageHeight - MmToUnits(s.cfg.MarginBottomMm()) - size,
		Width:  size,
		Height: size,
	}
}
