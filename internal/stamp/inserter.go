package stamp

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go-stamppdf/internal/pdf"
)

// Point is a position in millimetres from the top-left corner of a page.
type Point struct {
	XMm, YMm float64
}

// Size is an image size in millimetres. A zero HeightMm keeps the source
// aspect ratio.
type Size struct {
	WidthMm, HeightMm float64
}

func UniformSize(widthMm float64) *Size         { return &Size{WidthMm: widthMm} }
func ExactSize(widthMm, heightMm float64) *Size { return &Size{WidthMm: widthMm, HeightMm: heightMm} }

// Placement says where one image goes. Position and the margins are
// mutually exclusive; a missing margin keeps the image flush to the
// left or top edge. A nil Size uses the source pixel dimensions as units.
type Placement struct {
	Page           int // 0-based
	Position       *Point
	MarginRightMm  *float64
	MarginBottomMm *float64
	Size           *Size
}

func (p Placement) validate() error {
	if p.Position != nil && (p.MarginRightMm != nil || p.MarginBottomMm != nil) {
		return fmt.Errorf("%w: position and margins are mutually exclusive", ErrInvalidArgument)
	}
	if p.Size != nil && (!(p.Size.WidthMm > 0) || p.Size.HeightMm < 0) {
		return fmt.Errorf("%w: size must be positive", ErrInvalidArgument)
	}
	return nil
}

// Rect resolves p on a page of the given size for an image of imgW x imgH
// pixels.
func (p Placement) Rect(pageWidth, pageHeight float64, imgW, imgH int) pdf.Rect {
	var r pdf.Rect
	switch {
	case p.Size == nil:
		r.Width, r.Height = float64(imgW), float64(imgH)
	case p.Size.HeightMm == 0:
		r.Width = MmToUnits(p.Size.WidthMm)
		r.Height = float64(imgH) * r.Width / float64(imgW)
	default:
		r.Width = MmToUnits(p.Size.WidthMm)
		r.Height = MmToUnits(p.Size.HeightMm)
	}

	if p.Position != nil {
		r.X = MmToUnits(p.Position.XMm)
		r.Y = MmToUnits(p.Position.YMm)
		return r
	}
	if p.MarginRightMm != nil {
		r.X = pageWidth - r.Width - MmToUnits(*p.MarginRightMm)
	}
	if p.MarginBottomMm != nil {
		r.Y = pageHeight - r.Height - MmToUnits(*p.MarginBottomMm)
	}
	return r
}

// Inserter places a single image on a single page of a document.
type Inserter struct {
	opener pdf.Opener
	logger *slog.Logger
}

func NewInserter(opener pdf.Opener, logger *slog.Logger) *Inserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inserter{opener: opener, logger: logger}
}

// Insert writes a copy of the document at pdfPath to outputPath with the
// image at imagePath placed according to p.
func (ins *Inserter) Insert(pdfPath, imagePath, outputPath string, p Placement) error {
	for _, path := range []string{pdfPath, imagePath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
	}
	if outputPath == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidArgument)
	}
	if err := p.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrDocumentSave, err)
	}

	doc, err := ins.opener.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDocumentOpen, err)
	}
	defer doc.Close()

	if p.Page < 0 || p.Page >= doc.PageCount() {
		return fmt.Errorf("%w: page %d out of range, document has %d pages", ErrInvalidArgument, p.Page, doc.PageCount())
	}
	page, err := doc.Page(p.Page)
	if err != nil {
		return err
	}

	img, err := loadSeal(imagePath)
	if err != nil {
		return err
	}
	data, err := img.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageProcessing, err)
	}
	w, h := page.Size()
	r := p.Rect(w, h, img.Width(), img.Height())
	if err := page.InsertImage(r, data); err != nil {
		return fmt.Errorf("%w: %w", ErrImageProcessing, err)
	}
	if err := doc.Save(outputPath); err != nil {
		return fmt.Errorf("%w: %w", ErrDocumentSave, err)
	}

	ins.logger.Info("image inserted", "input", pdfPath, "output", outputPath, "page", p.Page+1, "rect", r.String())
	return nil
}
