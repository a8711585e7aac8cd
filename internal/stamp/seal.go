package stamp

import (
	"fmt"
	"image"
	"math"

	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/raster"
)

// Working raster is this many pixels per page-space unit of seal size.
const sealOversample = 2

var (
	sealVerticalSpacing = MmToUnits(10)
	sealTopMargin       = MmToUnits(20)
)

// SealGroup is a run of pages [Start, End) carrying one straddle seal.
type SealGroup struct {
	Start int
	End   int
	Pages int
}

// SealGroups partitions totalPages into groups of pagesPerSeal pages where
// neighbouring groups share their boundary page. pagesPerSeal outside
// (1, totalPages] means a single group spanning the whole document.
func SealGroups(totalPages, pagesPerSeal int) []SealGroup {
	if totalPages < 1 {
		return nil
	}
	p := pagesPerSeal
	if p <= 1 || p > totalPages {
		p = totalPages
	}
	count := 1
	if p > 1 {
		count = (totalPages - 1 + p - 2) / (p - 1)
	}

	groups := make([]SealGroup, count)
	for g := range groups {
		start := g * (p - 1)
		end := min(start+p, totalPages)
		n := end - start
		if g == count-1 {
			n = totalPages - start
		}
		groups[g] = SealGroup{Start: start, End: end, Pages: n}
	}
	return groups
}

// SealStamper slices the seal across the right edge of adjoining pages.
type SealStamper struct {
	cfg Config
}

func NewSealStamper(cfg Config) *SealStamper {
	return &SealStamper{cfg: cfg}
}

// Apply is a no-op for documents with fewer than two pages.
func (s *SealStamper) Apply(doc pdf.Document, sealPath string) error {
	total := doc.PageCount()
	if total < 2 {
		return nil
	}
	first, err := doc.Page(0)
	if err != nil {
		return err
	}
	_, firstHeight := first.Size()

	pps, _ := s.cfg.PagesPerSeal()
	groups := SealGroups(total, pps)

	size := MmToUnits(s.cfg.StampSizeMm())
	seal, err := loadSeal(sealPath)
	if err != nil {
		return err
	}
	side := int(size * sealOversample)
	seal, err = seal.Resize(side, side)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageProcessing, err)
	}

	for g, group := range groups {
		slices, err := sliceSeal(seal, group.Pages)
		if err != nil {
			return err
		}
		// truncated on purpose: narrower groups give a wider total seal
		sliceWidth := math.Floor(size / float64(group.Pages))

		for idx := 0; idx < s.cfg.SealCount(); idx++ {
			y := s.SealY(g, idx, firstHeight)
			for i := group.Start; i < group.End; i++ {
				page, err := doc.Page(i)
				if err != nil {
					return err
				}
				w, _ := page.Size()
				r := pdf.Rect{
					X:      w - sliceWidth,
					Y:      y - size/2,
					Width:  sliceWidth,
					Height: size,
				}
				if err := page.InsertImage(r, slices[i-group.Start]); err != nil {
					return fmt.Errorf("seal page %d: %w", i+1, err)
				}
			}
		}
	}
	return nil
}

// SealY returns the vertical centre of seal idx in group g. Positions that
// would run past the bottom of the page wrap back below the top margin.
func (s *SealStamper) SealY(g, idx int, pageHeight float64) float64 {
	size := MmToUnits(s.cfg.StampSizeMm())
	y := size*1.5*float64(idx+1) + float64(g)*(size+sealVerticalSpacing)
	if y+size <= pageHeight {
		return y
	}
	travel := pageHeight - size - sealTopMargin
	if travel <= 0 {
		return sealTopMargin
	}
	cycles := math.Floor(y / travel)
	return sealTopMargin + (y - cycles*travel)
}

// sliceSeal cuts seal into n vertical strips of equal width and encodes
// each as PNG.
func sliceSeal(seal *raster.Image, n int) ([][]byte, error) {
	w, h := seal.Width(), seal.Height()
	out := make([][]byte, n)
	for i := range out {
		r := image.Rect(i*w/n, 0, (i+1)*w/n, h)
		strip, err := seal.Crop(r)
		if err != nil {
			return nil, fmt.Errorf("%w: slice %d/%d: %w", ErrImageProcessing, i+1, n, err)
		}
		if out[i], err = strip.Encode(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrImageProcessing, err)
		}
	}
	return out, nil
}
