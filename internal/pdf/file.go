package pdf

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"go-stamppdf/internal/raster"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	// pdfcpu rejects absolute scale factors below this.
	minStampScale = 0.01
	// height mismatch, in units, tolerated before an image is resampled
	aspectTolerance = 0.5
	// pixels per unit when an image has to be resampled to fit a Rect
	resampleDensity = 2.0
)

// File is a PDF opened from disk. The source file is never modified;
// staged images are written to the path given to Save.
type File struct {
	path     string
	dims     []types.Dim
	stamps   map[int][]stamp // keyed by 1-based page number
	conf     *model.Configuration
	optimize bool
	closed   bool
}

type stamp struct {
	img    []byte
	scale  float64
	dx, dy float64
}

// OpenFile reads the page tree of the PDF at path.
func OpenFile(path string) (*File, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page sizes of %s: %w", path, err)
	}
	return &File{
		path:   path,
		dims:   dims,
		stamps: make(map[int][]stamp),
		conf:   conf,
	}, nil
}

func (f *File) PageCount() int { return len(f.dims) }

func (f *File) Page(i int) (Page, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if i < 0 || i >= len(f.dims) {
		return nil, fmt.Errorf("page %d out of range [0, %d)", i, len(f.dims))
	}
	return &filePage{f: f, index: i}, nil
}

// Save writes the source document plus every staged image to path.
func (f *File) Save(path string) error {
	if f.closed {
		return ErrClosed
	}
	if len(f.stamps) == 0 {
		if err := copyFile(f.path, path); err != nil {
			return fmt.Errorf("failed to copy PDF: %w", err)
		}
	} else {
		m, err := f.watermarks()
		if err != nil {
			return err
		}
		if err := pdfapi.AddWatermarksSliceMapFile(f.path, path, m, f.conf); err != nil {
			return fmt.Errorf("failed to apply images: %w", err)
		}
	}
	if f.optimize {
		if err := pdfapi.OptimizeFile(path, "", f.conf); err != nil {
			return fmt.Errorf("failed to optimize PDF: %w", err)
		}
	}
	return nil
}

// Close drops staged images. It is safe to call more than once.
func (f *File) Close() error {
	f.closed = true
	f.stamps = nil
	return nil
}

// watermarks builds fresh pdfcpu stamps; their image readers are consumed
// when applied, so they are rebuilt on every Save.
func (f *File) watermarks() (map[int][]*model.Watermark, error) {
	m := make(map[int][]*model.Watermark, len(f.stamps))
	for page, stamps := range f.stamps {
		for _, s := range stamps {
			wm, err := s.watermark()
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", page, err)
			}
			m[page] = append(m[page], wm)
		}
	}
	return m, nil
}

func (s stamp) watermark() (*model.Watermark, error) {
	// Use pos:bl (bottom-left anchor), rot:0 (no rotation), op:1 (fully opaque)
	desc := fmt.Sprintf("scalefactor:%.6f abs, pos:bl, rot:0, op:1", s.scale)
	wm, err := pdfapi.ImageWatermarkForReader(bytes.NewReader(s.img), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse image stamp: %w", err)
	}
	// Manually override positioning
	wm.Dx = s.dx
	wm.Dy = s.dy
	return wm, nil
}

func (f *File) insert(i int, r Rect, img []byte) error {
	if f.closed {
		return ErrClosed
	}
	if !(r.Width > 0) || !(r.Height > 0) {
		return fmt.Errorf("invalid image rect %v", r)
	}
	img, scale, err := fitToRect(img, r)
	if err != nil {
		return err
	}
	s := stamp{
		img:   img,
		scale: scale,
		dx:    r.X,
		// PDF user space grows upwards from the bottom-left corner
		dy: f.dims[i].Height - r.Y - r.Height,
	}
	if _, err := s.watermark(); err != nil {
		return err
	}
	f.stamps[i+1] = append(f.stamps[i+1], s)
	return nil
}

// fitToRect returns image data whose pixel aspect matches r, and the
// absolute scale that maps its width onto r.Width.
func fitToRect(img []byte, r Rect) ([]byte, float64, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, 0, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	scale := r.Width / float64(cfg.Width)
	if scale >= minStampScale && math.Abs(float64(cfg.Height)*scale-r.Height) <= aspectTolerance {
		return img, scale, nil
	}

	w := max(1, int(math.Round(r.Width*resampleDensity)))
	h := max(1, int(math.Round(r.Height*resampleDensity)))
	src, err := raster.Decode(img)
	if err != nil {
		return nil, 0, err
	}
	resized, err := src.Alpha().Resize(w, h)
	if err != nil {
		return nil, 0, err
	}
	data, err := resized.Encode()
	if err != nil {
		return nil, 0, err
	}
	return data, r.Width / float64(w), nil
}

type filePage struct {
	f     *File
	index int
}

func (p *filePage) Size() (float64, float64) {
	d := p.f.dims[p.index]
	return d.Width, d.Height
}

func (p *filePage) InsertImage(r Rect, img []byte) error {
	return p.f.insert(p.index, r, img)
}
