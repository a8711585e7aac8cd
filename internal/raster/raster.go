// Package raster decodes, converts, resizes, crops and encodes the seal
// images placed on documents.
//
// Every operation returns a new *Image and leaves the receiver untouched.
// Resized and converted images are always non-premultiplied RGBA so that
// transparent seal backgrounds survive the round trip to PNG.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Image struct {
	img image.Image
}

// Open reads and decodes the image at path.
func Open(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(data)
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func Decode(data []byte) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{img: img}, nil
}

func FromImage(img image.Image) *Image {
	return &Image{img: img}
}

func (m *Image) Image() image.Image { return m.img }
func (m *Image) Width() int         { return m.img.Bounds().Dx() }
func (m *Image) Height() int        { return m.img.Bounds().Dy() }

// Alpha returns an NRGBA copy of m with its origin at (0, 0).
func (m *Image) Alpha() *Image {
	b := m.img.Bounds()
	if _, ok := m.img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return m
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), m.img, b.Min, draw.Src)
	return &Image{img: dst}
}

// Resize scales m to exactly w x h pixels using Catmull-Rom resampling.
func (m *Image) Resize(w, h int) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", w, h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m.img, m.img.Bounds(), draw.Src, nil)
	return &Image{img: dst}, nil
}

// Crop returns the part of m inside r, where r is relative to the
// top-left corner of m.
func (m *Image) Crop(r image.Rectangle) (*Image, error) {
	b := m.img.Bounds()
	abs := r.Add(b.Min)
	if r.Empty() || !abs.In(b) {
		return nil, fmt.Errorf("crop %v outside image bounds %dx%d", r, b.Dx(), b.Dy())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), m.img, abs.Min, draw.Src)
	return &Image{img: dst}, nil
}

// Encode returns m as PNG data.
func (m *Image) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, m.img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
