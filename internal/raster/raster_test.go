package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{R: 200, A: 255})
			}
		}
	}
	return img
}

func TestOpenAndAlpha(t *testing.T) {
	dir := t.TempDir()

	t.Run("jpeg converts to NRGBA", func(t *testing.T) {
		path := filepath.Join(dir, "seal.jpg")
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, checker(8, 6), nil); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		img, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		a := img.Alpha()
		if _, ok := a.Image().(*image.NRGBA); !ok {
			t.Fatalf("Alpha returned %T", a.Image())
		}
		if a.Width() != 8 || a.Height() != 6 {
			t.Errorf("got %dx%d, want 8x6", a.Width(), a.Height())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Open(filepath.Join(dir, "nope.png")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("garbage data", func(t *testing.T) {
		if _, err := Decode([]byte("not an image")); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestResizeCropEncode(t *testing.T) {
	img := FromImage(checker(10, 10))

	big, err := img.Resize(40, 20)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if big.Width() != 40 || big.Height() != 20 {
		t.Fatalf("got %dx%d", big.Width(), big.Height())
	}
	if _, err := img.Resize(0, 5); err == nil {
		t.Error("expected error for zero width")
	}

	slice, err := big.Crop(image.Rect(10, 0, 20, 20))
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if slice.Width() != 10 || slice.Height() != 20 {
		t.Errorf("crop got %dx%d", slice.Width(), slice.Height())
	}
	if _, err := big.Crop(image.Rect(35, 0, 45, 20)); err == nil {
		t.Error("expected out-of-bounds crop to fail")
	}

	data, err := slice.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("encoded data is not PNG: %v", err)
	}
	if cfg.Width != 10 || cfg.Height != 20 {
		t.Errorf("png is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestAlphaKeepsTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(1, 0, color.NRGBA{B: 255, A: 255})
	data, err := FromImage(src).Alpha().Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := back.Image().At(0, 0).RGBA(); a != 0 {
		t.Errorf("transparent pixel has alpha %d", a)
	}
}
