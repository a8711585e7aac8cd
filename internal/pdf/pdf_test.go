package pdf

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go-stamppdf/internal/pdf/pdftest"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid PDF", func(t *testing.T) {
		path := pdftest.Write(t, dir, "three.pdf", 3)
		f, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		defer f.Close()
		if f.PageCount() != 3 {
			t.Fatalf("PageCount = %d, want 3", f.PageCount())
		}
		p, err := f.Page(2)
		if err != nil {
			t.Fatalf("Page(2): %v", err)
		}
		w, h := p.Size()
		if w != pdftest.A4Width || h != pdftest.A4Height {
			t.Errorf("Size = %vx%v", w, h)
		}
		if _, err := f.Page(3); err == nil {
			t.Error("expected out of range error")
		}
	})

	t.Run("not a PDF", func(t *testing.T) {
		path := filepath.Join(dir, "notpdf.pdf")
		os.WriteFile(path, []byte("hello"), 0o644)
		if _, err := OpenFile(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := (Backend{}).Open(filepath.Join(dir, "missing.pdf")); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestSaveWithImages(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.Write(t, dir, "in.pdf", 2)
	seal, err := os.ReadFile(pdftest.WritePNG(t, dir, "seal.png", 80, 80))
	if err != nil {
		t.Fatal(err)
	}

	doc, err := Backend{Optimize: true}.Open(src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < doc.PageCount(); i++ {
		p, _ := doc.Page(i)
		w, h := p.Size()
		if err := p.InsertImage(Rect{X: w - 100, Y: h - 100, Width: 40, Height: 40}, seal); err != nil {
			t.Fatalf("InsertImage page %d: %v", i, err)
		}
	}
	out := filepath.Join(dir, "out.pdf")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc.Close()

	reopened, err := OpenFile(out)
	if err != nil {
		t.Fatalf("reopen saved PDF: %v", err)
	}
	defer reopened.Close()
	if reopened.PageCount() != 2 {
		t.Errorf("saved PDF has %d pages", reopened.PageCount())
	}
	in, _ := os.Stat(src)
	st, _ := os.Stat(out)
	if st.Size() <= in.Size() {
		t.Errorf("saved PDF (%d bytes) not larger than source (%d bytes)", st.Size(), in.Size())
	}
}

func TestSaveWithoutImagesCopies(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.Write(t, dir, "in.pdf", 1)
	f, err := OpenFile(src)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "copy.pdf")
	if err := f.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	a, _ := os.ReadFile(src)
	b, _ := os.ReadFile(out)
	if !bytes.Equal(a, b) {
		t.Error("expected byte-identical copy")
	}
}

func TestClosedDocument(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenFile(pdftest.Write(t, dir, "in.pdf", 1))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := f.Page(0)
	f.Close()
	f.Close()
	if err := p.InsertImage(Rect{Width: 1, Height: 1}, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("InsertImage after Close = %v", err)
	}
	if err := f.Save(filepath.Join(dir, "x.pdf")); !errors.Is(err, ErrClosed) {
		t.Errorf("Save after Close = %v", err)
	}
}

func TestFitToRect(t *testing.T) {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 100, 50)))
	data := buf.Bytes()

	t.Run("matching aspect keeps data", func(t *testing.T) {
		out, scale, err := fitToRect(data, Rect{Width: 50, Height: 25})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, data) || scale != 0.5 {
			t.Errorf("scale = %v, resampled = %v", scale, !bytes.Equal(out, data))
		}
	})

	t.Run("stretched aspect resamples", func(t *testing.T) {
		out, scale, err := fitToRect(data, Rect{Width: 30, Height: 60})
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != 60 || cfg.Height != 120 {
			t.Errorf("resampled to %dx%d, want 60x120", cfg.Width, cfg.Height)
		}
		if scale != 0.5 {
			t.Errorf("scale = %v, want 0.5", scale)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		if _, _, err := fitToRect([]byte("nope"), Rect{Width: 1, Height: 1}); err == nil {
			t.Fatal("expected error")
		}
	})
}
