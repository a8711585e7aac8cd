// Package pdftest writes small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// A4 page size in page-space units.
const (
	A4Width  = 595.0
	A4Height = 842.0
)

// Build returns a PDF with one blank-ish page per entry in sizes,
// each entry being {width, height}.
func Build(sizes ...[2]float64) []byte {
	var buf bytes.Buffer
	offsets := []int{0}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]byte, 0, len(sizes)*8)
	for i := range sizes {
		kids = fmt.Appendf(kids, "%d 0 R ", 3+2*i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids), len(sizes)))

	content := "0.5 w 10 10 m 100 100 l S"
	for i, s := range sizes {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> /Contents %d 0 R >>",
			s[0], s[1], 4+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)
	return buf.Bytes()
}

// Write stores an n-page A4 PDF named name in dir and returns its path.
func Write(t testing.TB, dir, name string, n int) string {
	t.Helper()
	sizes := make([][2]float64, n)
	for i := range sizes {
		sizes[i] = [2]float64{A4Width, A4Height}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(sizes...), 0o644); err != nil {
		t.Fatalf("write test PDF: %v", err)
	}
	return path
}

// WritePNG stores a w x h seal-like PNG (red disc on a transparent
// background) in dir and returns its path.
func WritePNG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy, r := w/2, h/2, min(w, h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				img.Set(x, y, color.NRGBA{R: 220, G: 20, B: 30, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test PNG: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test PNG: %v", err)
	}
	return path
}
