// Package pdf provides the page-document backend used by the stamping engine.
//
// Types:
//   - Document, Page: what the stampers read and mutate.
//     Page.InsertImage places PNG data into a Rect on the page.
//   - Opener: opens a Document from a file path.
//   - Backend: the pdfcpu-backed Opener used in production.
//   - File: the pdfcpu-backed Document. Insertions are staged per page as
//     image stamps and written out when the document is saved.
//
// Rects are in page-space units (72 per inch) measured from the top-left
// corner of the page.
package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrClosed = errors.New("document is closed")

// Rect is an axis-aligned rectangle in page-space units, origin top-left.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2fx%.2f]", r.X, r.Y, r.Width, r.Height)
}

type Page interface {
	// Size returns the page width and height in page-space units.
	Size() (width, height float64)
	InsertImage(r Rect, img []byte) error
}

type Document interface {
	PageCount() int
	Page(i int) (Page, error)
	Save(path string) error
	Close() error
}

type Opener interface {
	Open(path string) (Document, error)
}

// Backend opens documents with pdfcpu. When Optimize is set, saved files
// are rewritten through the pdfcpu optimiser.
type Backend struct {
	Optimize bool
}

func (b Backend) Open(path string) (Document, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	f.optimize = b.Optimize
	return f, nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
