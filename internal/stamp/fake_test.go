package stamp

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"go-stamppdf/internal/pdf"
)

// fakeDoc records insertions and persists itself as JSON so that a saved
// document can be reopened by fakeOpener.
type fakeDoc struct {
	Sizes   [][2]float64 `json:"sizes"`
	Inserts []insertion  `json:"inserts"`

	closed   bool
	saveErr  error
	insertOK int // fail after this many inserts when > 0
}

type insertion struct {
	Page int      `json:"page"`
	Rect pdf.Rect `json:"rect"`
	ImgW int      `json:"imgW"`
	ImgH int      `json:"imgH"`
}

func newFakeDoc(n int) *fakeDoc {
	d := &fakeDoc{}
	for i := 0; i < n; i++ {
		d.Sizes = append(d.Sizes, [2]float64{595, 842})
	}
	return d
}

func (d *fakeDoc) PageCount() int { return len(d.Sizes) }

func (d *fakeDoc) Page(i int) (pdf.Page, error) {
	if i < 0 || i >= len(d.Sizes) {
		return nil, errors.New("page out of range")
	}
	return &fakePage{d: d, i: i}, nil
}

func (d *fakeDoc) Save(path string) error {
	if d.closed {
		return pdf.ErrClosed
	}
	if d.saveErr != nil {
		return d.saveErr
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDoc) onPage(i int) []insertion {
	var out []insertion
	for _, ins := range d.Inserts {
		if ins.Page == i {
			out = append(out, ins)
		}
	}
	return out
}

type fakePage struct {
	d *fakeDoc
	i int
}

func (p *fakePage) Size() (float64, float64) {
	s := p.d.Sizes[p.i]
	return s[0], s[1]
}

func (p *fakePage) InsertImage(r pdf.Rect, img []byte) error {
	if p.d.closed {
		return pdf.ErrClosed
	}
	if p.d.insertOK > 0 && len(p.d.Inserts) >= p.d.insertOK {
		return errors.New("backend refused insert")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return err
	}
	p.d.Inserts = append(p.d.Inserts, insertion{Page: p.i, Rect: r, ImgW: cfg.Width, ImgH: cfg.Height})
	return nil
}

// fakeOpener opens JSON-encoded fakeDocs. failOn makes the n-th Open
// (1-based) fail.
type fakeOpener struct {
	opens  int
	failOn int
	last   *fakeDoc
	tweak  func(*fakeDoc)
}

func (o *fakeOpener) Open(path string) (pdf.Document, error) {
	o.opens++
	if o.failOn == o.opens {
		return nil, errors.New("corrupt document")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := &fakeDoc{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}
	if o.tweak != nil {
		o.tweak(d)
	}
	o.last = d
	return d, nil
}

func writeFakeDoc(t *testing.T, dir, name string, n int) string {
	t.Helper()
	data, err := json.Marshal(newFakeDoc(n))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFakeDoc(t *testing.T, path string) *fakeDoc {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	d := &fakeDoc{}
	if err := json.Unmarshal(data, d); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return d
}

func mustConfig(t *testing.T, opts ...Option) Config {
	t.Helper()
	cfg, err := NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
