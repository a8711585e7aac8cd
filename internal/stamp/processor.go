package stamp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/utils"
)

// State is the progress of one Process call.
type State int

const (
	StateNotStarted State = iota
	StateConverted
	StateSealApplied
	StateStampApplied
	StateSaved
	StateFailed
)

var stateNames = [...]string{"not-started", "converted", "seal-applied", "stamp-applied", "saved", "failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Converter turns a word-processor document into a PDF at outputPath and
// returns the path of the PDF it wrote.
type Converter interface {
	WordToPDF(ctx context.Context, inputPath, outputPath string) (string, error)
}

var wordExtensions = map[string]bool{".doc": true, ".docx": true, ".odt": true, ".rtf": true}

// IsWordDocument reports whether path has a word-processor extension.
func IsWordDocument(path string) bool {
	return wordExtensions[strings.ToLower(filepath.Ext(path))]
}

// Processor stamps documents according to a Kind. It holds no per-call
// state and may be used from several goroutines, provided every call
// writes to its own output path.
type Processor struct {
	cfg        Config
	opener     pdf.Opener
	converter  Converter
	tempDir    string
	logger     *slog.Logger
	seal       Stamper
	electronic Stamper
}

type ProcessorOption func(*Processor)

func WithOpener(o pdf.Opener) ProcessorOption {
	return func(p *Processor) { p.opener = o }
}

// WithConverter enables Word input. Without a converter such input fails
// with ErrConversion.
func WithConverter(c Converter) ProcessorOption {
	return func(p *Processor) { p.converter = c }
}

// WithTempDir sets where converted and intermediate files are written.
func WithTempDir(dir string) ProcessorOption {
	return func(p *Processor) { p.tempDir = dir }
}

func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

func NewProcessor(cfg Config, opts ...ProcessorOption) *Processor {
	p := &Processor{
		cfg:        cfg,
		opener:     pdf.Backend{Optimize: true},
		tempDir:    os.TempDir(),
		logger:     slog.Default(),
		seal:       NewSealStamper(cfg),
		electronic: NewElectronicStamper(cfg),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Config() Config { return p.cfg }

// Process stamps inputPath with the seal at sealPath and writes the result
// to outputPath. ctx is only handed to the Converter. Temp files created
// along the way are removed before Process returns.
func (p *Processor) Process(ctx context.Context, inputPath, sealPath, outputPath string, kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedStampType, kind)
	}
	if outputPath == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidArgument)
	}
	for _, path := range []string{inputPath, sealPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
	}

	j := &job{
		p:      p,
		logger: p.logger.With("input", inputPath, "kind", kind.String()),
	}
	defer j.cleanup()

	if err := j.run(ctx, inputPath, sealPath, outputPath, kind); err != nil {
		j.logger.Warn("stamp job failed", "stage", j.state.String(), "err", err)
		j.to(StateFailed)
		return err
	}
	j.logger.Info("stamp job done", "output", outputPath)
	return nil
}

type job struct {
	p      *Processor
	logger *slog.Logger
	state  State
	temps  []string
}

func (j *job) to(s State) {
	j.logger.Debug("stamp job state", "from", j.state.String(), "to", s.String())
	j.state = s
}

func (j *job) fail(category, err error) error {
	if category != nil && !errors.Is(err, category) {
		err = fmt.Errorf("%w: %w", category, err)
	}
	return &ProcessingError{Stage: j.state, Err: err}
}

// tempPath reserves a unique temp file path that cleanup will remove.
func (j *job) tempPath(prefix string) string {
	path := filepath.Join(j.p.tempDir, utils.TempName(prefix, ".pdf"))
	j.temps = append(j.temps, path)
	return path
}

func (j *job) run(ctx context.Context, inputPath, sealPath, outputPath string, kind Kind) error {
	src := inputPath
	if IsWordDocument(inputPath) {
		if j.p.converter == nil {
			return fmt.Errorf("%w: no converter for %s", ErrConversion, filepath.Ext(inputPath))
		}
		tmp := j.tempPath("converted")
		out, err := j.p.converter.WordToPDF(ctx, inputPath, tmp)
		if out != "" && out != tmp {
			j.temps = append(j.temps, out)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConversion, err)
		}
		src = out
		j.to(StateConverted)
	}

	doc, err := j.p.opener.Open(src)
	if err != nil {
		return j.fail(ErrDocumentOpen, err)
	}
	defer func() {
		if doc != nil {
			doc.Close()
		}
	}()
	j.logger.Debug("document opened", "pages", doc.PageCount())

	if kind.Seals() {
		if err := j.p.seal.Apply(doc, sealPath); err != nil {
			return j.fail(nil, err)
		}
		j.to(StateSealApplied)

		if kind == KindBoth {
			// commit the seal layer before the corner stamps go on
			tmp := j.tempPath("sealed")
			if err := doc.Save(tmp); err != nil {
				return j.fail(ErrDocumentSave, err)
			}
			doc.Close()
			doc = nil
			if doc, err = j.p.opener.Open(tmp); err != nil {
				doc = nil
				return j.fail(ErrDocumentOpen, err)
			}
		}
	}

	if kind.Stamps() {
		if err := j.p.electronic.Apply(doc, sealPath); err != nil {
			return j.fail(nil, err)
		}
		j.to(StateStampApplied)
	}

	if err := doc.Save(outputPath); err != nil {
		return j.fail(ErrDocumentSave, err)
	}
	j.to(StateSaved)
	return nil
}

// cleanup removes every temp file. Failures are logged and never returned.
func (j *job) cleanup() {
	for _, path := range j.temps {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("failed to remove temp file", "path", path, "err", err)
		}
	}
}
