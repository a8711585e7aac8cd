// Package convert turns word-processor documents into PDF by running a
// headless office suite (LibreOffice's soffice by default).
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultBinary  = "soffice"
	DefaultTimeout = 2 * time.Minute
)

var (
	ErrUnsupportedFormat = errors.New("input must be a .doc, .docx, .odt or .rtf document")
	ErrOutputExists      = errors.New("output file already exists")
)

var supported = map[string]bool{".doc": true, ".docx": true, ".odt": true, ".rtf": true}

// Soffice converts documents with one soffice process per call. Each call
// gets its own user profile so concurrent conversions do not collide.
type Soffice struct {
	Binary    string
	Timeout   time.Duration
	Overwrite bool
	Logger    *slog.Logger
}

func NewSoffice(binary string, timeout time.Duration, logger *slog.Logger) *Soffice {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Soffice{Binary: binary, Timeout: timeout, Logger: logger}
}

// WordToPDF converts inputPath and writes the PDF to outputPath. An empty
// outputPath means the input path with a .pdf extension.
func (s *Soffice) WordToPDF(ctx context.Context, inputPath, outputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("input %s: %w", inputPath, err)
	}
	ext := filepath.Ext(inputPath)
	if !supported[strings.ToLower(ext)] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, inputPath)
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, ext) + ".pdf"
	}
	if !s.Overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return "", fmt.Errorf("%w: %s", ErrOutputExists, outputPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	workDir, err := os.MkdirTemp(filepath.Dir(outputPath), ".convert-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)
	profile, err := filepath.Abs(filepath.Join(workDir, "profile"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	start := time.Now()
	cmd := exec.CommandContext(ctx, s.Binary,
		"--headless", "--norestore",
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--convert-to", "pdf",
		"--outdir", workDir,
		inputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", fmt.Errorf("%s failed: %w\noutput: %s", s.Binary, err, output)
	}

	produced := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(inputPath), ext)+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("%s produced no PDF\noutput: %s", s.Binary, output)
	}
	if err := os.Rename(produced, outputPath); err != nil {
		return "", fmt.Errorf("failed to move converted PDF: %w", err)
	}

	s.Logger.Info("document converted", "input", inputPath, "output", outputPath, "took", time.Since(start))
	return outputPath, nil
}
