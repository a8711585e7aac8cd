// Package config loads service settings from the environment. A .env file
// in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go-stamppdf/internal/stamp"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port      int
	UploadDir string
	OutputDir string
	TempDir   string

	SessionTTL    time.Duration
	SweepInterval time.Duration

	// stamp parameters used when a request does not set them
	StampSizeMm    float64
	MarginRightMm  float64
	MarginBottomMm float64
	SealCount      int
	PagesPerSeal   int // 0 = one seal across the whole document

	SofficeBin     string
	ConvertTimeout time.Duration
}

// Load reads the environment, falling back to defaults for unset values.
func Load() (Config, error) {
	l := loader{}
	cfg := Config{
		Port:           l.integer("PORT", 8080),
		UploadDir:      l.str("UPLOAD_DIR", "uploads"),
		OutputDir:      l.str("OUTPUT_DIR", "output"),
		TempDir:        l.str("TEMP_DIR", os.TempDir()),
		SessionTTL:     l.duration("SESSION_TTL", 5*time.Minute),
		SweepInterval:  l.duration("SWEEP_INTERVAL", 10*time.Minute),
		StampSizeMm:    l.number("STAMP_SIZE_MM", stamp.DefaultStampSizeMm),
		MarginRightMm:  l.number("MARGIN_RIGHT_MM", stamp.DefaultMarginRightMm),
		MarginBottomMm: l.number("MARGIN_BOTTOM_MM", stamp.DefaultMarginBottomMm),
		SealCount:      l.integer("SEAL_COUNT", stamp.DefaultSealCount),
		PagesPerSeal:   l.integer("PAGES_PER_SEAL", 0),
		SofficeBin:     l.str("SOFFICE_BIN", "soffice"),
		ConvertTimeout: l.duration("CONVERT_TIMEOUT", 2*time.Minute),
	}
	if l.err != nil {
		return Config{}, l.err
	}
	if _, err := cfg.StampOptions(); err != nil {
		return Config{}, fmt.Errorf("invalid stamp defaults: %w", err)
	}
	return cfg, nil
}

// StampOptions returns the configured defaults as stamp options, checked
// by building a stamp.Config from them.
func (c Config) StampOptions() ([]stamp.Option, error) {
	opts := []stamp.Option{
		stamp.WithStampSize(c.StampSizeMm),
		stamp.WithMargins(c.MarginRightMm, c.MarginBottomMm),
		stamp.WithSealCount(c.SealCount),
	}
	if c.PagesPerSeal != 0 {
		opts = append(opts, stamp.WithPagesPerSeal(c.PagesPerSeal))
	}
	if _, err := stamp.NewConfig(opts...); err != nil {
		return nil, err
	}
	return opts, nil
}

// loader keeps the first parse error so Load can report it once.
type loader struct {
	err error
}

func (l *loader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (l *loader) integer(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return n
}

func (l *loader) number(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return f
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return d
}

func (l *loader) fail(key, value string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
