package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go-stamppdf/internal/stamp"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "UPLOAD_DIR", "SESSION_TTL", "STAMP_SIZE_MM", "PAGES_PER_SEAL", "SEAL_COUNT"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.UploadDir != "uploads" || cfg.SessionTTL != 5*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.StampSizeMm != 40 || cfg.SealCount != 1 || cfg.PagesPerSeal != 0 {
		t.Errorf("unexpected stamp defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("STAMP_SIZE_MM", "42.5")
	t.Setenv("PAGES_PER_SEAL", "6")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.SessionTTL != 90*time.Second || cfg.StampSizeMm != 42.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	opts, err := cfg.StampOptions()
	if err != nil {
		t.Fatal(err)
	}
	sc, err := stamp.NewConfig(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := sc.PagesPerSeal(); !ok || n != 6 {
		t.Errorf("PagesPerSeal = %d, %v", n, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad number", func(t *testing.T) {
		t.Setenv("SEAL_COUNT", "three")
		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "SEAL_COUNT") {
			t.Errorf("got %v", err)
		}
	})
	t.Run("invalid stamp default", func(t *testing.T) {
		t.Setenv("MARGIN_RIGHT_MM", "-3")
		_, err := Load()
		if !errors.Is(err, stamp.ErrConfigValidation) {
			t.Errorf("got %v", err)
		}
	})
}
