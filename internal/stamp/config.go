package stamp

import "fmt"

const (
	DefaultStampSizeMm    = 40.0
	DefaultMarginRightMm  = 60.0
	DefaultMarginBottomMm = 60.0
	DefaultSealCount      = 1
)

// Config holds the validated stamp parameters. The zero value is not
// usable; build one with NewConfig. A Config is never modified after
// construction and may be shared between goroutines.
type Config struct {
	stampSizeMm    float64
	marginRightMm  float64
	marginBottomMm float64
	sealCount      int
	pagesPerSeal   int // 0 when unset
}

// Option overrides one Config default.
type Option func(*Config)

func WithStampSize(mm float64) Option {
	return func(c *Config) { c.stampSizeMm = mm }
}

func WithMargins(rightMm, bottomMm float64) Option {
	return func(c *Config) {
		c.marginRightMm = rightMm
		c.marginBottomMm = bottomMm
	}
}

func WithSealCount(n int) Option {
	return func(c *Config) { c.sealCount = n }
}

// WithPagesPerSeal limits how many pages one straddle seal spans.
// Without it a single seal spans the whole document.
func WithPagesPerSeal(n int) Option {
	return func(c *Config) {
		c.pagesPerSeal = n
		if n == 0 {
			// keep "set to zero" distinguishable from "unset"
			c.pagesPerSeal = -1
		}
	}
}

// NewConfig applies opts over the defaults and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		stampSizeMm:    DefaultStampSizeMm,
		marginRightMm:  DefaultMarginRightMm,
		marginBottomMm: DefaultMarginBottomMm,
		sealCount:      DefaultSealCount,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch {
	case !(c.stampSizeMm > 0):
		return &ConfigError{Field: "stampSizeMm", Reason: fmt.Sprintf("must be > 0, got %v", c.stampSizeMm)}
	case !(c.marginRightMm >= 0):
		return &ConfigError{Field: "marginRightMm", Reason: fmt.Sprintf("must be >= 0, got %v", c.marginRightMm)}
	case !(c.marginBottomMm >= 0):
		return &ConfigError{Field: "marginBottomMm", Reason: fmt.Sprintf("must be >= 0, got %v", c.marginBottomMm)}
	case c.sealCount < 1:
		return &ConfigError{Field: "sealCount", Reason: fmt.Sprintf("must be >= 1, got %d", c.sealCount)}
	case c.pagesPerSeal < 0:
		return &ConfigError{Field: "pagesPerSeal", Reason: "must be > 0 when set"}
	}
	return nil
}

func (c Config) StampSizeMm() float64    { return c.stampSizeMm }
func (c Config) MarginRightMm() float64  { return c.marginRightMm }
func (c Config) MarginBottomMm() float64 { return c.marginBottomMm }
func (c Config) SealCount() int          { return c.sealCount }

// PagesPerSeal returns the configured group size and whether one was set.
func (c Config) PagesPerSeal() (int, bool) {
	return c.pagesPerSeal, c.pagesPerSeal > 0
}

func (c Config) String() string {
	pps := "all"
	if n, ok := c.PagesPerSeal(); ok {
		pps = fmt.Sprint(n)
	}
	return fmt.Sprintf("size=%gmm margins=%g/%gmm seals=%d pagesPerSeal=%s",
		c.stampSizeMm, c.marginRightMm, c.marginBottomMm, c.sealCount, pps)
}
