// Package outline derives a title and an H1/H2/H3 heading outline from a
// document's font and layout information.
package outline

// Config holds the heading detection thresholds.
type Config struct {
	SizeMargin           float64 // Points above body size for the "larger" signal.
	MaxHeadingWords      int     // A heading has fewer words than this.
	CoverPageMaxChars    int     // Page 1 below this many characters may be a cover page.
	CenterToleranceRatio float64 // Fraction of page width a centered line may drift.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SizeMargin:           0.5,
		MaxHeadingWords:      25,
		CoverPageMaxChars:    200,
		CenterToleranceRatio: 0.125,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SizeMargin <= 0 {
		c.SizeMargin = d.SizeMargin
	}
	if c.MaxHeadingWords <= 0 {
		c.MaxHeadingWords = d.MaxHeadingWords
	}
	if c.CoverPageMaxChars <= 0 {
		c.CoverPageMaxChars = d.CoverPageMaxChars
	}
	if c.CenterToleranceRatio <= 0 {
		c.CenterToleranceRatio = d.CenterToleranceRatio
	}
	return c
}
