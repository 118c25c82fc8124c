package model

import "fmt"

// Time units accepted for source press timestamps.
const (
	TimeUnitSeconds      = "s"
	TimeUnitMilliseconds = "ms"
)

// Config holds the analysis parameters. It is passed by value to every stage.
type Config struct {
	Target            int
	PracticeThreshold int
	SourceTimeUnit    string
	BinWidthMs        float64
	SpanMs            float64
	Window            int
	GaussianStd       float64
	Resamples         int
	Confidence        float64
	Seed              int64

	SampleRateHz  float64
	PracticeVideo string
}

// DefaultConfig returns the parameters used in the study.
func DefaultConfig() Config {
	return Config{
		Target:            9,
		PracticeThreshold: 900,
		SourceTimeUnit:    TimeUnitSeconds,
		BinWidthMs:        1000,
		SpanMs:            10 * 60 * 1000,
		Window:            60,
		GaussianStd:       3,
		Resamples:         10000,
		Confidence:        0.95,
		Seed:              1,
		SampleRateHz:      2,
	}
}

// TimeScale is the multiplier converting source timestamps to milliseconds.
func (c Config) TimeScale() float64 {
	if c.SourceTimeUnit == TimeUnitSeconds {
		return 1000
	}
	return 1
}

// Bins is the number of time bins spanning the task.
func (c Config) Bins() int {
	if c.BinWidthMs <= 0 {
		return 0
	}
	return int(c.SpanMs / c.BinWidthMs)
}

// TrimWidth is the number of bins discarded at each edge after the sliding sum.
func (c Config) TrimWidth() int {
	return c.Window
}

// SampleIntervalS is the slider sampling interval in seconds.
func (c Config) SampleIntervalS() float64 {
	if c.SampleRateHz <= 0 {
		return 0
	}
	return 1 / c.SampleRateHz
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.Target <= 0 {
		return fmt.Errorf("target must be > 0")
	}
	if c.SourceTimeUnit != TimeUnitSeconds && c.SourceTimeUnit != TimeUnitMilliseconds {
		return fmt.Errorf("source time unit must be %q or %q", TimeUnitSeconds, TimeUnitMilliseconds)
	}
	if c.BinWidthMs <= 0 {
		return fmt.Errorf("bin width must be > 0")
	}
	if c.SpanMs < c.BinWidthMs {
		return fmt.Errorf("span must cover at least one bin")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be > 0")
	}
	if c.GaussianStd <= 0 {
		return fmt.Errorf("gaussian std must be > 0")
	}
	if c.Resamples < 1 {
		return fmt.Errorf("resamples must be >= 1")
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be > 0")
	}
	return nil
}
