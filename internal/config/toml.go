// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/respire/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Paths PathsConfig `toml:"paths"`
	BCT   BCTConfig   `toml:"bct"`
	EAT   EATConfig   `toml:"eat"`
	Log   LogConfig   `toml:"log"`
}

// PathsConfig maps input and output locations.
type PathsConfig struct {
	BIDSRoot   *string `toml:"bids-root"`
	References *string `toml:"references"`
	DB         *string `toml:"db"`
}

// BCTConfig maps breath-counting analysis settings.
type BCTConfig struct {
	Target            *int     `toml:"target"`
	PracticeThreshold *int     `toml:"practice-threshold"`
	SourceTimeUnit    *string  `toml:"source-time-unit"`
	BinWidthS         *float64 `toml:"bin-width-s"`
	SpanS             *float64 `toml:"span-s"`
	Window            *int     `toml:"window"`
	GaussianStd       *float64 `toml:"gaussian-std"`
	Resamples         *int     `toml:"resamples"`
	Confidence        *float64 `toml:"confidence"`
	Seed              *int64   `toml:"seed"`
}

// EATConfig maps empathic-accuracy settings.
type EATConfig struct {
	SampleRateHz  *float64 `toml:"sample-rate-hz"`
	PracticeVideo *string  `toml:"practice-video"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Apply overlays the analysis settings present in the file onto base.
func (f FileConfig) Apply(base model.Config) model.Config {
	cfg := base
	setInt(&cfg.Target, f.BCT.Target)
	setInt(&cfg.PracticeThreshold, f.BCT.PracticeThreshold)
	setString(&cfg.SourceTimeUnit, f.BCT.SourceTimeUnit)
	if f.BCT.BinWidthS != nil {
		cfg.BinWidthMs = *f.BCT.BinWidthS * 1000
	}
	if f.BCT.SpanS != nil {
		cfg.SpanMs = *f.BCT.SpanS * 1000
	}
	setInt(&cfg.Window, f.BCT.Window)
	setFloat(&cfg.GaussianStd, f.BCT.GaussianStd)
	setInt(&cfg.Resamples, f.BCT.Resamples)
	setFloat(&cfg.Confidence, f.BCT.Confidence)
	if f.BCT.Seed != nil {
		cfg.Seed = *f.BCT.Seed
	}
	setFloat(&cfg.SampleRateHz, f.EAT.SampleRateHz)
	setString(&cfg.PracticeVideo, f.EAT.PracticeVideo)
	return cfg
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}
