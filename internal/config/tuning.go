package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/siren.report/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Sweep strategy names accepted by the "sweep" key.
const (
	SweepDiagonal = "diagonal"
	SweepAxis     = "axis"
	SweepGrid     = "grid"
)

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional; the Get* methods fall back to built-in defaults
// so partial files are safe.
type TuningConfig struct {
	// Analyser params
	FFTSize               *int     `json:"fft_size,omitempty"`
	SampleRate            *float64 `json:"sample_rate,omitempty"`
	SmoothingTimeConstant *float64 `json:"smoothing_time_constant,omitempty"`
	MinDecibels           *float64 `json:"min_decibels,omitempty"`
	MaxDecibels           *float64 `json:"max_decibels,omitempty"`

	// Detector bands (Hz)
	PitchMinHz    *float64 `json:"pitch_min_hz,omitempty"`
	PitchMaxHz    *float64 `json:"pitch_max_hz,omitempty"`
	DominantMinHz *float64 `json:"dominant_min_hz,omitempty"`
	DominantMaxHz *float64 `json:"dominant_max_hz,omitempty"`
	SirenMinHz    *float64 `json:"siren_min_hz,omitempty"`
	SirenMaxHz    *float64 `json:"siren_max_hz,omitempty"`

	// Tone classification
	HighToneHz          *float64 `json:"high_tone_hz,omitempty"`
	HighToneToleranceHz *float64 `json:"high_tone_tolerance_hz,omitempty"`
	LowToneHz           *float64 `json:"low_tone_hz,omitempty"`
	LowToneToleranceHz  *float64 `json:"low_tone_tolerance_hz,omitempty"`

	// History params
	Window          *string `json:"window,omitempty"` // duration string like "15s"
	Warmup          *string `json:"warmup,omitempty"` // duration string like "1s"
	RefitEvery      *int    `json:"refit_every,omitempty"`
	HistoryCapacity *int    `json:"history_capacity,omitempty"`

	// Fitter params
	SpeedOfSound *float64 `json:"speed_of_sound,omitempty"`
	Sweep        *string  `json:"sweep,omitempty"`

	// Presentation
	DisplayUnits *string `json:"display_units,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		FFTSize:               ptrInt(c.GetFFTSize()),
		SampleRate:            ptrFloat64(c.GetSampleRate()),
		SmoothingTimeConstant: ptrFloat64(c.GetSmoothingTimeConstant()),
		MinDecibels:           ptrFloat64(c.GetMinDecibels()),
		MaxDecibels:           ptrFloat64(c.GetMaxDecibels()),
		PitchMinHz:            ptrFloat64(c.GetPitchMinHz()),
		PitchMaxHz:            ptrFloat64(c.GetPitchMaxHz()),
		DominantMinHz:         ptrFloat64(c.GetDominantMinHz()),
		DominantMaxHz:         ptrFloat64(c.GetDominantMaxHz()),
		SirenMinHz:            ptrFloat64(c.GetSirenMinHz()),
		SirenMaxHz:            ptrFloat64(c.GetSirenMaxHz()),
		HighToneHz:            ptrFloat64(c.GetHighToneHz()),
		HighToneToleranceHz:   ptrFloat64(c.GetHighToneToleranceHz()),
		LowToneHz:             ptrFloat64(c.GetLowToneHz()),
		LowToneToleranceHz:    ptrFloat64(c.GetLowToneToleranceHz()),
		Window:                ptrString(c.GetWindow().String()),
		Warmup:                ptrString(c.GetWarmup().String()),
		RefitEvery:            ptrInt(c.GetRefitEvery()),
		HistoryCapacity:       ptrInt(c.GetHistoryCapacity()),
		SpeedOfSound:          ptrFloat64(c.GetSpeedOfSound()),
		Sweep:                 ptrString(c.GetSweep()),
		DisplayUnits:          ptrString(c.GetDisplayUnits()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/siren/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.FFTSize != nil {
		n := *c.FFTSize
		if n < 32 || n > 32768 || n&(n-1) != 0 {
			return fmt.Errorf("fft_size must be a power of two in [32, 32768], got %d", n)
		}
	}

	if c.SampleRate != nil && *c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %f", *c.SampleRate)
	}

	if c.SmoothingTimeConstant != nil {
		if *c.SmoothingTimeConstant < 0 || *c.SmoothingTimeConstant > 1 {
			return fmt.Errorf("smoothing_time_constant must be between 0 and 1, got %f", *c.SmoothingTimeConstant)
		}
	}

	if c.GetMinDecibels() >= c.GetMaxDecibels() {
		return fmt.Errorf("min_decibels (%f) must be below max_decibels (%f)", c.GetMinDecibels(), c.GetMaxDecibels())
	}

	bands := []struct {
		name   string
		lo, hi float64
	}{
		{"pitch", c.GetPitchMinHz(), c.GetPitchMaxHz()},
		{"dominant", c.GetDominantMinHz(), c.GetDominantMaxHz()},
		{"siren", c.GetSirenMinHz(), c.GetSirenMaxHz()},
	}
	for _, b := range bands {
		if b.lo <= 0 || b.hi <= b.lo {
			return fmt.Errorf("%s band must satisfy 0 < min < max, got [%f, %f]", b.name, b.lo, b.hi)
		}
	}

	if c.HighToneToleranceHz != nil && *c.HighToneToleranceHz <= 0 {
		return fmt.Errorf("high_tone_tolerance_hz must be positive, got %f", *c.HighToneToleranceHz)
	}
	if c.LowToneToleranceHz != nil && *c.LowToneToleranceHz <= 0 {
		return fmt.Errorf("low_tone_tolerance_hz must be positive, got %f", *c.LowToneToleranceHz)
	}

	if c.Window != nil && *c.Window != "" {
		if d, err := time.ParseDuration(*c.Window); err != nil {
			return fmt.Errorf("invalid window '%s': %w", *c.Window, err)
		} else if d <= 0 {
			return fmt.Errorf("window must be positive, got %s", d)
		}
	}

	if c.Warmup != nil && *c.Warmup != "" {
		if d, err := time.ParseDuration(*c.Warmup); err != nil {
			return fmt.Errorf("invalid warmup '%s': %w", *c.Warmup, err)
		} else if d < 0 {
			return fmt.Errorf("warmup must be non-negative, got %s", d)
		}
	}

	if c.RefitEvery != nil && *c.RefitEvery < 1 {
		return fmt.Errorf("refit_every must be at least 1, got %d", *c.RefitEvery)
	}

	if c.HistoryCapacity != nil && *c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be at least 1, got %d", *c.HistoryCapacity)
	}

	if c.SpeedOfSound != nil && *c.SpeedOfSound <= 0 {
		return fmt.Errorf("speed_of_sound must be positive, got %f", *c.SpeedOfSound)
	}

	if c.Sweep != nil {
		switch *c.Sweep {
		case SweepDiagonal, SweepAxis, SweepGrid:
		default:
			return fmt.Errorf("sweep must be one of %s, %s, %s, got %q", SweepDiagonal, SweepAxis, SweepGrid, *c.Sweep)
		}
	}

	if c.DisplayUnits != nil && !units.IsValid(*c.DisplayUnits) {
		return fmt.Errorf("display_units must be one of %s, got %q", units.GetValidUnitsString(), *c.DisplayUnits)
	}

	return nil
}

// GetFFTSize returns the fft_size value or the default.
func (c *TuningConfig) GetFFTSize() int {
	if c.FFTSize == nil {
		return 4096 // default
	}
	return *c.FFTSize
}

// GetSampleRate returns the sample_rate value or the default.
func (c *TuningConfig) GetSampleRate() float64 {
	if c.SampleRate == nil {
		return 48000 // default
	}
	return *c.SampleRate
}

// GetSmoothingTimeConstant returns the smoothing_time_constant value or the default.
func (c *TuningConfig) GetSmoothingTimeConstant() float64 {
	if c.SmoothingTimeConstant == nil {
		return 0.8 // default
	}
	return *c.SmoothingTimeConstant
}

func (c *TuningConfig) GetMinDecibels() float64 {
	if c.MinDecibels == nil {
		return -100 // default
	}
	return *c.MinDecibels
}

func (c *TuningConfig) GetMaxDecibels() float64 {
	if c.MaxDecibels == nil {
		return -30 // default
	}
	return *c.MaxDecibels
}

func (c *TuningConfig) GetPitchMinHz() float64 {
	if c.PitchMinHz == nil {
		return 700
	}
	return *c.PitchMinHz
}

func (c *TuningConfig) GetPitchMaxHz() float64 {
	if c.PitchMaxHz == nil {
		return 1000
	}
	return *c.PitchMaxHz
}

func (c *TuningConfig) GetDominantMinHz() float64 {
	if c.DominantMinHz == nil {
		return 700
	}
	return *c.DominantMinHz
}

func (c *TuningConfig) GetDominantMaxHz() float64 {
	if c.DominantMaxHz == nil {
		return 1000
	}
	return *c.DominantMaxHz
}

func (c *TuningConfig) GetSirenMinHz() float64 {
	if c.SirenMinHz == nil {
		return 500
	}
	return *c.SirenMinHz
}

func (c *TuningConfig) GetSirenMaxHz() float64 {
	if c.SirenMaxHz == nil {
		return 1200
	}
	return *c.SirenMaxHz
}

// GetHighToneHz returns the nominal frequency of the upper siren tone.
func (c *TuningConfig) GetHighToneHz() float64 {
	if c.HighToneHz == nil {
		return 960
	}
	return *c.HighToneHz
}

func (c *TuningConfig) GetHighToneToleranceHz() float64 {
	if c.HighToneToleranceHz == nil {
		return 50
	}
	return *c.HighToneToleranceHz
}

// GetLowToneHz returns the nominal frequency of the lower siren tone.
func (c *TuningConfig) GetLowToneHz() float64 {
	if c.LowToneHz == nil {
		return 770
	}
	return *c.LowToneHz
}

func (c *TuningConfig) GetLowToneToleranceHz() float64 {
	if c.LowToneToleranceHz == nil {
		return 70
	}
	return *c.LowToneToleranceHz
}

// GetWindow parses and returns the sliding history window as a time.Duration.
func (c *TuningConfig) GetWindow() time.Duration {
	if c.Window == nil || *c.Window == "" {
		return 15 * time.Second // default
	}
	d, err := time.ParseDuration(*c.Window)
	if err != nil {
		return 15 * time.Second // default on parse error
	}
	return d
}

// GetWarmup parses and returns the onset exclusion after first detection.
func (c *TuningConfig) GetWarmup() time.Duration {
	if c.Warmup == nil || *c.Warmup == "" {
		return time.Second // default
	}
	d, err := time.ParseDuration(*c.Warmup)
	if err != nil {
		return time.Second // default on parse error
	}
	return d
}

// GetRefitEvery returns how many combined tone observations trigger a refit.
func (c *TuningConfig) GetRefitEvery() int {
	if c.RefitEvery == nil {
		return 20
	}
	return *c.RefitEvery
}

func (c *TuningConfig) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return 1000
	}
	return *c.HistoryCapacity
}

func (c *TuningConfig) GetSpeedOfSound() float64 {
	if c.SpeedOfSound == nil {
		return 340
	}
	return *c.SpeedOfSound
}

// GetSweep returns the rough-pass candidate strategy.
func (c *TuningConfig) GetSweep() string {
	if c.Sweep == nil || *c.Sweep == "" {
		return SweepDiagonal
	}
	return *c.Sweep
}

// GetDisplayUnits returns the speed unit used for display.
func (c *TuningConfig) GetDisplayUnits() string {
	if c.DisplayUnits == nil || *c.DisplayUnits == "" {
		return units.KPH
	}
	return *c.DisplayUnits
}
