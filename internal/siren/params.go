package siren

import (
	"time"

	"github.com/banshee-data/siren.report/internal/config"
	"github.com/banshee-data/siren.report/internal/pitch"
)

// Sweep selects how RoughPass lays out its candidates around the centre.
type Sweep string

const (
	// SweepDiagonal moves all three parameters together along one line.
	SweepDiagonal Sweep = config.SweepDiagonal
	// SweepAxis sweeps speed, then offset, then t0, each from the best so far.
	SweepAxis Sweep = config.SweepAxis
	// SweepGrid evaluates the full (2n+1)³ lattice.
	SweepGrid Sweep = config.SweepGrid
)

// Params holds everything the session needs at runtime.
type Params struct {
	// Detector bands (Hz)
	PitchMinHz    float64
	PitchMaxHz    float64
	DominantMinHz float64
	DominantMaxHz float64
	SirenMinHz    float64
	SirenMaxHz    float64

	// Tone classification
	HighToneHz          float64
	HighToneToleranceHz float64
	LowToneHz           float64
	LowToneToleranceHz  float64

	// History
	Window          time.Duration // observations older than now-Window are dropped
	Warmup          time.Duration // observations within Warmup of a tone's first detection are dropped
	RefitEvery      int           // refit when the combined tone count is a positive multiple of this
	HistoryCapacity int           // generic history ring size

	// Fitter
	SpeedOfSound float64
	Sweep        Sweep
}

// DefaultParams returns the built-in defaults.
func DefaultParams() Params {
	return ParamsFromTuning(config.EmptyTuningConfig())
}

// ParamsFromTuning builds Params from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		PitchMinHz:          cfg.GetPitchMinHz(),
		PitchMaxHz:          cfg.GetPitchMaxHz(),
		DominantMinHz:       cfg.GetDominantMinHz(),
		DominantMaxHz:       cfg.GetDominantMaxHz(),
		SirenMinHz:          cfg.GetSirenMinHz(),
		SirenMaxHz:          cfg.GetSirenMaxHz(),
		HighToneHz:          cfg.GetHighToneHz(),
		HighToneToleranceHz: cfg.GetHighToneToleranceHz(),
		LowToneHz:           cfg.GetLowToneHz(),
		LowToneToleranceHz:  cfg.GetLowToneToleranceHz(),
		Window:              cfg.GetWindow(),
		Warmup:              cfg.GetWarmup(),
		RefitEvery:          cfg.GetRefitEvery(),
		HistoryCapacity:     cfg.GetHistoryCapacity(),
		SpeedOfSound:        cfg.GetSpeedOfSound(),
		Sweep:               Sweep(cfg.GetSweep()),
	}
}

// Readings are the three detector outputs for one frame. Zero means the
// detector found nothing.
type Readings struct {
	Fundamental float64 `json:"frequency"`
	Dominant    float64 `json:"dominant_frequency"`
	Siren       float64 `json:"siren_frequency"`
}

// Detect runs the pitch detector and both band-peak finders over a frame.
func (p Params) Detect(f pitch.Frame) Readings {
	return Readings{
		Fundamental: f.Fundamental(p.PitchMinHz, p.PitchMaxHz),
		Dominant:    f.BandPeak(p.DominantMinHz, p.DominantMaxHz),
		Siren:       f.BandPeak(p.SirenMinHz, p.SirenMaxHz),
	}
}

// Estimator returns a fitter configured from these params.
func (p Params) Estimator() Estimator {
	return Estimator{
		HighToneHz:   p.HighToneHz,
		LowToneHz:    p.LowToneHz,
		SpeedOfSound: p.SpeedOfSound,
		Sweep:        p.Sweep,
	}
}
