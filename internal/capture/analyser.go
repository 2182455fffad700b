// Package capture turns audio into analysis frames: sources that yield PCM
// samples (WAV, MP3, a synthetic passing siren) and an Analyser that keeps a
// sliding window over them and produces 8-bit time-domain and spectrum data.
package capture

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/banshee-data/siren.report/internal/config"
	"github.com/banshee-data/siren.report/internal/pitch"
)

// AnalyserConfig mirrors the knobs of a browser AnalyserNode.
type AnalyserConfig struct {
	FFTSize               int     // window length in samples, power of two
	SmoothingTimeConstant float64 // weight of the previous spectrum, [0,1)
	MinDecibels           float64 // maps to spectrum byte 0
	MaxDecibels           float64 // maps to spectrum byte 255
}

// DefaultAnalyserConfig returns the built-in analyser defaults.
func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfigFromTuning(config.EmptyTuningConfig())
}

// AnalyserConfigFromTuning builds an AnalyserConfig from a loaded TuningConfig.
func AnalyserConfigFromTuning(cfg *config.TuningConfig) AnalyserConfig {
	return AnalyserConfig{
		FFTSize:               cfg.GetFFTSize(),
		SmoothingTimeConstant: cfg.GetSmoothingTimeConstant(),
		MinDecibels:           cfg.GetMinDecibels(),
		MaxDecibels:           cfg.GetMaxDecibels(),
	}
}

// Analyser holds the most recent FFTSize samples and the smoothed magnitude
// spectrum. It is not safe for concurrent use.
type Analyser struct {
	cfg        AnalyserConfig
	sampleRate float64

	samples  []float64 // newest sample last
	window   []float64 // Blackman coefficients
	fft      *fourier.FFT
	scratch  []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser returns an analyser for audio at sampleRate. The window starts
// out silent.
func NewAnalyser(cfg AnalyserConfig, sampleRate float64) *Analyser {
	n := cfg.FFTSize
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return &Analyser{
		cfg:        cfg,
		sampleRate: sampleRate,
		samples:    make([]float64, n),
		window:     window.Blackman(ones),
		fft:        fourier.NewFFT(n),
		scratch:    make([]float64, n),
		coeffs:     make([]complex128, n/2+1),
		smoothed:   make([]float64, n/2),
	}
}

// SampleRate returns the rate the analyser was built for.
func (a *Analyser) SampleRate() float64 { return a.sampleRate }

// Write slides the window forward by len(p) samples.
func (a *Analyser) Write(p []float64) {
	n := len(a.samples)
	if len(p) >= n {
		copy(a.samples, p[len(p)-n:])
		return
	}
	copy(a.samples, a.samples[len(p):])
	copy(a.samples[n-len(p):], p)
}

// Frame snapshots the current window. Each call also advances the spectral
// smoothing by one step, as reading an AnalyserNode does.
func (a *Analyser) Frame() pitch.Frame {
	return pitch.Frame{
		TimeDomain: a.timeDomain(),
		Spectrum:   a.spectrum(),
		SampleRate: a.sampleRate,
	}
}

// Reset silences the window and forgets the smoothed spectrum.
func (a *Analyser) Reset() {
	clear(a.samples)
	clear(a.smoothed)
}

func (a *Analyser) timeDomain() []uint8 {
	out := make([]uint8, len(a.samples))
	for i, x := range a.samples {
		out[i] = clampByte(math.Floor(128 * (1 + x)))
	}
	return out
}

func (a *Analyser) spectrum() []uint8 {
	n := len(a.samples)
	for i, x := range a.samples {
		a.scratch[i] = x * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.scratch)

	tau := a.cfg.SmoothingTimeConstant
	scale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	out := make([]uint8, len(a.smoothed))
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / float64(n)
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		if a.smoothed[k] <= 0 {
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		out[k] = clampByte(math.Floor(scale * (db - a.cfg.MinDecibels)))
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
