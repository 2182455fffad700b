// Package siren turns a stream of per-frame frequency readings into an
// estimate of a passing emergency vehicle's speed, lateral offset and time
// of closest approach, by fitting a Doppler model to its two siren tones.
package siren

import (
	"fmt"
	"math"
)

// Observation is one timestamped frequency reading attributed to a tone.
type Observation struct {
	Time      float64 `json:"time"`      // seconds since recording start
	Frequency float64 `json:"frequency"` // Hz
}

// Sample is one entry of the generic per-tick history.
type Sample struct {
	Time        float64 `json:"time"`
	Fundamental float64 `json:"frequency"`
	Dominant    float64 `json:"dominant_frequency"`
	Siren       float64 `json:"siren_frequency"`
}

// Estimate holds the fitted pass parameters.
type Estimate struct {
	Speed  float64 `json:"speed_mps"` // m/s along the road
	Offset float64 `json:"offset_m"`  // perpendicular distance from listener to road
	T0     float64 `json:"t0"`        // closest-approach time, same clock as Observation.Time
}

// IsFinite reports whether every parameter is a finite number.
func (e Estimate) IsFinite() bool {
	return isFinite(e.Speed) && isFinite(e.Offset) && isFinite(e.T0)
}

func (e Estimate) String() string {
	return fmt.Sprintf("speed=%.3fm/s offset=%.3fm t0=%.3fs", e.Speed, e.Offset, e.T0)
}

// Tone identifies which siren pitch a reading was attributed to.
type Tone int

const (
	ToneNone Tone = iota
	ToneHigh
	ToneLow
)

func (t Tone) String() string {
	switch t {
	case ToneHigh:
		return "high"
	case ToneLow:
		return "low"
	default:
		return "none"
	}
}

// MarshalText encodes the tone by name.
func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
