package siren

import (
	"math"

	"github.com/banshee-data/siren.report/internal/doppler"
)

// Fitter constants.
const (
	RoughResolution = 4   // candidates per side in each rough pass
	FitRounds       = 6   // refinement rounds after the bootstrap pass
	ShrinkFactor    = 0.6 // step multiplier once a parameter has settled

	initialSpeedSpan  = 20 / 3.6 // 20 km/h in m/s
	initialOffsetSpan = 5.0      // m
	initialT0Span     = 100.0    // s
)

// Estimator fits the Doppler model for both siren tones to their
// observation histories by coarse-to-fine search.
type Estimator struct {
	HighToneHz   float64
	LowToneHz    float64
	SpeedOfSound float64
	Sweep        Sweep
}

// MeanSquaredError returns the pooled mean squared residual of est over both
// histories. ok is false when there are no observations. The value may be
// non-finite when the model is undefined at an observation time.
func (e Estimator) MeanSquaredError(high, low []Observation, est Estimate) (float64, bool) {
	n := len(high) + len(low)
	if n == 0 {
		return 0, false
	}
	var sum float64
	for _, o := range high {
		r := o.Frequency - doppler.Predict(e.HighToneHz, o.Time, est.Speed, est.Offset, est.T0, e.SpeedOfSound)
		sum += r * r
	}
	for _, o := range low {
		r := o.Frequency - doppler.Predict(e.LowToneHz, o.Time, est.Speed, est.Offset, est.T0, e.SpeedOfSound)
		sum += r * r
	}
	return sum / float64(n), true
}

// RoughPass evaluates candidates spaced span/n apart on each side of center
// and returns the one with the lowest finite error. span holds the
// per-parameter half-widths. ok is false when there are no observations or no
// candidate has a finite error.
func (e Estimator) RoughPass(high, low []Observation, center, span Estimate, n int) (Estimate, bool) {
	if len(high)+len(low) == 0 || n < 1 {
		return center, false
	}
	step := Estimate{
		Speed:  span.Speed / float64(n),
		Offset: span.Offset / float64(n),
		T0:     span.T0 / float64(n),
	}

	var s search
	switch e.Sweep {
	case SweepAxis:
		cur := center
		for axis := 0; axis < 3; axis++ {
			var line search
			for i := -n; i <= n; i++ {
				line.try(e, high, low, shift(cur, step, axis, i))
			}
			if line.found {
				cur = line.best
				s.consider(line.best, line.err)
			}
		}
	case SweepGrid:
		for i := -n; i <= n; i++ {
			for j := -n; j <= n; j++ {
				for k := -n; k <= n; k++ {
					s.try(e, high, low, Estimate{
						Speed:  center.Speed + float64(i)*step.Speed,
						Offset: center.Offset + float64(j)*step.Offset,
						T0:     center.T0 + float64(k)*step.T0,
					})
				}
			}
		}
	default:
		for i := -n; i <= n; i++ {
			f := float64(i)
			s.try(e, high, low, Estimate{
				Speed:  center.Speed + f*step.Speed,
				Offset: center.Offset + f*step.Offset,
				T0:     center.T0 + f*step.T0,
			})
		}
	}

	if !s.found {
		return center, false
	}
	return s.best, true
}

// Fit refines start against the histories: one bootstrap rough pass followed
// by FitRounds passes, shrinking each parameter's span once it moves by less
// than that span between rounds. Negative speed and offset are folded back
// into the physical half-space. ok is false only when there are no
// observations.
func (e Estimator) Fit(high, low []Observation, start Estimate) (Estimate, bool) {
	if len(high)+len(low) == 0 {
		return start, false
	}
	span := Estimate{Speed: initialSpeedSpan, Offset: initialOffsetSpan, T0: initialT0Span}

	cur := start
	if next, ok := e.RoughPass(high, low, cur, span, RoughResolution); ok {
		cur = next
	}

	for round := 0; round < FitRounds; round++ {
		prev := cur
		if next, ok := e.RoughPass(high, low, cur, span, RoughResolution); ok {
			cur = next
		}
		if cur.Speed < 0 {
			cur.Speed = -cur.Speed
			cur.T0 = -cur.T0
		}
		if cur.Offset < 0 {
			cur.Offset = -cur.Offset
		}
		if math.Abs(cur.Speed-prev.Speed) < span.Speed {
			span.Speed *= ShrinkFactor
		}
		if math.Abs(cur.Offset-prev.Offset) < span.Offset {
			span.Offset *= ShrinkFactor
		}
		if math.Abs(cur.T0-prev.T0) < span.T0 {
			span.T0 *= ShrinkFactor
		}
	}
	return cur, true
}

// search tracks the lowest finite error seen; ties keep the earlier candidate.
type search struct {
	best  Estimate
	err   float64
	found bool
}

func (s *search) try(e Estimator, high, low []Observation, c Estimate) {
	v, _ := e.MeanSquaredError(high, low, c)
	s.consider(c, v)
}

func (s *search) consider(c Estimate, v float64) {
	if !isFinite(v) {
		return
	}
	if !s.found || v < s.err {
		s.best, s.err, s.found = c, v, true
	}
}

func shift(c, step Estimate, axis, i int) Estimate {
	f := float64(i)
	switch axis {
	case 0:
		c.Speed += f * step.Speed
	case 1:
		c.Offset += f * step.Offset
	default:
		c.T0 += f * step.T0
	}
	return c
}
