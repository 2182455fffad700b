// Package doppler models the frequency a stationary listener hears from a
// siren moving past on a straight road.
package doppler

import "math"

// SpeedOfSound is the default propagation speed used by the model (m/s).
const SpeedOfSound = 340.0

// Predict returns the observed frequency at time t for a source emitting
// fSource Hz while travelling at constant speed v (m/s) along a straight
// line that passes offset metres from the listener, reaching the point of
// closest approach at t0.
//
// The listener sees a higher pitch while the source approaches (t < t0), the
// emitted pitch exactly at t0, and a lower pitch while it recedes. When both
// offset and (t - t0) are zero the geometry is undefined and the result is
// NaN; callers filter non-finite predictions.
func Predict(fSource, t, v, offset, t0, vSound float64) float64 {
	dt := t - t0
	dist := math.Sqrt(offset*offset + v*v*dt*dt)
	cos := v * dt / dist
	return vSound / (vSound + v*cos) * fSource
}

// SeedSpeed inverts the model for a single reading, assuming the source is
// heading straight at the listener (zero offset). It is a coarse bootstrap
// for the fitter, not an estimate in its own right.
func SeedSpeed(nominal, measured, vSound float64) float64 {
	return vSound * (nominal/measured - 1)
}

// Curve samples Predict every step seconds over [from, to] and returns the
// sample times and predicted frequencies. Non-finite predictions are skipped.
func Curve(fSource, v, offset, t0, vSound, from, to, step float64) (ts, fs []float64) {
	if step <= 0 || to < from {
		return nil, nil
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	ts = make([]float64, 0, n)
	fs = make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t := from + float64(i)*step
		f := Predict(fSource, t, v, offset, t0, vSound)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		ts = append(ts, t)
		fs = append(fs, f)
	}
	return ts, fs
}
