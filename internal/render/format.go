// Package render presents session snapshots: plain-text readouts, a PNG
// plot of the tone histories with their fitted Doppler curves, and the same
// chart as an interactive HTML page.
package render

import (
	"fmt"
	"math"

	"github.com/banshee-data/siren.report/internal/siren"
	"github.com/banshee-data/siren.report/internal/units"
)

// Placeholder is shown for undefined or non-finite quantities.
const Placeholder = "-"

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// FormatSpeed renders a speed held in m/s in the given display unit,
// e.g. "30.000 km/h".
func FormatSpeed(mps float64, unit string) string {
	if !finite(mps) {
		return Placeholder
	}
	return fmt.Sprintf("%.3f %s", units.ConvertSpeed(mps, unit), units.Label(unit))
}

// FormatOffset renders the listener's distance from the road, e.g. "5.000 m".
func FormatOffset(m float64) string {
	if !finite(m) {
		return Placeholder
	}
	return fmt.Sprintf("%.3f m", m)
}

// FormatPassTime renders the closest approach relative to now as
// "in 1.234 s" or "1.234 s ago".
func FormatPassTime(est siren.Estimate, now float64) string {
	if !finite(est.T0) || !finite(now) {
		return Placeholder
	}
	if est.T0 > now {
		return fmt.Sprintf("in %.3f s", est.T0-now)
	}
	return fmt.Sprintf("%.3f s ago", now-est.T0)
}

// Summary is the one-line readout printed after a refit.
func Summary(snap siren.Snapshot, unit string) string {
	return fmt.Sprintf("t=%.3fs speed=%s offset=%s pass=%s high=%d low=%d",
		snap.Now,
		FormatSpeed(snap.Estimate.Speed, unit),
		FormatOffset(snap.Estimate.Offset),
		FormatPassTime(snap.Estimate, snap.Now),
		len(snap.High), len(snap.Low))
}
