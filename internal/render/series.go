package render

import (
	"image/color"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/siren.report/internal/doppler"
	"github.com/banshee-data/siren.report/internal/siren"
)

// CurveStep is the sampling interval of fitted curves, in seconds.
const CurveStep = 0.1

// Series is one named set of (time, frequency) points.
type Series struct {
	Name  string
	Color color.RGBA
	Fit   bool // a model curve rather than observations
	T     []float64
	F     []float64
}

var (
	highColor = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	lowColor  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// BuildSeries collects the tone observations of a snapshot and, for each
// non-empty tone, the fitted curve over that tone's time span. Empty series
// are omitted.
func BuildSeries(snap siren.Snapshot, p siren.Params) []Series {
	var out []Series
	tones := []struct {
		name    string
		nominal float64
		obs     []siren.Observation
		c       color.RGBA
	}{
		{"high tone", p.HighToneHz, snap.High, highColor},
		{"low tone", p.LowToneHz, snap.Low, lowColor},
	}

	for _, tone := range tones {
		if len(tone.obs) == 0 {
			continue
		}
		ts := make([]float64, len(tone.obs))
		fs := make([]float64, len(tone.obs))
		for i, o := range tone.obs {
			ts[i], fs[i] = o.Time, o.Frequency
		}
		out = append(out, Series{Name: tone.name, Color: tone.c, T: ts, F: fs})

		est := snap.Estimate
		if !est.IsFinite() {
			continue
		}
		ct, cf := doppler.Curve(tone.nominal, est.Speed, est.Offset, est.T0, p.SpeedOfSound,
			floats.Min(ts), floats.Max(ts), CurveStep)
		if len(ct) == 0 {
			continue
		}
		out = append(out, Series{Name: tone.name + " fit", Color: tone.c, Fit: true, T: ct, F: cf})
	}
	return out
}

// bounds returns the time and frequency extents across every series.
func bounds(series []Series) (tMin, tMax, fMin, fMax float64, ok bool) {
	for _, s := range series {
		if len(s.T) == 0 {
			continue
		}
		lt, ht := floats.Min(s.T), floats.Max(s.T)
		lf, hf := floats.Min(s.F), floats.Max(s.F)
		if !ok {
			tMin, tMax, fMin, fMax, ok = lt, ht, lf, hf, true
			continue
		}
		tMin, tMax = min(tMin, lt), max(tMax, ht)
		fMin, fMax = min(fMin, lf), max(fMax, hf)
	}
	return tMin, tMax, fMin, fMax, ok
}
