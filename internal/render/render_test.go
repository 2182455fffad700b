package render

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/siren.report/internal/doppler"
	"github.com/banshee-data/siren.report/internal/fsutil"
	"github.com/banshee-data/siren.report/internal/siren"
	"github.com/banshee-data/siren.report/internal/units"
)

func passSnapshot(p siren.Params) siren.Snapshot {
	est := siren.Estimate{Speed: 11, Offset: 5, T0: 6}
	snap := siren.Snapshot{SessionID: "test", Now: 10, Estimate: est}
	for i := 0; i < 40; i++ {
		t := 2 + float64(i)*0.1
		snap.High = append(snap.High, siren.Observation{
			Time:      t,
			Frequency: doppler.Predict(p.HighToneHz, t, est.Speed, est.Offset, est.T0, p.SpeedOfSound),
		})
		t2 := 7 + float64(i)*0.05
		snap.Low = append(snap.Low, siren.Observation{
			Time:      t2,
			Frequency: doppler.Predict(p.LowToneHz, t2, est.Speed, est.Offset, est.T0, p.SpeedOfSound),
		})
	}
	return snap
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "36.000 km/h", FormatSpeed(10, units.KPH))
	assert.Equal(t, "10.000 m/s", FormatSpeed(10, units.MPS))
	assert.Equal(t, "22.369 mph", FormatSpeed(10, units.MPH))
	assert.Equal(t, Placeholder, FormatSpeed(math.NaN(), units.KPH))
	assert.Equal(t, Placeholder, FormatSpeed(math.Inf(1), units.KPH))
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "5.000 m", FormatOffset(5))
	assert.Equal(t, Placeholder, FormatOffset(math.NaN()))
}

func TestFormatPassTime(t *testing.T) {
	tests := []struct {
		name string
		t0   float64
		now  float64
		want string
	}{
		{"upcoming", 6, 4.5, "in 1.500 s"},
		{"passed", 6, 8, "2.000 s ago"},
		{"now", 6, 6, "0.000 s ago"},
		{"undefined", math.NaN(), 6, Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPassTime(siren.Estimate{Speed: 1, Offset: 1, T0: tt.t0}, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummary(t *testing.T) {
	snap := siren.Snapshot{Now: 8, Estimate: siren.Estimate{Speed: 10, Offset: 5, T0: 6}}
	snap.High = make([]siren.Observation, 3)
	got := Summary(snap, units.KPH)
	assert.Equal(t, "t=8.000s speed=36.000 km/h offset=5.000 m pass=2.000 s ago high=3 low=0", got)
}

func TestBuildSeries(t *testing.T) {
	p := siren.DefaultParams()

	t.Run("empty snapshot", func(t *testing.T) {
		assert.Empty(t, BuildSeries(siren.Snapshot{}, p))
	})

	t.Run("observations and fits", func(t *testing.T) {
		snap := passSnapshot(p)
		series := BuildSeries(snap, p)
		require.Len(t, series, 4)

		names := make([]string, len(series))
		for i, s := range series {
			names[i] = s.Name
			assert.Len(t, s.F, len(s.T))
		}
		assert.Equal(t, []string{"high tone", "high tone fit", "low tone", "low tone fit"}, names)
		assert.False(t, series[0].Fit)
		assert.True(t, series[1].Fit)

		// The fit spans the observed window and matches the exact observations.
		fit := series[1]
		assert.InDelta(t, 2.0, fit.T[0], 1e-9)
		assert.LessOrEqual(t, fit.T[len(fit.T)-1], 5.9+1e-9)
		assert.InDelta(t, snap.High[0].Frequency, fit.F[0], 1e-6)
	})

	t.Run("non-finite estimate skips fits", func(t *testing.T) {
		snap := passSnapshot(p)
		snap.Estimate.Speed = math.NaN()
		series := BuildSeries(snap, p)
		require.Len(t, series, 2)
		for _, s := range series {
			assert.False(t, s.Fit)
		}
	})

	t.Run("single tone", func(t *testing.T) {
		snap := passSnapshot(p)
		snap.Low = nil
		series := BuildSeries(snap, p)
		require.Len(t, series, 2)
		assert.Equal(t, "high tone", series[0].Name)
	})
}

func TestBounds(t *testing.T) {
	_, _, _, _, ok := bounds(nil)
	assert.False(t, ok)

	tMin, tMax, fMin, fMax, ok := bounds([]Series{
		{T: []float64{1, 2}, F: []float64{900, 950}},
		{T: []float64{}, F: []float64{}},
		{T: []float64{0.5, 3}, F: []float64{760, 780}},
	})
	require.True(t, ok)
	assert.Equal(t, 0.5, tMin)
	assert.Equal(t, 3.0, tMax)
	assert.Equal(t, 760.0, fMin)
	assert.Equal(t, 950.0, fMax)
}

func TestSavePlot(t *testing.T) {
	p := siren.DefaultParams()
	dir := t.TempDir()

	t.Run("with observations", func(t *testing.T) {
		path := filepath.Join(dir, "pass.png")
		require.NoError(t, SavePlot(fsutil.OSFileSystem{}, path, passSnapshot(p), p, units.KPH))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})

	t.Run("empty snapshot as svg", func(t *testing.T) {
		mem := fsutil.NewMemoryFileSystem()
		require.NoError(t, SavePlot(mem, "/out/empty.svg", siren.Snapshot{}, p, units.KPH))
		data, err := mem.ReadFile("/out/empty.svg")
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	})

	t.Run("unsupported format", func(t *testing.T) {
		mem := fsutil.NewMemoryFileSystem()
		err := SavePlot(mem, "/out/pass.bmp", passSnapshot(p), p, units.KPH)
		assert.Error(t, err)
		_, statErr := mem.Stat("/out/pass.bmp")
		assert.Error(t, statErr, "nothing is written for an unsupported format")
	})

	t.Run("unwritable path", func(t *testing.T) {
		err := SavePlot(fsutil.OSFileSystem{}, filepath.Join(dir, "missing", "pass.png"), passSnapshot(p), p, units.KPH)
		assert.Error(t, err)
	})
}

func TestWriteHTML(t *testing.T) {
	p := siren.DefaultParams()
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, passSnapshot(p), p, units.KPH))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "high tone")
	assert.Contains(t, out, "low tone fit")
	assert.Contains(t, out, "Siren frequency history")
}
