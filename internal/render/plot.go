package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/siren.report/internal/fsutil"
	"github.com/banshee-data/siren.report/internal/siren"
)

// SavePlot writes the tone histories and fitted curves of snap to path on
// fsys. The image format follows the file extension (.png, .svg, .pdf).
func SavePlot(fsys fsutil.FileSystem, path string, snap siren.Snapshot, p siren.Params, unit string) (err error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	pl := plot.New()
	pl.Title.Text = "Siren frequency history"
	pl.X.Label.Text = "Time (s)"
	pl.Y.Label.Text = "Frequency (Hz)"
	pl.Add(plotter.NewGrid())

	series := BuildSeries(snap, p)
	if len(series) == 0 {
		pl.Title.Text += " (no siren observations)"
	}
	for _, s := range series {
		xys := make(plotter.XYs, len(s.T))
		for i := range s.T {
			xys[i] = plotter.XY{X: s.T[i], Y: s.F[i]}
		}

		if s.Fit {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("failed to build %s line: %w", s.Name, err)
			}
			line.Color = s.Color
			line.Width = vg.Points(1)
			pl.Add(line)
			pl.Legend.Add(s.Name, line)
			continue
		}

		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("failed to build %s scatter: %w", s.Name, err)
		}
		scatter.GlyphStyle.Color = s.Color
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		pl.Add(scatter)
		pl.Legend.Add(s.Name, scatter)
	}

	if tMin, tMax, fMin, fMax, ok := bounds(series); ok {
		pl.X.Min, pl.X.Max = tMin-0.5, tMax+0.5
		pl.Y.Min, pl.Y.Max = fMin-20, fMax+20
	}
	if snap.Estimate.IsFinite() {
		pl.Title.Text += fmt.Sprintf("\nspeed %s, offset %s",
			FormatSpeed(snap.Estimate.Speed, unit), FormatOffset(snap.Estimate.Offset))
	}

	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10

	img, err := pl.WriterTo(10*vg.Inch, 5*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := img.WriteTo(f); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
