package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/siren.report/internal/siren"
)

// WriteHTML renders snap as a self-contained go-echarts page.
func WriteHTML(w io.Writer, snap siren.Snapshot, p siren.Params, unit string) error {
	series := BuildSeries(snap, p)

	subtitle := fmt.Sprintf("session=%s speed=%s offset=%s pass=%s",
		snap.SessionID,
		FormatSpeed(snap.Estimate.Speed, unit),
		FormatOffset(snap.Estimate.Offset),
		FormatPassTime(snap.Estimate, snap.Now))

	xAxis := opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}
	yAxis := opts.YAxis{Type: "value", Name: "Frequency (Hz)", NameLocation: "middle", NameGap: 40}
	if tMin, tMax, fMin, fMax, ok := bounds(series); ok {
		xAxis.Min, xAxis.Max = tMin-0.5, tMax+0.5
		yAxis.Min, yAxis.Max = fMin-20, fMax+20
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "siren.report", Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Siren frequency history", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
	)

	for _, s := range series {
		data := make([]opts.ScatterData, len(s.T))
		for i := range s.T {
			data[i] = opts.ScatterData{Value: []interface{}{s.T[i], s.F[i]}}
		}
		size := 5
		if s.Fit {
			size = 2
		}
		scatter.AddSeries(s.Name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color: fmt.Sprintf("rgb(%d,%d,%d)", s.Color.R, s.Color.G, s.Color.B),
			}),
		)
	}

	page := components.NewPage()
	page.PageTitle = "siren.report"
	page.AddCharts(scatter)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
