package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var palette = []string{
	"2563eb", // blue-600
	"dc2626", // red-600
	"16a34a", // green-600
	"d97706", // amber-600
	"7c3aed", // violet-600
	"0891b2", // cyan-600
	"db2777", // pink-600
	"4b5563", // gray-600
}

// RenderMetricChart renders a PNG line chart with one series per ticker.
// Tickers with fewer than two points cannot be drawn and are skipped.
func RenderMetricChart(metric string, series map[string][]Point) ([]byte, error) {
	tickers := make([]string, 0, len(series))
	for t, pts := range series {
		if len(pts) >= 2 {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("need at least 2 data points for one ticker")
	}
	sort.Strings(tickers)

	var all []chart.Series
	for i, t := range tickers {
		pts := series[t]
		xValues := make([]time.Time, len(pts))
		yValues := make([]float64, len(pts))
		for j, p := range pts {
			xValues[j] = p.At
			yValues[j] = p.Value
		}
		all = append(all, chart.TimeSeries{
			Name: t,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(palette[i%len(palette)]),
				StrokeWidth: 2,
			},
			XValues: xValues,
			YValues: yValues,
		})
	}

	graph := chart.Chart{
		Title:  metric,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("02 Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: all,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
