package analytics

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/abdul-hamid-achik/tally/internal/format"
)

// Palette of the light report theme.
var (
	inkColor     = drawing.ColorFromHex("2E3440")
	mutedColor   = drawing.ColorFromHex("4C566A")
	ruleColor    = drawing.ColorFromHex("D8DEE9")
	paperColor   = drawing.ColorFromHex("FFFFFF")
	revenueColor = drawing.ColorFromHex("5E81AC")
	countColor   = drawing.ColorFromHex("A3BE8C")

	sliceColors = []drawing.Color{
		drawing.ColorFromHex("5E81AC"),
		drawing.ColorFromHex("A3BE8C"),
		drawing.ColorFromHex("EBCB8B"),
		drawing.ColorFromHex("BF616A"),
		drawing.ColorFromHex("B48EAD"),
		drawing.ColorFromHex("88C0D0"),
		drawing.ColorFromHex("D08770"),
	}
)

type pngRenderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func renderPNG(r pngRenderer, what string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", what, err)
	}
	return buf.Bytes(), nil
}

func labelStyle() chart.Style {
	return chart.Style{FontColor: mutedColor, FontSize: 9}
}

func axisStyle() chart.Style {
	s := labelStyle()
	s.StrokeColor = ruleColor
	return s
}

func paper() chart.Style {
	return chart.Style{FillColor: paperColor}
}

// RevenueTrendChart plots daily revenue with the transaction count on a
// secondary axis. Dates that cannot be parsed are skipped.
func RevenueTrendChart(view *AnalyticsView, width, height int) ([]byte, error) {
	var (
		days    []time.Time
		revenue []float64
		counts  []float64
	)
	if view != nil {
		for _, p := range view.RevenueTrend {
			day, ok := format.ParseTime(p.Date)
			if !ok {
				continue
			}
			days = append(days, day)
			revenue = append(revenue, p.Revenue)
			counts = append(counts, float64(p.TransactionsCount))
		}
	}
	if len(days) < 2 {
		return placeholderChart(width, height, "No revenue data")
	}

	bg := paper()
	bg.Padding = chart.Box{Top: 24, Left: 64, Right: 56, Bottom: 16}

	graph := chart.Chart{
		Width:      width,
		Height:     height,
		Background: bg,
		Canvas:     paper(),
		XAxis: chart.XAxis{
			Style:          axisStyle(),
			ValueFormatter: chart.TimeDateValueFormatter,
			GridMajorStyle: chart.Style{StrokeColor: ruleColor, StrokeWidth: 1},
		},
		YAxis: chart.YAxis{
			Name:      "Revenue",
			NameStyle: labelStyle(),
			Style:     axisStyle(),
			ValueFormatter: func(v any) string {
				f, _ := v.(float64)
				return format.Number(f)
			},
		},
		YAxisSecondary: chart.YAxis{
			Name:      "Transactions",
			NameStyle: labelStyle(),
			Style:     axisStyle(),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Revenue",
				XValues: days,
				YValues: revenue,
				Style: chart.Style{
					StrokeColor: revenueColor,
					StrokeWidth: 2.5,
					FillColor:   revenueColor.WithAlpha(48),
				},
			},
			chart.TimeSeries{
				Name:    "Transactions",
				YAxis:   chart.YAxisSecondary,
				XValues: days,
				YValues: counts,
				Style: chart.Style{
					StrokeColor:     countColor,
					StrokeWidth:     2,
					StrokeDashArray: []float64{6, 3},
				},
			},
		},
	}
	legend := labelStyle()
	legend.FillColor = paperColor
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph, legend)}

	return renderPNG(graph, "revenue")
}

// ChannelChart draws each top channel's share of revenue as a donut.
// Channels without revenue are left out.
func ChannelChart(view *AnalyticsView, width, height int) ([]byte, error) {
	var slices []ChannelStat
	var total float64
	if view != nil {
		for _, c := range TopChannels(view.RevenueByChannel, ReportChannels) {
			if c.Revenue <= 0 {
				continue
			}
			slices = append(slices, c)
			total += c.Revenue
		}
	}
	if len(slices) == 0 {
		return placeholderChart(width, height, "No channel data")
	}

	values := make([]chart.Value, len(slices))
	for i, c := range slices {
		style := labelStyle()
		style.FillColor = sliceColors[i%len(sliceColors)]
		style.FontColor = inkColor
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", c.Channel, c.Revenue/total*100),
			Value: c.Revenue,
			Style: style,
		}
	}

	donut := chart.DonutChart{
		Width:      width,
		Height:     height,
		Background: paper(),
		Values:     values,
	}
	return renderPNG(donut, "channel")
}

// placeholderChart is a blank canvas with message centered on it.
func placeholderChart(width, height int, message string) ([]byte, error) {
	hidden := chart.Style{Hidden: true}
	unit := &chart.ContinuousRange{Min: 0, Max: 1}

	note := labelStyle()
	note.FontSize = 14
	note.FontColor = mutedColor

	graph := chart.Chart{
		Width:      width,
		Height:     height,
		Background: paper(),
		Canvas:     paper(),
		XAxis:      chart.XAxis{Style: hidden, Range: unit},
		YAxis:      chart.YAxis{Style: hidden, Range: unit},
		Series: []chart.Series{
			chart.AnnotationSeries{
				Style:       note,
				Annotations: []chart.Value2{{XValue: 0.5, YValue: 0.5, Label: message}},
			},
		},
	}
	return renderPNG(graph, "placeholder")
}
