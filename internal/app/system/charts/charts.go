// Package charts draws metric series as SVG (for the page) or PNG (for the PDF
// report).
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	chart "github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// Kind selects the chart type for a single metric.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// ParseKind maps a query value to a Kind. Anything unknown is a line chart.
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindBar)) {
		return KindBar
	}
	return KindLine
}

// Format is the output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == PNG {
		return chart.PNG
	}
	return chart.SVG
}

// Series is one metric to plot. Points hold only the periods that parsed.
type Series struct {
	Name   string
	Points []models.TidyObservation
}

// Size is the image size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when a zero Size is given.
var DefaultSize = Size{Width: 720, Height: 320}

// Renderer draws charts with axis labels formatted by one KPI formatter.
type Renderer struct {
	fmt *kpiformat.Formatter
}

// New creates a Renderer. A nil formatter uses the default locale.
func New(f *kpiformat.Formatter) *Renderer {
	if f == nil {
		f = kpiformat.Default()
	}
	return &Renderer{fmt: f}
}

// Metric draws one series as a line or bar chart. periods is the full list of
// period labels for the x axis, so skipped periods leave a gap.
func (r *Renderer) Metric(w io.Writer, format Format, kind Kind, periods []string, s Series, size Size) error {
	if len(s.Points) == 0 {
		return ErrNoData
	}
	size = size.orDefault()
	if kind == KindBar {
		return r.bar(w, format, s, size)
	}
	return r.lines(w, format, periods, []Series{s}, size, false)
}

// Combined draws several series on one line chart with a legend.
func (r *Renderer) Combined(w io.Writer, format Format, periods []string, series []Series, size Size) error {
	var plotted []Series
	for _, s := range series {
		if len(s.Points) > 0 {
			plotted = append(plotted, s)
		}
	}
	if len(plotted) == 0 {
		return ErrNoData
	}
	return r.lines(w, format, periods, plotted, size.orDefault(), true)
}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

func (r *Renderer) lines(w io.Writer, format Format, periods []string, series []Series, size Size, legend bool) error {
	pos := make(map[string]int, len(periods))
	ticks := make([]chart.Tick, 0, len(periods)+2)
	for i, p := range periods {
		if _, dup := pos[p]; !dup {
			pos[p] = i
		}
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: p})
	}
	xMin, xMax := 0.0, float64(len(periods)-1)
	// go-chart takes the x range from the ticks; one period needs blank
	// ticks on both sides so the range is not empty.
	if len(periods) == 1 {
		xMin, xMax = -1, 1
		ticks = append([]chart.Tick{{Value: -1}}, append(ticks, chart.Tick{Value: 1})...)
	}

	var all []float64
	out := make([]chart.Series, 0, len(series))
	for _, s := range series {
		cs := chart.ContinuousSeries{
			Name:  s.Name,
			Style: chart.Style{StrokeWidth: 2, DotWidth: 3},
		}
		for _, o := range s.Points {
			x, ok := pos[o.Period]
			if !ok {
				continue
			}
			cs.XValues = append(cs.XValues, float64(x))
			cs.YValues = append(cs.YValues, o.Value)
			all = append(all, o.Value)
		}
		if len(cs.XValues) == 0 {
			continue
		}
		// A single point has no segment to stroke; keep the dot.
		if len(cs.XValues) == 1 {
			cs.Style.StrokeWidth = 0
			cs.Style.DotWidth = 5
		}
		out = append(out, cs)
	}
	if len(out) == 0 {
		return ErrNoData
	}

	rate := len(series) == 1 && kpiformat.IsRateMetric(series[0].Name)

	ch := chart.Chart{
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Range:          yRange(all),
			ValueFormatter: r.axisFormatter(rate),
		},
		Series: out,
	}
	if legend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (r *Renderer) bar(w io.Writer, format Format, s Series, size Size) error {
	bars := make([]chart.Value, 0, len(s.Points))
	vals := make([]float64, 0, len(s.Points)+1)
	negative := false
	for _, o := range s.Points {
		bars = append(bars, chart.Value{Value: o.Value, Label: o.Period})
		vals = append(vals, o.Value)
		negative = negative || o.Value < 0
	}
	yr := yRange(append(vals, 0))
	if !negative {
		yr.Min = 0
	}

	barWidth := (size.Width - 80) / (2 * len(bars))
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 4 {
		barWidth = 4
	}

	bc := chart.BarChart{
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}},
		YAxis: chart.YAxis{
			Range:          yr,
			ValueFormatter: r.axisFormatter(kpiformat.IsRateMetric(s.Name)),
		},
		Bars: bars,
	}
	if err := bc.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// yRange pads the value span so flat or single-point series still get a
// non-zero axis.
func yRange(vals []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func (r *Renderer) axisFormatter(rate bool) chart.ValueFormatter {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return fmt.Sprint(v)
		}
		if rate {
			return r.fmt.Number(f, 1) + "%"
		}
		if math.Abs(f) < 10 && f != math.Trunc(f) {
			return r.fmt.Number(f, 1)
		}
		return r.fmt.Number(f, 0)
	}
}
