// Package sectionview derives everything a dashboard section shows from the
// loaded table and the request's query string: the selected periods, the
// selected metrics with their summaries, and the messages to display.
//
// The page, the exports and the JSON API all build the same View, so a link
// copied from one surface reproduces the same selection on another.
package sectionview

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/normalize"
	"github.com/dalemusser/stratametrics/internal/app/system/reshape"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/domain/models"
)

// Layout is how several selected metrics are charted.
type Layout string

const (
	// LayoutSide draws one chart per metric.
	LayoutSide Layout = "side"
	// LayoutCombined draws every metric as a line on one chart.
	LayoutCombined Layout = "combined"
)

// Query is the dashboard state carried in the URL.
type Query struct {
	Months []string
	// Filtered marks a submitted filter form, so an empty Months means the
	// user cleared every month rather than never touching the filter.
	Filtered bool
	Metrics  []string
	Chart    charts.Kind
	Layout   Layout
}

// ParseQuery reads the dashboard state from query values.
func ParseQuery(v url.Values) Query {
	return Query{
		Months:   normalize.Values(v["months"]),
		Filtered: normalize.Flag(v.Get("filtered")),
		Metrics:  normalize.Values(v["metric"]),
		Chart:    charts.ParseKind(v.Get("chart")),
		Layout:   Layout(normalize.Choice(v.Get("layout"), string(LayoutSide), string(LayoutSide), string(LayoutCombined))),
	}
}

// Values encodes q back into query values, leaving out defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, m := range q.Months {
		v.Add("months", m)
	}
	if q.Filtered {
		v.Set("filtered", "1")
	}
	for _, m := range q.Metrics {
		v.Add("metric", m)
	}
	if q.Chart == charts.KindBar {
		v.Set("chart", string(charts.KindBar))
	}
	if q.Layout == LayoutCombined {
		v.Set("layout", string(LayoutCombined))
	}
	return v
}

// WithMetrics returns a copy of q selecting only names.
func (q Query) WithMetrics(names ...string) Query {
	q.Metrics = append([]string(nil), names...)
	q.Months = append([]string(nil), q.Months...)
	return q
}

// Level is the severity of an in-view message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is shown above the section content.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// View is one section as the user currently sees it.
type View struct {
	Section   models.Section
	Query     Query
	Status    sheets.Status
	Err       error
	Cached    bool
	FetchedAt time.Time

	// Table is the tab as loaded; never nil.
	Table *models.MetricTable
	// Periods lists every period column of Table.
	Periods []string
	// Selected is the effective period filter, in source order.
	Selected []string
	// Filtered is Table restricted to Selected; nil unless Ready.
	Filtered *models.MetricTable
	// Metrics are the selected rows reshaped against Filtered.
	Metrics []reshape.Metric

	Messages []Message
}

// Ready reports whether the table loaded with its key column and at least one
// period is selected, so rows can be listed and selected.
func (v *View) Ready() bool {
	return v.Filtered != nil
}

// Combined reports whether the selected metrics share one chart.
func (v *View) Combined() bool {
	return v.Query.Layout == LayoutCombined && len(v.Displayable()) > 1
}

// Chart is the chart kind in effect. Combined charts are always lines.
func (v *View) Chart() charts.Kind {
	if v.Combined() {
		return charts.KindLine
	}
	return v.Query.Chart
}

// Displayable returns the selected metrics that have at least one value.
func (v *View) Displayable() []reshape.Metric {
	out := make([]reshape.Metric, 0, len(v.Metrics))
	for _, m := range v.Metrics {
		if m.Displayable {
			out = append(out, m)
		}
	}
	return out
}

// Rows returns the row indices of the selected metrics, in selection order.
func (v *View) Rows() []int {
	rows := make([]int, 0, len(v.Metrics))
	for _, m := range v.Metrics {
		rows = append(rows, m.Row)
	}
	return rows
}

// Observations returns the tidy observations of every selected metric.
func (v *View) Observations() []models.TidyObservation {
	var out []models.TidyObservation
	for _, m := range v.Metrics {
		out = append(out, m.Observations...)
	}
	return out
}

// Series returns the chart series of the displayable metrics.
func (v *View) Series() []charts.Series {
	ms := v.Displayable()
	out := make([]charts.Series, 0, len(ms))
	for _, m := range ms {
		out = append(out, charts.Series{Name: m.Name, Points: m.Observations})
	}
	return out
}

// IsSelected reports whether the metric name is part of the selection.
func (v *View) IsSelected(name string) bool {
	for _, m := range v.Metrics {
		if m.Name == name {
			return true
		}
	}
	return false
}

// IsPeriodSelected reports whether period p passes the filter.
func (v *View) IsPeriodSelected(p string) bool {
	for _, s := range v.Selected {
		if s == p {
			return true
		}
	}
	return false
}

// Loader loads one tab. sheets.Loader implements it.
type Loader interface {
	Load(ctx context.Context, tab string) sheets.Result
	KeyColumn() string
}

// Builder builds Views.
type Builder struct {
	loader   Loader
	reshaper *reshape.Reshaper
}

// NewBuilder creates a Builder. A nil reshaper uses auto decimal mode.
func NewBuilder(loader Loader, r *reshape.Reshaper) *Builder {
	if r == nil {
		r = reshape.New(reshape.ModeAuto)
	}
	return &Builder{loader: loader, reshaper: r}
}

// Reshaper returns the reshaper used for selected metrics.
func (b *Builder) Reshaper() *reshape.Reshaper { return b.reshaper }

// Build loads the section's tab and applies q. Load problems become messages;
// Build never fails.
func (b *Builder) Build(ctx context.Context, sec models.Section, q Query) *View {
	res := b.loader.Load(ctx, sec.Tab)
	v := &View{
		Section: sec,
		Query:   q,
		Status:  res.Status,
		Err:     res.Err,
		Cached:  res.Cached,
		Table:   res.Table,
	}
	if v.Table == nil {
		v.Table = &models.MetricTable{Tab: sec.Tab}
	}
	v.FetchedAt = v.Table.FetchedAt

	switch res.Status {
	case sheets.StatusError:
		v.addf(LevelError, "Error al cargar la pestaña '%s': %v", sec.Tab, res.Err)
		return v
	case sheets.StatusEmpty:
		v.addf(LevelInfo, "No hay datos disponibles para esta sección.")
		return v
	}

	if !v.Table.HasKey {
		key := b.loader.KeyColumn()
		if key == "" {
			key = models.DefaultKeyColumn
		}
		v.addf(LevelWarning, "La primera columna de tu hoja de cálculo debe llamarse exactamente '%s'.", key)
		return v
	}

	v.Periods = v.Table.Periods()
	v.Selected = selectPeriods(v.Periods, q)
	if len(v.Selected) == 0 {
		v.addf(LevelWarning, "Debes seleccionar al menos un mes.")
		return v
	}

	v.Filtered = v.Table.Filter(v.Selected)
	v.Metrics = b.reshaper.Select(v.Filtered, q.Metrics)

	if len(v.Metrics) == 0 {
		v.addf(LevelInfo, "Selecciona una o más métricas de la tabla para ver sus estadísticas y gráficos.")
		return v
	}
	for _, m := range v.Metrics {
		if !m.Displayable {
			v.addf(LevelWarning, "'%s' no tiene valores numéricos en los meses seleccionados.", m.Name)
		}
	}
	return v
}

func (v *View) addf(level Level, format string, args ...any) {
	v.Messages = append(v.Messages, Message{Level: level, Text: fmt.Sprintf(format, args...)})
}

// selectPeriods applies the month filter. An untouched filter selects every
// period; otherwise only requested periods that exist are kept, in source
// order.
func selectPeriods(periods []string, q Query) []string {
	if len(q.Months) == 0 && !q.Filtered {
		return append([]string(nil), periods...)
	}
	want := make(map[string]bool, len(q.Months))
	for _, m := range q.Months {
		want[m] = true
	}
	var out []string
	for _, p := range periods {
		if want[p] {
			out = append(out, p)
		}
	}
	return out
}
