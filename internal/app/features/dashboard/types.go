// internal/app/features/dashboard/types.go
package dashboard

import (
	"fmt"

	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/sectionview"
	"github.com/dalemusser/stratametrics/internal/app/system/viewdata"
	"github.com/dalemusser/stratametrics/internal/domain/models"
)

// PeriodOption is one checkbox of the month filter.
type PeriodOption struct {
	Label   string
	Checked bool
}

// TableRow is one metric row of the filtered table.
type TableRow struct {
	Name     string
	Cells    []string
	Selected bool
}

// KPI is one labelled summary value.
type KPI struct {
	Label string
	Value string
}

// MetricCard shows the summary and chart of one selected metric.
type MetricCard struct {
	Name     string
	KPIs     []KPI
	Coverage string
	ChartURL string
}

// Link is a labelled URL.
type Link struct {
	Label string
	URL   string
}

// SectionVM is the view model for a section page.
type SectionVM struct {
	viewdata.BaseVM

	Section  models.Section
	Messages []sectionview.Message

	// Filter and table, set when the section is ready.
	Ready   bool
	Periods []PeriodOption
	Columns []string
	Rows    []TableRow

	// Selection results.
	Cards            []MetricCard
	Combined         bool
	CombinedChartURL string
	ShowLayout       bool
	Chart            string
	Layout           string
	ClearURL         string
	Exports          []Link

	FetchedAt string
	Cached    bool
}

// newSectionVM flattens a View into template-ready values. KPI cards use the
// metric-aware KPI format so rates show as percentages.
func newSectionVM(base viewdata.BaseVM, v *sectionview.View, f *kpiformat.Formatter) SectionVM {
	sectionURL := viewdata.SectionURL(v.Section.Slug)
	vm := SectionVM{
		BaseVM:   base,
		Section:  v.Section,
		Messages: v.Messages,
		Ready:    v.Ready(),
		Chart:    string(v.Chart()),
		Layout:   string(v.Query.Layout),
		Cached:   v.Cached,
	}
	if !v.FetchedAt.IsZero() {
		vm.FetchedAt = viewdata.Stamp(v.FetchedAt)
	}

	// The month filter is shown whenever the table has periods, so a user who
	// cleared every month can pick them again.
	for _, p := range v.Periods {
		vm.Periods = append(vm.Periods, PeriodOption{Label: p, Checked: v.IsPeriodSelected(p)})
	}

	if !vm.Ready {
		return vm
	}

	vm.Columns = v.Filtered.Columns
	for _, row := range v.Filtered.Rows {
		name := ""
		if len(row) > 0 {
			name = row[0]
		}
		vm.Rows = append(vm.Rows, TableRow{Name: name, Cells: row, Selected: v.IsSelected(name)})
	}

	// The workbook covers every section, so it only follows the month filter.
	workbook := Link{Label: "Libro completo (XLSX)", URL: withQuery("/export/workbook.xlsx", sectionview.Query{
		Months:   v.Query.Months,
		Filtered: v.Query.Filtered,
		Chart:    charts.KindLine,
	})}

	if len(v.Metrics) == 0 {
		vm.Exports = []Link{workbook}
		return vm
	}

	vm.ShowLayout = len(v.Metrics) > 1
	vm.Combined = v.Combined()
	vm.ClearURL = withQuery(sectionURL, v.Query.WithMetrics())
	if vm.Combined {
		vm.CombinedChartURL = withQuery(sectionURL+"/chart.svg", v.Query)
	}

	for _, m := range v.Displayable() {
		s := m.Summary
		card := MetricCard{
			Name: m.Name,
			KPIs: []KPI{
				{Label: "Promedio", Value: f.KPI(m.Name, s.Mean)},
				{Label: "Máximo", Value: f.KPI(m.Name, s.Max)},
				{Label: "Mínimo", Value: f.KPI(m.Name, s.Min)},
				{Label: "Último mes (" + s.LastPeriod + ")", Value: f.KPI(m.Name, s.Last)},
			},
			Coverage: fmt.Sprintf("%d de %d meses con datos", s.Count, s.Periods),
		}
		if !vm.Combined {
			one := v.Query.WithMetrics(m.Name)
			one.Layout = sectionview.LayoutSide
			card.ChartURL = withQuery(sectionURL+"/chart.svg", one)
		}
		vm.Cards = append(vm.Cards, card)
	}

	exportBase := sectionURL + "/export/"
	vm.Exports = []Link{
		{Label: "Datos seleccionados (CSV)", URL: withQuery(exportBase+"selected.csv", v.Query)},
		{Label: "Datos en formato largo (CSV)", URL: withQuery(exportBase+"tidy.csv", v.Query)},
		{Label: "Informe (PDF)", URL: withQuery(exportBase+"report.pdf", v.Query)},
		{Label: "Vista (JSON)", URL: withQuery(exportBase+"view.json", v.Query)},
	}
	vm.Exports = append(vm.Exports, workbook)
	return vm
}

func withQuery(path string, q sectionview.Query) string {
	if enc := q.Values().Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}
