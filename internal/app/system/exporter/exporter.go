// Package exporter writes dashboard data as CSV, XLSX and PDF downloads.
package exporter

import (
	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/reshape"
)

// Exporter shares the number parsing and display rules of the dashboard, so
// downloads match what the page shows.
type Exporter struct {
	reshaper *reshape.Reshaper
	fmt      *kpiformat.Formatter
	charts   *charts.Renderer
}

// New creates an Exporter. Nil arguments use defaults.
func New(r *reshape.Reshaper, f *kpiformat.Formatter, c *charts.Renderer) *Exporter {
	if r == nil {
		r = reshape.New(reshape.ModeAuto)
	}
	if f == nil {
		f = kpiformat.Default()
	}
	if c == nil {
		c = charts.New(f)
	}
	return &Exporter{reshaper: r, fmt: f, charts: c}
}

// sanitizeField neutralizes text that a spreadsheet would evaluate as a
// formula. Cells that parse as numbers are left alone so "-3,5" stays a value.
func (e *Exporter) sanitizeField(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		if _, ok := reshape.ParseValue(s, e.reshaper.Mode()); ok {
			return s
		}
		return "'" + s
	}
	return s
}
