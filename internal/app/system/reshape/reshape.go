package reshape

import (
	"github.com/dalemusser/stratametrics/internal/domain/models"
)

// Reshaper unpivots metric rows using one decimal mode.
type Reshaper struct {
	mode DecimalMode
}

// New creates a Reshaper. An empty mode behaves as ModeAuto.
func New(mode DecimalMode) *Reshaper {
	if mode == "" {
		mode = ModeAuto
	}
	return &Reshaper{mode: mode}
}

// Mode returns the decimal mode in use.
func (r *Reshaper) Mode() DecimalMode {
	return r.mode
}

// ParseCell parses one cell with the reshaper's decimal mode.
func (r *Reshaper) ParseCell(raw string) (float64, bool) {
	return ParseValue(raw, r.mode)
}

// Row pairs each period label with its cell and returns the observations that
// parsed, in column order. cells[i] belongs to periods[i]; missing cells count
// as blank.
func (r *Reshaper) Row(metric string, periods, cells []string) []models.TidyObservation {
	out := make([]models.TidyObservation, 0, len(periods))
	for i, period := range periods {
		var raw string
		if i < len(cells) {
			raw = cells[i]
		}
		v, ok := ParseValue(raw, r.mode)
		if !ok {
			continue
		}
		out = append(out, models.TidyObservation{Metric: metric, Period: period, Value: v})
	}
	return out
}

// TableRow reshapes row i of t. Tables without a key column have no metric
// names, so they yield nothing.
func (r *Reshaper) TableRow(t *models.MetricTable, i int) []models.TidyObservation {
	if t == nil || !t.HasKey || i < 0 || i >= len(t.Rows) {
		return nil
	}
	row := t.Rows[i]
	metric := t.Cell(i, 0)
	var cells []string
	if len(row) > 1 {
		cells = row[1:]
	}
	return r.Row(metric, t.Periods(), cells)
}

// Metric is one selected row after reshaping: its tidy observations and, when
// at least one period parsed, its summary.
type Metric struct {
	Name         string
	Row          int
	Observations []models.TidyObservation
	Summary      models.MetricSummary
	Displayable  bool
}

// Metric reshapes and summarizes row i of t.
func (r *Reshaper) Metric(t *models.MetricTable, i int) Metric {
	obs := r.TableRow(t, i)
	m := Metric{Name: t.Cell(i, 0), Row: i, Observations: obs}
	if s, ok := Summarize(obs); ok {
		s.Metric = m.Name
		s.Periods = len(t.Periods())
		m.Summary = s
		m.Displayable = true
	}
	return m
}

// Select reshapes the first row matching each name. Unknown names and
// repeated names are skipped; result order follows names.
func (r *Reshaper) Select(t *models.MetricTable, names []string) []Metric {
	seen := make(map[string]bool, len(names))
	var out []Metric
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		i := t.IndexOf(name)
		if i < 0 {
			continue
		}
		out = append(out, r.Metric(t, i))
	}
	return out
}
