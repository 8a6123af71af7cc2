package sectionview

import (
	"time"

	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/domain/models"
)

// MetricPayload is one selected metric in JSON form. Display holds the
// locale-formatted KPI strings; Summary is nil when nothing parsed.
type MetricPayload struct {
	Name         string                   `json:"name"`
	Rate         bool                     `json:"rate"`
	Summary      *models.MetricSummary    `json:"summary"`
	Display      map[string]string        `json:"display,omitempty"`
	Observations []models.TidyObservation `json:"observations"`
}

// Payload is the JSON form of a View, shared by the view.json export and the
// metrics API.
type Payload struct {
	Section   models.Section  `json:"section"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Cached    bool            `json:"cached"`
	FetchedAt *time.Time      `json:"fetched_at,omitempty"`
	Messages  []Message       `json:"messages"`
	Periods   []string        `json:"periods"`
	Selected  []string        `json:"selected_periods"`
	Columns   []string        `json:"columns,omitempty"`
	Rows      [][]string      `json:"rows,omitempty"`
	Metrics   []MetricPayload `json:"metrics"`
}

// Payload converts v for JSON output. withTable includes the filtered rows.
func (v *View) Payload(f *kpiformat.Formatter, withTable bool) Payload {
	if f == nil {
		f = kpiformat.Default()
	}
	p := Payload{
		Section:  v.Section,
		Status:   v.Status.String(),
		Cached:   v.Cached,
		Messages: v.Messages,
		Periods:  v.Periods,
		Selected: v.Selected,
		Metrics:  make([]MetricPayload, 0, len(v.Metrics)),
	}
	if p.Messages == nil {
		p.Messages = []Message{}
	}
	if v.Err != nil && p.Status == "error" {
		p.Error = v.Err.Error()
	}
	if !v.FetchedAt.IsZero() {
		t := v.FetchedAt
		p.FetchedAt = &t
	}
	if withTable && v.Ready() {
		p.Columns = v.Filtered.Columns
		p.Rows = v.Filtered.Rows
	}

	for _, m := range v.Metrics {
		mp := MetricPayload{
			Name:         m.Name,
			Rate:         kpiformat.IsRateMetric(m.Name),
			Observations: m.Observations,
		}
		if mp.Observations == nil {
			mp.Observations = []models.TidyObservation{}
		}
		if m.Displayable {
			s := m.Summary
			mp.Summary = &s
			mp.Display = map[string]string{
				"mean": f.KPI(m.Name, s.Mean),
				"max":  f.KPI(m.Name, s.Max),
				"min":  f.KPI(m.Name, s.Min),
				"last": f.KPI(m.Name, s.Last),
			}
		}
		p.Metrics = append(p.Metrics, mp)
	}
	return p
}
