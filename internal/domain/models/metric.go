// internal/domain/models/metric.go
package models

import "time"

// DefaultKeyColumn is the header that names the metric column in every tab.
const DefaultKeyColumn = "Métrica"

// MetricTable is one tab of the source spreadsheet: one row per metric and one
// column per reporting period. When HasKey is true, Columns[0] is the key column.
//
// Metric names are not unique by construction; lookups treat the first
// occurrence as authoritative. Period columns keep source order.
type MetricTable struct {
	Tab       string     `bson:"tab" json:"tab"`
	KeyColumn string     `bson:"key_column" json:"key_column"`
	HasKey    bool       `bson:"has_key" json:"has_key"`
	Columns   []string   `bson:"columns" json:"columns"`
	Rows      [][]string `bson:"rows" json:"rows"`
	FetchedAt time.Time  `bson:"fetched_at" json:"fetched_at"`
}

// IsEmpty reports whether the table has no data rows.
func (t *MetricTable) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// Periods returns the non-key column labels in source order.
func (t *MetricTable) Periods() []string {
	if t == nil {
		return nil
	}
	if !t.HasKey {
		return append([]string(nil), t.Columns...)
	}
	return append([]string(nil), t.Columns[1:]...)
}

// MetricNames returns the key cell of every row, duplicates included.
func (t *MetricTable) MetricNames() []string {
	if t == nil || !t.HasKey {
		return nil
	}
	names := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		names = append(names, cell(row, 0))
	}
	return names
}

// IndexOf returns the index of the first row whose metric name equals name,
// or -1 when no row matches.
func (t *MetricTable) IndexOf(name string) int {
	if t == nil || !t.HasKey {
		return -1
	}
	for i, row := range t.Rows {
		if cell(row, 0) == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when out of range.
func (t *MetricTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	return cell(t.Rows[row], col)
}

// Filter returns a new table holding the key column plus the given periods, in
// the order they appear in the source. Unknown periods are ignored. The
// receiver is not modified.
func (t *MetricTable) Filter(periods []string) *MetricTable {
	keep := make(map[string]bool, len(periods))
	for _, p := range periods {
		keep[p] = true
	}

	var idx []int
	if t.HasKey {
		idx = append(idx, 0)
	}
	for i, col := range t.Columns {
		if t.HasKey && i == 0 {
			continue
		}
		if keep[col] {
			idx = append(idx, i)
		}
	}

	out := &MetricTable{
		Tab:       t.Tab,
		KeyColumn: t.KeyColumn,
		HasKey:    t.HasKey,
		Columns:   make([]string, 0, len(idx)),
		Rows:      make([][]string, 0, len(t.Rows)),
		FetchedAt: t.FetchedAt,
	}
	for _, i := range idx {
		out.Columns = append(out.Columns, t.Columns[i])
	}
	for _, row := range t.Rows {
		nr := make([]string, 0, len(idx))
		for _, i := range idx {
			nr = append(nr, cell(row, i))
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// TidyObservation is one (metric, period, value) triple produced by unpivoting
// a MetricTable row.
type TidyObservation struct {
	Metric string  `json:"metric" csv:"metric"`
	Period string  `json:"period" csv:"period"`
	Value  float64 `json:"value" csv:"value"`
}

// MetricSummary aggregates the parsed observations of one metric.
// Count is the number of periods that parsed; Periods is how many were
// considered, so Count < Periods means some cells were dropped.
type MetricSummary struct {
	Metric     string  `json:"metric"`
	Mean       float64 `json:"mean"`
	Max        float64 `json:"max"`
	Min        float64 `json:"min"`
	Last       float64 `json:"last"`
	LastPeriod string  `json:"last_period"`
	Count      int     `json:"count"`
	Periods    int     `json:"periods"`
}

// Dropped returns how many periods were excluded because they did not parse.
func (s MetricSummary) Dropped() int {
	return s.Periods - s.Count
}
