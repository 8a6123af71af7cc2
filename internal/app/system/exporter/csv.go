package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/gocarina/gocsv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SelectedCSV writes the header and the given rows of t in wide form, as the
// table shows them. A UTF-8 BOM is written first so Excel detects the
// encoding.
func (e *Exporter) SelectedCSV(w io.Writer, t *models.MetricTable, rows []int) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = e.sanitizeField(c)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, i := range rows {
		if i < 0 || i >= len(t.Rows) {
			continue
		}
		rec := make([]string, len(t.Columns))
		for j := range t.Columns {
			rec[j] = e.sanitizeField(t.Cell(i, j))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// TidyCSV writes observations in long form with metric, period and value
// columns. Values use a dot decimal separator.
func (e *Exporter) TidyCSV(w io.Writer, obs []models.TidyObservation) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	rows := make([]models.TidyObservation, len(obs))
	for i, o := range obs {
		o.Metric = e.sanitizeField(o.Metric)
		o.Period = e.sanitizeField(o.Period)
		rows[i] = o
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write tidy rows: %w", err)
	}
	return nil
}
