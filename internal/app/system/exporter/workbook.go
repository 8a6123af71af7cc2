package exporter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of the workbook export.
type Sheet struct {
	Name  string
	Table *models.MetricTable
	// Note is written instead of the table when the table is empty or failed
	// to load.
	Note string
}

const maxSheetName = 31

// rateNumFmt shows a stored rate such as 12.5 as "12.50%" without scaling it
// by 100 the way Excel's built-in percent format would.
const rateNumFmt = `0.00"%"`

type sheetStyles struct {
	header int
	rate   int
}

var sheetNameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "-",
)

// sheetName makes s a valid, unique worksheet name.
func sheetName(s string, used map[string]bool) string {
	s = strings.TrimSpace(sheetNameReplacer.Replace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		s = "Hoja"
	}
	s = truncateRunes(s, maxSheetName)

	name := s
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(s, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Workbook writes one worksheet per sheet. Period cells that parse as numbers
// are stored as numbers; everything else is stored as text. Rate rows and
// cells written with a trailing "%" keep the percent sign through a number
// format.
func (e *Exporter) Workbook(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	numFmt := rateNumFmt
	rate, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("create rate style: %w", err)
	}
	styles := sheetStyles{header: bold, rate: rate}

	used := map[string]bool{}
	first := true
	for _, s := range sheets {
		name := sheetName(s.Name, used)
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename first sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := e.fillSheet(f, name, s, styles); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	if first {
		if err := f.SetCellStr("Sheet1", "A1", "Sin datos"); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func (e *Exporter) fillSheet(f *excelize.File, name string, s Sheet, styles sheetStyles) error {
	t := s.Table
	if t == nil || len(t.Columns) == 0 {
		note := s.Note
		if note == "" {
			note = "Sin datos"
		}
		return f.SetCellStr(name, "A1", note)
	}

	for j, col := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(name, cell, col); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, styles.header); err != nil {
		return err
	}

	for i := range t.Rows {
		rateRow := t.HasKey && kpiformat.IsRateMetric(t.Cell(i, 0))
		for j := range t.Columns {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			raw := t.Cell(i, j)
			keyCell := t.HasKey && j == 0
			v, ok := e.reshaper.ParseCell(raw)
			if !ok || keyCell {
				if err := f.SetCellStr(name, cell, raw); err != nil {
					return err
				}
				continue
			}
			if err := f.SetCellFloat(name, cell, v, -1, 64); err != nil {
				return err
			}
			if rateRow || strings.HasSuffix(strings.TrimSpace(raw), "%") {
				if err := f.SetCellStyle(name, cell, cell, styles.rate); err != nil {
					return err
				}
			}
		}
	}

	if t.HasKey {
		if err := f.SetColWidth(name, "A", "A", 42); err != nil {
			return err
		}
	}
	if s.Note != "" {
		cell, err := excelize.CoordinatesToCellName(1, len(t.Rows)+3)
		if err != nil {
			return err
		}
		return f.SetCellStr(name, cell, s.Note)
	}
	return nil
}
