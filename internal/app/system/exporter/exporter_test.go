package exporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/reshape"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() *models.MetricTable {
	return &models.MetricTable{
		Tab:       "Alcance",
		KeyColumn: models.DefaultKeyColumn,
		HasKey:    true,
		Columns:   []string{models.DefaultKeyColumn, "Ene", "Feb"},
		Rows: [][]string{
			{"Usuarios totales", "1.234.567", "N/D"},
			{"=HYPERLINK(\"x\")", "-3,5", "2"},
			{"Tasa de crecimiento", "12,5%", "10%"},
		},
	}
}

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(b, utf8BOM), "missing BOM")
	recs, err := csv.NewReader(bytes.NewReader(b[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestSelectedCSV(t *testing.T) {
	e := New(nil, nil, nil)
	var buf bytes.Buffer

	require.NoError(t, e.SelectedCSV(&buf, sample(), []int{2, 1, 99}))

	recs := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"Métrica", "Ene", "Feb"},
		{"Tasa de crecimiento", "12,5%", "10%"},
		{"'=HYPERLINK(\"x\")", "-3,5", "2"},
	}, recs)
	assert.Contains(t, buf.String(), "\r\n")
}

func TestTidyCSV(t *testing.T) {
	e := New(nil, nil, nil)
	obs := []models.TidyObservation{
		{Metric: "M1", Period: "Ene", Value: 10},
		{Metric: "M1", Period: "Feb", Value: 12.34},
	}
	var buf bytes.Buffer

	require.NoError(t, e.TidyCSV(&buf, obs))

	recs := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"metric", "period", "value"},
		{"M1", "Ene", "10"},
		{"M1", "Feb", "12.34"},
	}, recs)
}

func TestWorkbook(t *testing.T) {
	e := New(nil, nil, nil)
	filtered := sample().Filter([]string{"Ene"})
	var buf bytes.Buffer

	err := e.Workbook(&buf, []Sheet{
		{Name: "Alcance", Table: filtered},
		{Name: "Valor Público / Ahorro", Note: "Sin datos"},
		{Name: "Alcance", Table: filtered},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Alcance", "Valor Público - Ahorro", "Alcance (2)"}, f.GetSheetList())

	rows, err := f.GetRows("Alcance")
	require.NoError(t, err)
	assert.Equal(t, []string{"Métrica", "Ene"}, rows[0])
	assert.Equal(t, "Usuarios totales", rows[1][0])

	typ, err := f.GetCellType("Alcance", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "parsed values are stored as numbers")

	v, err := f.GetCellValue("Alcance", "B2")
	require.NoError(t, err)
	assert.Equal(t, "1234567", v)

	raw, err := f.GetCellValue("Alcance", "B4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12.5", raw, "rates are stored as plain numbers")
	shown, err := f.GetCellValue("Alcance", "B4")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(shown, "%"), "rate cell shown as %q, want a percent sign", shown)
	plain, err := f.GetCellValue("Alcance", "B2")
	require.NoError(t, err)
	assert.NotContains(t, plain, "%")

	note, err := f.GetCellValue("Valor Público - Ahorro", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sin datos", note)
}

func TestWorkbook_NoSheets(t *testing.T) {
	e := New(nil, nil, nil)
	var buf bytes.Buffer

	require.NoError(t, e.Workbook(&buf, nil))
	assert.NotZero(t, buf.Len())
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "Uso y Participación", sheetName("Uso y Participación", used))
	assert.Equal(t, "uso y participación (2)", sheetName("uso y participación", used))
	assert.Equal(t, "Uso y Participación (3)", sheetName("Uso y Participación", used))
	long := strings.Repeat("x", 40)
	assert.Len(t, []rune(sheetName(long, used)), maxSheetName)
	assert.Equal(t, "Hoja", sheetName(" ?* ", map[string]bool{}))
}

func TestReport(t *testing.T) {
	r := reshape.New(reshape.ModeAuto)
	tbl := sample()
	metrics := r.Select(tbl, []string{"Usuarios totales", "Tasa de crecimiento"})
	metrics = append(metrics, reshape.Metric{Name: "Sin datos"})
	e := New(r, nil, nil)
	var buf bytes.Buffer

	err := e.Report(&buf, Report{
		Title:       "Indicadores Internos",
		Section:     "Alcance",
		Periods:     tbl.Periods(),
		Metrics:     metrics,
		Kind:        charts.KindLine,
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestReport_NoMetrics(t *testing.T) {
	e := New(nil, nil, nil)
	var buf bytes.Buffer

	require.NoError(t, e.Report(&buf, Report{Title: "T", Section: "S"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
