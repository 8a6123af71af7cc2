package exporter

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/reshape"
	"github.com/go-pdf/fpdf"
)

// Report is the input of the PDF export.
type Report struct {
	Title       string
	Section     string
	Periods     []string
	Metrics     []reshape.Metric
	Kind        charts.Kind
	GeneratedAt time.Time
}

var reportChartSize = charts.Size{Width: 900, Height: 400}

// Report writes a PDF with one page per displayable metric: the formatted
// summary values and a chart image. Metrics without parsed values are listed
// on a closing page instead.
func (e *Exporter) Report(w io.Writer, rep Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("%s - %s", rep.Title, rep.Section), true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetMargins(15, 15, 15)

	var skipped []string
	pages := 0
	for i, m := range rep.Metrics {
		if !m.Displayable {
			skipped = append(skipped, m.Name)
			continue
		}
		pages++
		pdf.AddPage()
		e.pageHeader(pdf, tr, rep)
		e.metricBlock(pdf, tr, m)

		var img bytes.Buffer
		series := charts.Series{Name: m.Name, Points: m.Observations}
		if err := e.charts.Metric(&img, charts.PNG, rep.Kind, rep.Periods, series, reportChartSize); err != nil {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(0, 8, tr("Gráfico no disponible: "+err.Error()), "", 1, "L", false, 0, "")
			continue
		}
		name := fmt.Sprintf("chart-%d", i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, &img)
		pdf.ImageOptions(name, 15, pdf.GetY()+4, 180, 0, false, opts, 0, "")
	}

	if pages == 0 || len(skipped) > 0 {
		pdf.AddPage()
		e.pageHeader(pdf, tr, rep)
		pdf.SetFont("Helvetica", "", 11)
		if pages == 0 && len(skipped) == 0 {
			pdf.CellFormat(0, 8, tr("No hay métricas seleccionadas."), "", 1, "L", false, 0, "")
		}
		if len(skipped) > 0 {
			pdf.CellFormat(0, 8, tr("Métricas sin valores numéricos en los periodos seleccionados:"), "", 1, "L", false, 0, "")
			for _, name := range skipped {
				pdf.CellFormat(0, 7, tr("- "+name), "", 1, "L", false, 0, "")
			}
		}
	}

	return pdf.Output(w)
}

func (e *Exporter) pageHeader(pdf *fpdf.Fpdf, tr func(string) string, rep Report) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(rep.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(rep.Section), "", 1, "L", false, 0, "")
	if !rep.GeneratedAt.IsZero() {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, tr("Generado "+rep.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (e *Exporter) metricBlock(pdf *fpdf.Fpdf, tr func(string) string, m reshape.Metric) {
	s := m.Summary

	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(0, 7, tr(m.Name), "", "L", false)
	pdf.Ln(2)

	labels := []string{"Promedio", "Máximo", "Mínimo", "Último (" + s.LastPeriod + ")"}
	values := []string{
		e.fmt.KPI(m.Name, s.Mean),
		e.fmt.KPI(m.Name, s.Max),
		e.fmt.KPI(m.Name, s.Min),
		e.fmt.KPI(m.Name, s.Last),
	}
	const cellW = 45
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range labels {
		pdf.CellFormat(cellW, 6, tr(l), "LTR", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "B", 12)
	for _, v := range values {
		pdf.CellFormat(cellW, 9, tr(v), "LBR", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Periodos con datos: %d de %d", s.Count, s.Periods)), "", 1, "L", false, 0, "")
}
