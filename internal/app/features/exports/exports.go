// internal/app/features/exports/exports.go
package exports

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratametrics/internal/app/features/errors"
	"github.com/dalemusser/stratametrics/internal/app/system/exporter"
	"github.com/dalemusser/stratametrics/internal/app/system/jsonutil"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/normalize"
	"github.com/dalemusser/stratametrics/internal/app/system/sectionview"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/app/system/timeouts"
	"github.com/dalemusser/stratametrics/internal/app/system/viewdata"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// workbookConcurrency caps parallel tab loads for the workbook export.
const workbookConcurrency = 4

// Handler serves file downloads of the current dashboard selection.
type Handler struct {
	builder  *sectionview.Builder
	sections []models.Section
	exp      *exporter.Exporter
	fmt      *kpiformat.Formatter
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new exports Handler.
func NewHandler(
	builder *sectionview.Builder,
	sections []models.Section,
	exp *exporter.Exporter,
	f *kpiformat.Formatter,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	if f == nil {
		f = kpiformat.Default()
	}
	if exp == nil {
		exp = exporter.New(builder.Reshaper(), f, nil)
	}
	return &Handler{
		builder:  builder,
		sections: sections,
		exp:      exp,
		fmt:      f,
		errLog:   errLog,
		logger:   logger,
	}
}

// SectionRoutes returns the per-section downloads. Mount at
// /s/{section}/export.
func SectionRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/selected.csv", h.selectedCSV)
	r.Get("/tidy.csv", h.tidyCSV)
	r.Get("/report.pdf", h.reportPDF)
	r.Get("/view.json", h.viewJSON)
	return r
}

// Routes returns the downloads that span every section. Mount at /export.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/workbook.xlsx", h.workbook)
	return r
}

// selection builds the current view for a per-section download. It writes the
// error response itself and returns nil when there is nothing to export.
func (h *Handler) selection(ctx context.Context, w http.ResponseWriter, r *http.Request) (*sectionview.View, bool) {
	sec, ok := models.FindSection(h.sections, chi.URLParam(r, "section"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	v := h.builder.Build(ctx, sec, sectionview.ParseQuery(r.URL.Query()))
	switch {
	case v.Status == sheets.StatusError:
		h.errLog.LogWithFields(r, "export load failed", v.Err, zap.String("section", sec.Slug))
		http.Error(w, "no se pudo cargar la sección", http.StatusBadGateway)
		return nil, false
	case len(v.Metrics) == 0:
		http.Error(w, messageText(v, "no hay métricas seleccionadas"), http.StatusBadRequest)
		return nil, false
	}
	return v, true
}

func (h *Handler) selectedCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.logger, "export selected csv")
	defer cancel()

	v, ok := h.selection(ctx, w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exp.SelectedCSV(&buf, v.Filtered, v.Rows()); err != nil {
		h.fail(w, r, "selected csv export failed", err)
		return
	}
	send(w, "text/csv; charset=utf-8", filename("datos", v.Section, "csv"), buf.Bytes())
}

func (h *Handler) tidyCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.logger, "export tidy csv")
	defer cancel()

	v, ok := h.selection(ctx, w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exp.TidyCSV(&buf, v.Observations()); err != nil {
		h.fail(w, r, "tidy csv export failed", err)
		return
	}
	send(w, "text/csv; charset=utf-8", filename("serie", v.Section, "csv"), buf.Bytes())
}

func (h *Handler) reportPDF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.logger, "export pdf report")
	defer cancel()

	v, ok := h.selection(ctx, w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := h.exp.Report(&buf, exporter.Report{
		Title:       viewdata.SiteName(),
		Section:     v.Section.Title,
		Periods:     v.Selected,
		Metrics:     v.Metrics,
		Kind:        v.Chart(),
		GeneratedAt: time.Now(),
	})
	if err != nil {
		h.fail(w, r, "pdf export failed", err)
		return
	}
	send(w, "application/pdf", filename("informe", v.Section, "pdf"), buf.Bytes())
}

// viewJSON downloads the view as JSON. Unlike the file exports it also
// answers when nothing is selected, since the table itself is useful.
func (h *Handler) viewJSON(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.logger, "export view json")
	defer cancel()

	sec, ok := models.FindSection(h.sections, chi.URLParam(r, "section"))
	if !ok {
		jsonutil.NotFound(w, "unknown section")
		return
	}
	v := h.builder.Build(ctx, sec, sectionview.ParseQuery(r.URL.Query()))
	if v.Status == sheets.StatusError {
		h.errLog.LogWithFields(r, "export load failed", v.Err, zap.String("section", sec.Slug))
	}
	jsonutil.Attachment(w, filename("vista", sec, "json"), v.Payload(h.fmt, true))
}

// workbook writes one worksheet per section, each restricted to the selected
// months. Tabs are loaded concurrently; a failed tab becomes a note on its
// sheet instead of failing the download.
func (h *Handler) workbook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.logger, "export workbook")
	defer cancel()

	q := sectionview.ParseQuery(r.URL.Query()).WithMetrics()

	sheetsOut := make([]exporter.Sheet, len(h.sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workbookConcurrency)
	for i, sec := range h.sections {
		g.Go(func() error {
			v := h.builder.Build(gctx, sec, q)
			sheetsOut[i] = sheetFor(v)
			if v.Status == sheets.StatusError {
				h.errLog.LogWithFields(r, "workbook section failed", v.Err, zap.String("section", sec.Slug))
			}
			return nil
		})
	}
	_ = g.Wait()

	var buf bytes.Buffer
	if err := h.exp.Workbook(&buf, sheetsOut); err != nil {
		h.fail(w, r, "workbook export failed", err)
		return
	}
	name := "indicadores-" + normalize.Filename(viewdata.SiteName()) + ".xlsx"
	send(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, buf.Bytes())
}

// sheetFor turns a view into a worksheet. Views that are not ready get their
// messages as a note in place of the table.
func sheetFor(v *sectionview.View) exporter.Sheet {
	s := exporter.Sheet{Name: v.Section.Title}
	if v.Ready() {
		s.Table = v.Filtered
		return s
	}
	s.Note = messageText(v, "No hay datos disponibles para esta sección.")
	return s
}

func messageText(v *sectionview.View, fallback string) string {
	var parts []string
	for _, m := range v.Messages {
		parts = append(parts, m.Text)
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, " ")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.errLog.Log(r, msg, err)
	http.Error(w, "export failed", http.StatusInternalServerError)
}

func filename(prefix string, sec models.Section, ext string) string {
	return prefix + "-" + normalize.Filename(sec.Title) + "." + ext
}

func send(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
