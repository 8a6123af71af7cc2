// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"bytes"
	"net/http"

	errorsfeature "github.com/dalemusser/stratametrics/internal/app/features/errors"
	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/sectionview"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/app/system/timeouts"
	"github.com/dalemusser/stratametrics/internal/app/system/viewdata"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the section pages and their charts.
type Handler struct {
	builder  *sectionview.Builder
	sections []models.Section
	fmt      *kpiformat.Formatter
	charts   *charts.Renderer
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(
	builder *sectionview.Builder,
	sections []models.Section,
	f *kpiformat.Formatter,
	c *charts.Renderer,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	if f == nil {
		f = kpiformat.Default()
	}
	if c == nil {
		c = charts.New(f)
	}
	return &Handler{
		builder:  builder,
		sections: sections,
		fmt:      f,
		charts:   c,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
	}
}

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.index)
	r.Get("/s/{section}", h.showSection)
	r.Get("/s/{section}/chart.svg", h.chart)
	return r
}

// index sends the visitor to the first section.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if len(h.sections) == 0 {
		h.errPages.NotFound(w, r)
		return
	}
	http.Redirect(w, r, viewdata.SectionURL(h.sections[0].Slug), http.StatusFound)
}

func (h *Handler) section(r *http.Request) (models.Section, bool) {
	return models.FindSection(h.sections, chi.URLParam(r, "section"))
}

func (h *Handler) build(r *http.Request, sec models.Section) *sectionview.View {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Fetch(), h.logger, "load section "+sec.Slug)
	defer cancel()

	v := h.builder.Build(ctx, sec, sectionview.ParseQuery(r.URL.Query()))
	if v.Status == sheets.StatusError {
		h.errLog.LogWithFields(r, "section load failed", v.Err,
			zap.String("section", sec.Slug),
			zap.String("tab", sec.Tab))
	}
	return v
}

// showSection renders one section with the filter, table, KPIs and charts.
func (h *Handler) showSection(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}

	v := h.build(r, sec)
	vm := newSectionVM(viewdata.New(r, sec.Title), v, h.fmt)

	templates.Render(w, r, "dashboard/section", vm)
}

// chart renders the chart for the current selection: one metric, or every
// selected metric when the combined layout is in effect.
func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	v := h.build(r, sec)
	series := v.Series()
	if len(series) == 0 {
		http.Error(w, "no chartable metric selected", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	var err error
	if v.Combined() {
		err = h.charts.Combined(&buf, charts.SVG, v.Selected, series, charts.DefaultSize)
	} else {
		err = h.charts.Metric(&buf, charts.SVG, v.Chart(), v.Selected, series[0], charts.DefaultSize)
	}
	if err != nil {
		h.errLog.LogWithFields(r, "chart render failed", err, zap.String("section", sec.Slug))
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", charts.SVG.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
