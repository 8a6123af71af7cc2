// internal/app/features/metricsapi/metricsapi.go
package metricsapi

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratametrics/internal/app/features/errors"
	"github.com/dalemusser/stratametrics/internal/app/system/jsonutil"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/sectionview"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/app/system/timeouts"
	"github.com/dalemusser/stratametrics/internal/app/system/viewdata"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the read-only JSON API over the configured sections.
type Handler struct {
	builder  *sectionview.Builder
	sections []models.Section
	fmt      *kpiformat.Formatter
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new metrics API Handler.
func NewHandler(builder *sectionview.Builder, sections []models.Section, f *kpiformat.Formatter, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if f == nil {
		f = kpiformat.Default()
	}
	return &Handler{
		builder:  builder,
		sections: sections,
		fmt:      f,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns the API router. Mount at /api.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/sections", h.listSections)
	r.Get("/sections/{section}", h.getSection)
	r.Get("/sections/{section}/summaries", h.getSummaries)
	return r
}

type sectionItem struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Tab   string `json:"tab"`
	URL   string `json:"url"`
}

type listResponse struct {
	Site     string        `json:"site"`
	Sections []sectionItem `json:"sections"`
}

func (h *Handler) listSections(w http.ResponseWriter, r *http.Request) {
	items := make([]sectionItem, 0, len(h.sections))
	for _, s := range h.sections {
		items = append(items, sectionItem{
			Slug:  s.Slug,
			Title: s.Title,
			Tab:   s.Tab,
			URL:   viewdata.SectionURL(s.Slug),
		})
	}
	jsonutil.OK(w, listResponse{Site: viewdata.SiteName(), Sections: items})
}

// getSection returns the section table restricted to the month filter, plus
// summaries for any metrics named in the query.
func (h *Handler) getSection(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

// getSummaries returns only the summaries of the requested metrics.
func (h *Handler) getSummaries(w http.ResponseWriter, r *http.Request) {
	q := sectionview.ParseQuery(r.URL.Query())
	if len(q.Metrics) == 0 {
		jsonutil.BadRequest(w, "at least one metric parameter is required")
		return
	}
	h.serve(w, r, false)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, withTable bool) {
	sec, ok := models.FindSection(h.sections, chi.URLParam(r, "section"))
	if !ok {
		jsonutil.NotFound(w, "unknown section")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Fetch(), h.logger, "api load section "+sec.Slug)
	defer cancel()

	v := h.builder.Build(ctx, sec, sectionview.ParseQuery(r.URL.Query()))
	p := v.Payload(h.fmt, withTable)
	if v.Status == sheets.StatusError {
		h.errLog.LogWithFields(r, "api section load failed", v.Err, zap.String("section", sec.Slug))
		jsonutil.JSON(w, http.StatusBadGateway, p)
		return
	}
	jsonutil.OK(w, p)
}
