package metricsapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratametrics/internal/app/features/errors"
	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/dalemusser/stratametrics/internal/app/system/sectionview"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/app/system/viewdata"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSections = []models.Section{
	{Slug: "alcance", Title: "Alcance", Tab: "Alcance"},
	{Slug: "uso", Title: "Uso y Participación", Tab: "Uso"},
}

func newTestRouter(t *testing.T) (http.Handler, *sheets.MemorySource) {
	t.Helper()
	src := sheets.NewMemorySource(map[string][][]string{
		"Alcance": {
			{"Métrica", "Ene", "Feb", "Mar"},
			{"Usuarios totales", "100", "200", "150"},
			{"Tasa de crecimiento", "12,34%", "N/D", "10%"},
		},
		"Uso": {{"Métrica", "Ene"}},
	})
	logger := zap.NewNop()
	loader := sheets.NewLoader(src, sheetcache.NewMemory(time.Minute), sheets.Options{}, logger)
	viewdata.Init(viewdata.Site{Name: "Indicadores Internos", Sections: testSections}, nil)
	h := NewHandler(sectionview.NewBuilder(loader, nil), testSections, nil, errorsfeature.NewErrorLogger(logger), logger)
	return Routes(h), src
}

func getJSON(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestListSections(t *testing.T) {
	router, _ := newTestRouter(t)

	var resp listResponse
	code := getJSON(t, router, "/sections", &resp)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Indicadores Internos", resp.Site)
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "/s/uso", resp.Sections[1].URL)
}

func TestGetSection(t *testing.T) {
	router, _ := newTestRouter(t)

	var p sectionview.Payload
	code := getJSON(t, router, "/sections/alcance?months=Ene&months=Feb&filtered=1", &p)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", p.Status)
	assert.Equal(t, []string{"Métrica", "Ene", "Feb"}, p.Columns)
	assert.Len(t, p.Rows, 2)
	assert.Empty(t, p.Metrics)
	assert.Equal(t, []string{"Ene", "Feb", "Mar"}, p.Periods)
}

func TestGetSection_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	var p sectionview.Payload
	code := getJSON(t, router, "/sections/uso", &p)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "empty", p.Status)
	require.Len(t, p.Messages, 1)
	assert.Equal(t, sectionview.LevelInfo, p.Messages[0].Level)
}

func TestGetSection_LoadError(t *testing.T) {
	router, src := newTestRouter(t)
	src.FailWith(errors.New("permission denied"))

	var p sectionview.Payload
	code := getJSON(t, router, "/sections/alcance", &p)

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "error", p.Status)
	assert.Contains(t, p.Error, "permission denied")
}

func TestGetSection_Unknown(t *testing.T) {
	router, _ := newTestRouter(t)

	code := getJSON(t, router, "/sections/nope", nil)

	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetSummaries(t *testing.T) {
	router, _ := newTestRouter(t)

	q := url.Values{"metric": {"Usuarios totales", "Tasa de crecimiento"}}
	var p sectionview.Payload
	code := getJSON(t, router, "/sections/alcance/summaries?"+q.Encode(), &p)

	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, p.Rows, "summaries leave out the table")
	require.Len(t, p.Metrics, 2)

	users := p.Metrics[0]
	require.NotNil(t, users.Summary)
	assert.Equal(t, 150.0, users.Summary.Mean)
	assert.Equal(t, "Mar", users.Summary.LastPeriod)
	assert.Equal(t, "150", users.Display["last"])
	assert.False(t, users.Rate)

	rate := p.Metrics[1]
	assert.True(t, rate.Rate)
	assert.Equal(t, "11,17%", rate.Display["mean"])
	assert.Len(t, rate.Observations, 2)
}

func TestGetSummaries_RequiresMetric(t *testing.T) {
	router, _ := newTestRouter(t)

	code := getJSON(t, router, "/sections/alcance/summaries", nil)

	assert.Equal(t, http.StatusBadRequest, code)
}
