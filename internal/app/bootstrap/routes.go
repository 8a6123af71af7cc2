// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	dashboardfeature "github.com/dalemusser/stratametrics/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/stratametrics/internal/app/features/errors"
	exportsfeature "github.com/dalemusser/stratametrics/internal/app/features/exports"
	healthfeature "github.com/dalemusser/stratametrics/internal/app/features/health"
	metricsapifeature "github.com/dalemusser/stratametrics/internal/app/features/metricsapi"
	appresources "github.com/dalemusser/stratametrics/internal/app/resources"
	"github.com/dalemusser/stratametrics/internal/app/system/apicors"
	"github.com/dalemusser/stratametrics/internal/app/system/loadstats"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every page, download and API response is
// derived from the spreadsheet and the query string.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := appServices
	if svc == nil {
		return nil, fmt.Errorf("services not initialized; Startup must run before BuildHandler")
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	// Exports load several tabs, so the overall request budget sits above
	// the per-download timeout.
	r.Use(chimw.Timeout(appCfg.ExportTimeout + 10*time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(loadstats.Middleware(svc.stats))

	if svc.stats != nil {
		r.Handle("/metrics", svc.stats.Handler())
	}

	checks := []healthfeature.Check{healthfeature.SourceCheck(svc.source)}
	if deps.MongoClient != nil {
		checks = append(checks, healthfeature.MongoCheck(deps.MongoClient))
	}
	healthHandler := healthfeature.NewHandler(checks, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Handle("/static/*", fileserver.Handler("/static", "static"))
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	exportsHandler := exportsfeature.NewHandler(svc.builder, svc.sections, svc.exporter, svc.formatter, errLog, logger)
	r.Mount("/s/{section}/export", exportsfeature.SectionRoutes(exportsHandler))
	r.Mount("/export", exportsfeature.Routes(exportsHandler))

	apiHandler := metricsapifeature.NewHandler(svc.builder, svc.sections, svc.formatter, errLog, logger)
	r.Route("/api", func(r chi.Router) {
		r.Use(apicors.Middleware(appCfg.APICORSOrigins...))
		r.Mount("/", metricsapifeature.Routes(apiHandler))
	})

	dashboardHandler := dashboardfeature.NewHandler(svc.builder, svc.sections, svc.formatter, svc.charts, errLog, logger)
	r.Mount("/", dashboardfeature.Routes(dashboardHandler))

	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
