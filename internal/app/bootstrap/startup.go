// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratametrics/internal/app/resources"
	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/dalemusser/stratametrics/internal/app/system/charts"
	"github.com/dalemusser/stratametrics/internal/app/system/exporter"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/loadstats"
	"github.com/dalemusser/stratametrics/internal/app/system/reshape"
	"github.com/dalemusser/stratametrics/internal/app/system/sectionview"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/app/system/tasks"
	"github.com/dalemusser/stratametrics/internal/app/system/timeouts"
	"github.com/dalemusser/stratametrics/internal/app/system/timezones"
	"github.com/dalemusser/stratametrics/internal/app/system/viewdata"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived domain objects built once in Startup and
// shared by every handler.
type services struct {
	sections  []models.Section
	source    sheets.Source
	cache     sheetcache.Cache
	loader    *sheets.Loader
	builder   *sectionview.Builder
	formatter *kpiformat.Formatter
	charts    *charts.Renderer
	exporter  *exporter.Exporter
	stats     *loadstats.Recorder
}

// appServices is set by Startup and read by BuildHandler.
var appServices *services

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It builds the sheet loader and everything downstream of it, publishes the
// site settings to viewdata, and starts the background cache jobs. No tab is
// fetched here unless the cache warmer is enabled, so a spreadsheet outage
// never blocks boot.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	timeouts.Configure(timeouts.Config{
		Fetch:  appCfg.FetchTimeout,
		Export: appCfg.ExportTimeout,
	})

	svc, err := buildServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	appServices = svc

	loc, err := timezones.Location(appCfg.DisplayTimezone)
	if err != nil {
		return err
	}
	tzLabel := ""
	if appCfg.DisplayTimezone != "" {
		tzLabel = timezones.Label(appCfg.DisplayTimezone)
	}
	viewdata.Init(viewdata.Site{
		Name:          appCfg.SiteName,
		IntroHTML:     appCfg.IntroHTML,
		LogoKey:       appCfg.LogoKey,
		Sections:      svc.sections,
		Location:      loc,
		TimezoneLabel: tzLabel,
	}, deps.FileStorage)

	logger.Info("metrics dashboard ready",
		zap.String("source", svc.source.Name()),
		zap.String("cache_backend", appCfg.CacheBackend),
		zap.Duration("cache_ttl", appCfg.CacheTTL),
		zap.Int("sections", len(svc.sections)),
		zap.String("decimal_mode", string(svc.builder.Reshaper().Mode())),
		zap.String("display_locale", svc.formatter.Locale()),
	)

	return startTaskRunner(appCfg, svc, logger)
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	sections, err := models.ParseSections(appCfg.Sections)
	if err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	mode, err := reshape.ParseDecimalMode(appCfg.DecimalMode)
	if err != nil {
		return nil, err
	}
	f, err := kpiformat.New(appCfg.DisplayLocale)
	if err != nil {
		return nil, err
	}

	var src sheets.Source
	switch appCfg.SheetSource {
	case "xlsx":
		src = sheets.NewXLSXSource(appCfg.XLSXPath)
	default:
		src = sheets.NewGoogleSource(sheets.GoogleConfig{
			SpreadsheetID:   appCfg.SpreadsheetID,
			SpreadsheetName: appCfg.SpreadsheetName,
			CredentialsJSON: appCfg.CredentialsJSON,
			CredentialsFile: appCfg.CredentialsFile,
		}, logger)
	}

	var cache sheetcache.Cache
	if appCfg.CacheBackend == "mongo" && deps.MongoDatabase != nil {
		cache = sheetcache.NewMongo(deps.MongoDatabase, appCfg.CacheTTL)
	} else {
		cache = sheetcache.NewMemory(appCfg.CacheTTL)
	}

	var stats *loadstats.Recorder
	var metrics sheets.Metrics
	if appCfg.MetricsEnabled {
		stats = loadstats.NewRecorder()
		metrics = stats
	}

	loader := sheets.NewLoader(src, cache, sheets.Options{
		KeyColumn:    appCfg.KeyColumn,
		FetchTimeout: appCfg.FetchTimeout,
		Metrics:      metrics,
	}, logger)

	r := reshape.New(mode)
	c := charts.New(f)

	return &services{
		sections:  sections,
		source:    src,
		cache:     cache,
		loader:    loader,
		builder:   sectionview.NewBuilder(loader, r),
		formatter: f,
		charts:    c,
		exporter:  exporter.New(r, f, c),
		stats:     stats,
	}, nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner registers the cache jobs and starts the runner.
func startTaskRunner(appCfg AppConfig, svc *services, logger *zap.Logger) error {
	taskRunner = tasks.New(logger)

	if err := taskRunner.Register(tasks.CachePurgeJob(svc.cache, appCfg.CacheTTL, logger)); err != nil {
		return err
	}

	if appCfg.CacheWarmEnabled {
		tabs := make([]string, 0, len(svc.sections))
		for _, s := range svc.sections {
			tabs = append(tabs, s.Tab)
		}
		if err := taskRunner.Register(tasks.CacheWarmJob(svc.loader, tabs, appCfg.CacheWarmSchedule, logger)); err != nil {
			return err
		}
	}

	taskRunner.Start()
	return nil
}
