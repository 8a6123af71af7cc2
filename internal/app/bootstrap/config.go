// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/dalemusser/stratametrics/internal/app/system/kpiformat"
	"github.com/dalemusser/stratametrics/internal/app/system/reshape"
	"github.com/dalemusser/stratametrics/internal/app/system/timezones"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAMETRICS"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: sheet_source, spreadsheet_name, etc.
//   - Environment variables: STRATAMETRICS_SHEET_SOURCE, STRATAMETRICS_SPREADSHEET_NAME, etc.
//   - Command-line flags: --sheet_source, --spreadsheet_name, etc.
var appConfigKeys = []config.AppKey{
	// Spreadsheet source
	{Name: "sheet_source", Default: "google", Desc: "Where tabs are read from: 'google' or 'xlsx'"},
	{Name: "spreadsheet_name", Default: models.DefaultSiteName, Desc: "Google spreadsheet title (used when spreadsheet_id is empty)"},
	{Name: "spreadsheet_id", Default: "", Desc: "Google spreadsheet ID"},
	{Name: "credentials_file", Default: "", Desc: "Path to the service-account JSON file"},
	{Name: "credentials_json", Default: "", Desc: "Inline service-account JSON (wins over credentials_file)"},
	{Name: "xlsx_path", Default: "./indicadores.xlsx", Desc: "Workbook path when sheet_source is 'xlsx'"},
	{Name: "key_column", Default: models.DefaultKeyColumn, Desc: "Exact header of the metric name column"},
	{Name: "sections", Default: "", Desc: "Sections as 'slug=Tab|Title;...' (empty uses the four default tabs)"},

	// Sheet cache
	{Name: "cache_backend", Default: "memory", Desc: "Sheet cache backend: 'memory' or 'mongo'"},
	{Name: "cache_ttl", Default: "10m", Desc: "How long a fetched tab is served from cache"},
	{Name: "cache_warm_enabled", Default: false, Desc: "Re-fetch every tab on a schedule"},
	{Name: "cache_warm_schedule", Default: "@every 9m", Desc: "Cron schedule for the cache warmer"},

	// Number parsing and display
	{Name: "decimal_mode", Default: "auto", Desc: "Cell decimal separator: 'auto', 'comma' or 'dot'"},
	{Name: "display_locale", Default: "es", Desc: "BCP 47 locale for displayed numbers"},
	{Name: "display_timezone", Default: "", Desc: "Zone for fetch times, e.g. America/Mexico_City (empty uses server local time)"},

	// Site
	{Name: "site_name", Default: models.DefaultSiteName, Desc: "Title shown in the header"},
	{Name: "intro_html", Default: "", Desc: "Intro text shown above each section (sanitized HTML)"},
	{Name: "logo_key", Default: "", Desc: "Storage key of the header logo (empty for none)"},

	// File storage (logo)
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},

	// S3/CloudFront configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// MongoDB (only used when cache_backend is 'mongo')
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratametrics", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Observability and timeouts
	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},
	{Name: "api_cors_origins", Default: "", Desc: "Comma-separated origins allowed to read /api (empty allows any)"},
	{Name: "fetch_timeout", Default: "20s", Desc: "Timeout for loading one tab"},
	{Name: "export_timeout", Default: "60s", Desc: "Timeout for building one download"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATAMETRICS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		SheetSource:     strings.ToLower(strings.TrimSpace(appValues.String("sheet_source"))),
		SpreadsheetName: appValues.String("spreadsheet_name"),
		SpreadsheetID:   appValues.String("spreadsheet_id"),
		CredentialsFile: appValues.String("credentials_file"),
		CredentialsJSON: appValues.String("credentials_json"),
		XLSXPath:        appValues.String("xlsx_path"),
		KeyColumn:       appValues.String("key_column"),
		Sections:        appValues.String("sections"),

		CacheBackend:      strings.ToLower(strings.TrimSpace(appValues.String("cache_backend"))),
		CacheTTL:          appValues.Duration("cache_ttl", sheetcache.DefaultTTL),
		CacheWarmEnabled:  appValues.Bool("cache_warm_enabled"),
		CacheWarmSchedule: appValues.String("cache_warm_schedule"),

		DecimalMode:     appValues.String("decimal_mode"),
		DisplayLocale:   appValues.String("display_locale"),
		DisplayTimezone: strings.TrimSpace(appValues.String("display_timezone")),

		SiteName:  appValues.String("site_name"),
		IntroHTML: appValues.String("intro_html"),
		LogoKey:   appValues.String("logo_key"),

		// File storage
		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		// S3/CloudFront
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
		APICORSOrigins: splitList(appValues.String("api_cors_origins")),
		FetchTimeout:   appValues.Duration("fetch_timeout", 20*time.Second),
		ExportTimeout:  appValues.Duration("export_timeout", 60*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Every setting that would otherwise fail later (on the first request or when
// a background job first runs) is checked here so a bad deploy stops at boot.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.SheetSource {
	case "google":
		if appCfg.SpreadsheetID == "" && appCfg.SpreadsheetName == "" {
			return fmt.Errorf("spreadsheet_id or spreadsheet_name is required for the google source")
		}
		if appCfg.CredentialsJSON == "" && appCfg.CredentialsFile == "" {
			// Not fatal: the dashboard shows the load error per section.
			logger.Warn("no Google credentials configured; every section will fail to load")
		}
	case "xlsx":
		if appCfg.XLSXPath == "" {
			return fmt.Errorf("xlsx_path is required for the xlsx source")
		}
	default:
		return fmt.Errorf("unknown sheet_source %q (want google or xlsx)", appCfg.SheetSource)
	}

	if strings.TrimSpace(appCfg.KeyColumn) == "" {
		return fmt.Errorf("key_column must not be empty")
	}
	if _, err := models.ParseSections(appCfg.Sections); err != nil {
		return fmt.Errorf("invalid sections: %w", err)
	}
	if _, err := reshape.ParseDecimalMode(appCfg.DecimalMode); err != nil {
		return fmt.Errorf("invalid decimal_mode: %w", err)
	}
	if _, err := kpiformat.New(appCfg.DisplayLocale); err != nil {
		return fmt.Errorf("invalid display_locale: %w", err)
	}
	if _, err := timezones.Location(appCfg.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid display_timezone: %w", err)
	}
	if appCfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	if appCfg.CacheWarmEnabled {
		if _, err := cron.ParseStandard(appCfg.CacheWarmSchedule); err != nil {
			return fmt.Errorf("invalid cache_warm_schedule: %w", err)
		}
	}

	switch appCfg.CacheBackend {
	case "memory":
	case "mongo":
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	default:
		return fmt.Errorf("unknown cache_backend %q (want memory or mongo)", appCfg.CacheBackend)
	}

	return nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
