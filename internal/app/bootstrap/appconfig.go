// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything here is
// specific to the metrics dashboard.
type AppConfig struct {
	// Spreadsheet source
	SheetSource     string // "google" or "xlsx"
	SpreadsheetName string // Title looked up through Drive when SpreadsheetID is empty
	SpreadsheetID   string // Google spreadsheet ID
	CredentialsFile string // Path to the service-account JSON
	CredentialsJSON string // Inline service-account JSON; wins over CredentialsFile
	XLSXPath        string // Workbook path for the xlsx source
	KeyColumn       string // Exact header of the metric column (default: Métrica)
	Sections        string // "slug=Tab|Title;..." (empty uses the default tabs)

	// Sheet cache
	CacheBackend      string        // "memory" or "mongo"
	CacheTTL          time.Duration // Cache window per tab (default: 10m)
	CacheWarmEnabled  bool          // Re-fetch every tab on CacheWarmSchedule
	CacheWarmSchedule string        // Cron spec or "@every" descriptor

	// Number parsing and display
	DecimalMode     string // "auto", "comma" or "dot"
	DisplayLocale   string // BCP 47 tag for displayed numbers (default: es)
	DisplayTimezone string // Curated zone ID for fetch times (empty: server local)

	// Site
	SiteName  string // Header title
	IntroHTML string // Sanitized before display
	LogoKey   string // Storage key of the header logo

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string // AWS region
	StorageS3Bucket    string // S3 bucket name
	StorageS3Prefix    string // Key prefix (e.g., "uploads/")
	StorageCFURL       string // CloudFront distribution URL
	StorageCFKeyPairID string // CloudFront key pair ID
	StorageCFKeyPath   string // Path to CloudFront private key file

	// MongoDB connection configuration (only used if CacheBackend is "mongo")
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	MetricsEnabled bool          // Serve /metrics
	APICORSOrigins []string      // Origins allowed to read /api; empty allows any
	FetchTimeout   time.Duration // Bound on loading one tab
	ExportTimeout  time.Duration // Bound on building one download
}
