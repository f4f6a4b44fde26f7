package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	ClinicAPI ClinicAPIConfig
	Reporting ReportingConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
	// SessionTTL is how long an idle console session is kept.
	SessionTTL time.Duration
	// SessionCapacity bounds the number of console sessions held at once.
	SessionCapacity int
}

// ClinicAPIConfig points the report fetcher at the clinic backend.
type ClinicAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ReportingConfig holds scheduler and export settings.
type ReportingConfig struct {
	CronSchedule  string
	Timezone      string
	ExportDir     string
	ExportEnabled bool
}

// SheetsConfig contains configuration required to publish rows to Google Sheets.
// Publishing is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// Enabled reports whether a target spreadsheet was configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for the export log. Logging is disabled when URI is empty.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether an export log database was configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	env := &envReader{}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			LogLevel:        getenvWithDefault("LOG_LEVEL", "info"),
			SessionTTL:      env.duration("CONSOLE_SESSION_TTL", 30*time.Minute),
			SessionCapacity: env.integer("CONSOLE_SESSION_CAPACITY", 1024),
		},
		ClinicAPI: ClinicAPIConfig{
			BaseURL: getenvWithDefault("CLINIC_API_BASE_URL", "http://localhost:5000/api"),
			Token:   os.Getenv("CLINIC_API_TOKEN"),
			Timeout: env.duration("CLINIC_API_TIMEOUT", 15*time.Second),
		},
		Reporting: ReportingConfig{
			CronSchedule:  getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:      getenvWithDefault("TIMEZONE", "UTC"),
			ExportDir:     getenvWithDefault("EXPORT_DIR", "exports"),
			ExportEnabled: env.boolean("EXPORT_ENABLED", true),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_RANGE", "Appointments!A:F"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "clinic_reports"),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Server.SessionTTL <= 0 {
		return errors.New("CONSOLE_SESSION_TTL must be positive")
	}
	if c.Server.SessionCapacity <= 0 {
		return errors.New("CONSOLE_SESSION_CAPACITY must be positive")
	}

	if c.ClinicAPI.BaseURL == "" {
		return errors.New("CLINIC_API_BASE_URL must be provided")
	}
	if u, err := url.Parse(c.ClinicAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CLINIC_API_BASE_URL %q must be an absolute URL", c.ClinicAPI.BaseURL)
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", c.Reporting.Timezone, err)
	}

	if c.Reporting.ExportEnabled {
		if c.Reporting.CronSchedule == "" {
			return errors.New("REPORT_CRON_SCHEDULE must be provided")
		}
		if c.Reporting.ExportDir == "" {
			return errors.New("EXPORT_DIR must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_DATABASE_ID is set")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

// Location returns the reporting time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envReader parses typed variables and collects every malformed value so
// Load can report them together.
type envReader struct {
	errs []error
}

// duration accepts whole seconds or a Go duration string.
func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q is not a duration: %w", key, v, err))
		return def
	}
	return d
}

func (r *envReader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q is not a boolean: %w", key, v, err))
		return def
	}
	return b
}

func (r *envReader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q is not an integer: %w", key, v, err))
		return def
	}
	return n
}
