// Package config provides centralized default values for CMI Charts
package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

// loadEnvFile applies overrides from a local .env file without replacing
// variables that are already set in the process environment.
func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			return
		}
		log.Println("Loaded configuration overrides from .env file")
	})
}

// envReader reads typed values from the environment and remembers every
// value it could not parse.
type envReader struct {
	errs []error
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, value, err))
}

func (r *envReader) getEnvInt(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		r.fail(key, valStr, err)
		return defaultValue
	}
	if val != defaultValue {
		log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
	}
	return val
}

func (r *envReader) getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func (r *envReader) getEnvBool(key string, defaultValue bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		r.fail(key, valStr, err)
		return defaultValue
	}
	if val != defaultValue {
		log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
	}
	return val
}

func (r *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		r.fail(key, valStr, err)
		return defaultValue
	}
	if val != defaultValue {
		log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
	}
	return val
}

// getChannelLevels collects LOG_LEVEL_<CHANNEL> overrides keyed by the
// lowercase channel name.
func (r *envReader) getChannelLevels() map[string]string {
	levels := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, channelLevelPrefix) || value == "" {
			continue
		}
		channel := strings.ToLower(strings.TrimPrefix(key, channelLevelPrefix))
		if channel == "" {
			continue
		}
		log.Printf("Config override: %s=%s", key, value)
		levels[channel] = value
	}
	return levels
}

const channelLevelPrefix = "LOG_LEVEL_"

// Config holds every setting the application reads at startup. It is built
// once by Load and passed down explicitly.
type Config struct {
	// Server
	Port               string
	ApplicationRoot    string
	DisplayName        string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	AllowedOrigins     []string

	// Forecast data
	ModelsPath    string
	ThumbSize     int
	WebPQuality   float32
	Timezone      string
	RetentionDays int

	// Scheduling
	IngestInterval    time.Duration
	RetentionInterval time.Duration

	// Database
	DBDriver string
	DBDSN    string

	// Sessions
	SecretKey       string
	SessionLifetime time.Duration
	SecureCookies   bool

	// Logging
	LogDirectory  string
	LogFormat     string
	LogLevel      string
	LogToFile     bool
	ChannelLevels map[string]string

	// Critical alerts
	ResendAPIKey string
	AdminMail    string
	AlertMailTo  string
}

// Load reads configuration from the environment (and .env), applying
// defaults where unset. Values that do not parse are reported as errors.
func Load() (*Config, error) {
	loadEnvFile()

	r := &envReader{}
	cfg := &Config{
		Port:               r.getEnvString("PORT", "4040"),
		ApplicationRoot:    normalizeRoot(r.getEnvString("APPLICATION_ROOT", "/")),
		DisplayName:        r.getEnvString("DISPLAY_NAME", "CMI_CHARTS"),
		ServerReadTimeout:  r.getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: r.getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		ServerIdleTimeout:  r.getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		AllowedOrigins:     splitList(r.getEnvString("ALLOWED_ORIGINS", "http://localhost:4040,http://127.0.0.1:4040")),

		ModelsPath:    r.getEnvString("MODELS_PATH", "static/data/models"),
		ThumbSize:     r.getEnvInt("THUMB_SIZE", 600),
		WebPQuality:   float32(r.getEnvInt("WEBP_QUALITY", 85)),
		Timezone:      r.getEnvString("TIMEZONE", "Europe/Rome"),
		RetentionDays: r.getEnvInt("RETENTION_DAYS", 8),

		IngestInterval:    r.getEnvDuration("INGEST_INTERVAL", 60*time.Second),
		RetentionInterval: r.getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),

		DBDriver: r.getEnvString("DB_DRIVER", "sqlite3"),
		DBDSN:    r.getEnvString("DB_DSN", "instance/cmi_charts.db"),

		SecretKey:       os.Getenv("SECRET_KEY"),
		SessionLifetime: r.getEnvDuration("SESSION_LIFETIME", 2*time.Hour),
		SecureCookies:   r.getEnvBool("SECURE_COOKIES", false),

		LogDirectory: r.getEnvString("LOG_DIR", "log"),
		LogFormat:    r.getEnvString("LOG_FORMAT", "json"),
		LogLevel:     r.getEnvString("LOG_LEVEL", "info"),
		LogToFile:    r.getEnvBool("LOG_TO_FILE", true),

		ChannelLevels: r.getChannelLevels(),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		AdminMail:    r.getEnvString("ADMIN_MAIL", "noreply@cmi-charts.local"),
		AlertMailTo:  os.Getenv("ALERT_MAIL_TO"),
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot repair with a default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModelsPath) == "" {
		return errors.New("MODELS_PATH is required")
	}
	if c.ThumbSize <= 0 {
		return fmt.Errorf("THUMB_SIZE must be positive, got %d", c.ThumbSize)
	}
	if c.WebPQuality <= 0 || c.WebPQuality > 100 {
		return fmt.Errorf("WEBP_QUALITY must be in (0, 100], got %v", c.WebPQuality)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	if c.IngestInterval <= 0 {
		return errors.New("INGEST_INTERVAL must be positive")
	}
	if c.RetentionInterval <= 0 {
		return errors.New("RETENTION_INTERVAL must be positive")
	}
	if c.SessionLifetime <= 0 {
		return errors.New("SESSION_LIFETIME must be positive")
	}
	switch c.DBDriver {
	case "sqlite3", "libsql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or libsql, got %q", c.DBDriver)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if err := validLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	for channel, level := range c.ChannelLevels {
		if err := validLevel(level); err != nil {
			return fmt.Errorf("%s%s: %w", channelLevelPrefix, strings.ToUpper(channel), err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func validLevel(level string) error {
	var l slog.Level
	return l.UnmarshalText([]byte(level))
}

// Location returns the configured presentation time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// normalizeRoot turns "", "/" and "/cmi_charts/" into "/" and "/cmi_charts".
func normalizeRoot(root string) string {
	root = strings.TrimSpace(root)
	root = strings.TrimRight(root, "/")
	if root == "" {
		return "/"
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	return root
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
