// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings for the archive mirror.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsArchiveEnabled() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
	IsAuthEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq escalation scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	IsSchedulerEnabled() bool
}

// AnalyzerConfig provides settings for the AI severity analyzer.
type AnalyzerConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsAnalyzerEnabled() bool
}

// SMSConfig provides settings for the Twilio SMS transport.
type SMSConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioFromNumber() string
	IsSMSEnabled() bool
}

// EmailConfig provides settings for SMTP alert delivery.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// StorageConfig provides settings for MinIO crisis photo storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketCrisisPhotos() string
	IsStorageEnabled() bool
}

// DirectoryConfig provides settings for the agency directory.
type DirectoryConfig interface {
	GetAgencyCatalogPath() string
}

// DispatchConfig provides tuning knobs for matching and escalation.
type DispatchConfig interface {
	GetMatchRadiusKm() float64
	GetMatchMaxResults() int
	GetNotifyTopN() int
	GetMinCoverage() int
	GetEscalationDelay() time.Duration
	GetEscalationSweepInterval() time.Duration
}

// NotificationConfig provides settings shared by notification transports.
type NotificationConfig interface {
	GetAppBaseURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	AppBaseURL              string
	JWTAccessSecret         string
	DatabaseURL             string
	RedisURL                string
	RedisTLSInsecure        bool
	AsynqQueueName          string
	AsynqConcurrency        int
	GeminiAPIKey            string
	GeminiModel             string
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioFromNumber        string
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	EmailFromName           string
	EmailFromAddress        string
	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinIOMaxFileSize        int64
	MinioBucketCrisisPhotos string
	AgencyCatalogPath       string
	MatchRadiusKm           float64
	MatchMaxResults         int
	NotifyTopN              int
	MinCoverage             int
	EscalationDelay         time.Duration
	EscalationSweepInterval time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) IsArchiveEnabled() bool { return c.DatabaseURL != "" }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }
func (c *Config) IsAuthEnabled() bool        { return c.JWTAccessSecret != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// AnalyzerConfig implementation
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }
func (c *Config) IsAnalyzerEnabled() bool { return c.GeminiAPIKey != "" }

// SMSConfig implementation
func (c *Config) GetTwilioAccountSID() string { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string  { return c.TwilioAuthToken }
func (c *Config) GetTwilioFromNumber() string { return c.TwilioFromNumber }
func (c *Config) IsSMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.EmailFromAddress != ""
}

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketCrisisPhotos() string {
	return c.MinioBucketCrisisPhotos
}
func (c *Config) IsStorageEnabled() bool { return c.MinIOEndpoint != "" }

// DirectoryConfig implementation
func (c *Config) GetAgencyCatalogPath() string { return c.AgencyCatalogPath }

// DispatchConfig implementation
func (c *Config) GetMatchRadiusKm() float64         { return c.MatchRadiusKm }
func (c *Config) GetMatchMaxResults() int           { return c.MatchMaxResults }
func (c *Config) GetNotifyTopN() int                { return c.NotifyTopN }
func (c *Config) GetMinCoverage() int               { return c.MinCoverage }
func (c *Config) GetEscalationDelay() time.Duration { return c.EscalationDelay }
func (c *Config) GetEscalationSweepInterval() time.Duration {
	return c.EscalationSweepInterval
}

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// Load reads configuration from environment variables.
// Nothing is hard-required: the dispatch core is fully functional in-memory,
// and every collaborator (archive, scheduler, analyzer, transports) switches
// off when its settings are absent.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "true"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8000"),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AppBaseURL:              getEnv("APP_BASE_URL", "http://localhost:5173"),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "dispatch"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		TwilioAccountSID:        getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:         getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:        getEnv("TWILIO_PHONE_NUMBER", ""),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "CrisisNet Dispatch"),
		EmailFromAddress:        getEnv("EMAIL_FROM_ADDRESS", ""),
		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:        mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketCrisisPhotos: getEnv("MINIO_BUCKET_CRISIS_PHOTOS", "crisis-photos"),
		AgencyCatalogPath:       getEnv("AGENCY_CATALOG_PATH", ""),
		MatchRadiusKm:           mustFloat(getEnv("MATCH_RADIUS_KM", "10")),
		MatchMaxResults:         mustInt(getEnv("MATCH_MAX_RESULTS", "8")),
		NotifyTopN:              mustInt(getEnv("NOTIFY_TOP_N", "5")),
		MinCoverage:             mustInt(getEnv("MIN_COVERAGE", "3")),
		EscalationDelay:         mustDuration(getEnv("ESCALATION_DELAY", "5m")),
		EscalationSweepInterval: mustDuration(getEnv("ESCALATION_SWEEP_INTERVAL", "2m")),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
