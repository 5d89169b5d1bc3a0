package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Source    string // "sheets" or "postgres"
	Sheets    SheetsConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Environment string // "development", "production", "test"
	Debug       bool
	Secure      bool // behind HTTPS
	TrustProxy  bool // X-Forwarded-For / X-Real-IP are set by our proxy
}

// SheetsConfig holds the spreadsheet location and the service account used to
// read it.
type SheetsConfig struct {
	SpreadsheetID  string
	CodesRange     string
	QuestionsRange string
	ProjectID      string
	PrivateKeyID   string
	PrivateKey     string
	ClientEmail    string
	ClientID       string
	TokenURL       string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimitConfig struct {
	ValidateLimit  int64
	ValidateWindow time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvBool("DEBUG", false),
			Secure:      getEnvBool("SERVER_SECURE", false),
			TrustProxy:  getEnvBool("TRUST_PROXY", false),
		},
		Source: strings.ToLower(getEnvNonEmpty("SOURCE", SourceSheets)),
		Sheets: SheetsConfig{
			SpreadsheetID:  getEnv("GOOGLE_SPREADSHEET_ID", ""),
			CodesRange:     getEnvNonEmpty("GOOGLE_CODES_RANGE", "A:C"),
			QuestionsRange: getEnvNonEmpty("GOOGLE_QUESTIONS_RANGE", "Hoja 2!A:B"),
			ProjectID:      getEnv("GOOGLE_PROJECT_ID", ""),
			PrivateKeyID:   getEnv("GOOGLE_PRIVATE_KEY_ID", ""),
			// Deployment platforms store the PEM on one line with literal \n.
			PrivateKey:  strings.ReplaceAll(getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
			ClientEmail: getEnv("GOOGLE_CLIENT_EMAIL", ""),
			ClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
			TokenURL:    getEnvNonEmpty("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "conversando"),
			Password: getEnv("DB_PASSWORD", "conversando"),
			DBName:   getEnv("DB_NAME", "conversando"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			ValidateLimit:  int64(getEnvInt("VALIDATE_RATE_LIMIT", 30)),
			ValidateWindow: getEnvDuration("VALIDATE_RATE_WINDOW", 15*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Source {
	case SourceSheets:
		if strings.TrimSpace(c.Sheets.SpreadsheetID) == "" {
			return fmt.Errorf("GOOGLE_SPREADSHEET_ID is required when SOURCE=%s", SourceSheets)
		}
		if strings.TrimSpace(c.Sheets.ClientEmail) == "" || strings.TrimSpace(c.Sheets.PrivateKey) == "" {
			return fmt.Errorf("GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY are required when SOURCE=%s", SourceSheets)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("unknown SOURCE %q (want %q or %q)", c.Source, SourceSheets, SourcePostgres)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT (must be between 1-65535 inclusive): %d", c.Server.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvNonEmpty(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		if strings.TrimSpace(value) != "" {
			return value
		}
		return defaultValue
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
