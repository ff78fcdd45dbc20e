// Package config loads and validates the diagnostic API configuration from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"

	AIProviderNone   = "none"
	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	KnowledgeBasePath string
	KBReloadInterval  time.Duration

	StoreBackend string
	StorePath    string
	DatabaseURL  string

	AIProvider    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	AITimeout     time.Duration

	AdminToken          string
	SessionTTL          time.Duration
	DiagnosticCacheSize int
	CORSOrigins         []string
}

// LoadDotEnv reads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               Environment(strings.ToLower(getEnvWithDefault("ENV", string(EnvDevelopment)))),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB

		KnowledgeBasePath: getEnvWithDefault("KNOWLEDGE_BASE_PATH", "files/knowledge-base.json"),
		KBReloadInterval:  getDurationEnvWithDefault("KB_RELOAD_INTERVAL", 15*time.Minute),

		StoreBackend: strings.ToLower(getEnvWithDefault("STORE_BACKEND", StoreFile)),
		StorePath:    getEnvWithDefault("STORE_PATH", "files/records.json"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		AIProvider:    strings.ToLower(getEnvWithDefault("AI_PROVIDER", AIProviderNone)),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvWithDefault("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL: getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		AITimeout:     getDurationEnvWithDefault("AI_TIMEOUT", 10*time.Second),

		AdminToken:          os.Getenv("ADMIN_TOKEN"),
		SessionTTL:          getDurationEnvWithDefault("SESSION_TTL", 24*time.Hour),
		DiagnosticCacheSize: getIntEnvWithDefault("DIAGNOSTIC_CACHE_SIZE", 256),
		CORSOrigins:         splitList(getEnvWithDefault("CORS_ORIGINS", "*")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateOneOf(cfg.LogLevel, "LOG_LEVEL", "debug", "info", "warn", "error"); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if cfg.LogRetentionWeeks <= 0 || cfg.LogRetentionWeeks > 52 {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: must be between 1 and 52, got: %d", cfg.LogRetentionWeeks)
	}

	if cfg.MaxLogFileSize < 1024*1024 || cfg.MaxLogFileSize > 1024*1024*1024 {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: must be between 1MB and 1GB, got: %d bytes", cfg.MaxLogFileSize)
	}

	if strings.TrimSpace(cfg.KnowledgeBasePath) == "" {
		return fmt.Errorf("KNOWLEDGE_BASE_PATH cannot be empty")
	}

	if cfg.KBReloadInterval < time.Minute {
		return fmt.Errorf("invalid KB_RELOAD_INTERVAL: must be at least 1m, got: %s", cfg.KBReloadInterval)
	}

	if err := validateStore(cfg); err != nil {
		return fmt.Errorf("invalid STORE_BACKEND: %w", err)
	}

	if err := validateAI(cfg); err != nil {
		return fmt.Errorf("invalid AI_PROVIDER: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("invalid SESSION_TTL: must be positive, got: %s", cfg.SessionTTL)
	}

	if cfg.DiagnosticCacheSize < 0 {
		return fmt.Errorf("invalid DIAGNOSTIC_CACHE_SIZE: must not be negative, got: %d", cfg.DiagnosticCacheSize)
	}

	if cfg.Env == EnvProduction && cfg.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is required when ENV=prod")
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress accepts loopback, "localhost" and private network addresses
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	}
	return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
}

func validateOneOf(value, name string, allowed ...string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %v, got: %s", name, allowed, value)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateStore(cfg *Config) error {
	switch cfg.StoreBackend {
	case StoreFile:
		if strings.TrimSpace(cfg.StorePath) == "" {
			return fmt.Errorf("STORE_PATH cannot be empty with the file backend")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("must be one of: [file postgres], got: %s", cfg.StoreBackend)
	}
	return nil
}

func validateAI(cfg *Config) error {
	switch cfg.AIProvider {
	case AIProviderNone:
	case AIProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case AIProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("must be one of: [none openai gemini], got: %s", cfg.AIProvider)
	}

	if cfg.AITimeout <= 0 || cfg.AITimeout > 2*time.Minute {
		return fmt.Errorf("AI_TIMEOUT must be between 0 and 2m, got: %s", cfg.AITimeout)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT", "ADDRESS", "ENV", "LOG_LEVEL", "LOG_DIR", "LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE", "MAX_REQUEST_BODY", "MAX_HEADER_SIZE",
		"KNOWLEDGE_BASE_PATH", "KB_RELOAD_INTERVAL",
		"STORE_BACKEND", "STORE_PATH", "DATABASE_URL",
		"AI_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"GEMINI_API_KEY", "GEMINI_MODEL", "AI_TIMEOUT",
		"ADMIN_TOKEN", "SESSION_TTL", "DIAGNOSTIC_CACHE_SIZE", "CORS_ORIGINS",
	}
}
