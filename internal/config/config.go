package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendTargetLocal    = "local"
	BackendTargetDeployed = "deployed"

	// DefaultJWTSecret is only acceptable outside production.
	DefaultJWTSecret = "change-me"
)

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Library LibraryConfig
	Chat    ChatConfig
	Session SessionConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string
}

type BackendConfig struct {
	Target         string // "local" | "deployed"
	LocalURL       string
	DeployedURL    string
	OverrideURL    string
	RequestTimeout time.Duration
}

type LibraryConfig struct {
	PageSize        int
	SearchDebounce  time.Duration
	MinSearchLength int
	SnapshotPath    string // static names snapshot; empty means use the backend
	CacheEnabled    bool
	CacheTTL        time.Duration
}

type ChatConfig struct {
	AnswerTimeout time.Duration
}

type SessionConfig struct {
	JWTSecret string
	TTL       time.Duration
}

// TracingConfig is read from the standard OTEL_* variables.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// BaseURL resolves the single backend base URL the gateway talks to.
func (b BackendConfig) BaseURL() string {
	if b.OverrideURL != "" {
		return strings.TrimRight(b.OverrideURL, "/")
	}
	if b.Target == BackendTargetDeployed {
		return strings.TrimRight(b.DeployedURL, "/")
	}
	return strings.TrimRight(b.LocalURL, "/")
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// UsesDefaultSecret reports whether session tokens are signed with the
// built-in development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.Session.JWTSecret == "" || c.Session.JWTSecret == DefaultJWTSecret
}

// Validate rejects settings that must never reach production.
func (c *Config) Validate() error {
	if c.App.IsProduction() && c.UsesDefaultSecret() {
		return ErrDefaultJWTSecret
	}
	return nil
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/gateway.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			EventTopic:         getEnv("WORKSPACE_EVENT_TOPIC", "workspace.events"),
		},
		Backend: BackendConfig{
			Target:         getEnv("BACKEND_TARGET", BackendTargetLocal),
			LocalURL:       getEnv("RAG_LOCAL_URL", "http://localhost:8000"),
			DeployedURL:    getEnv("RAG_DEPLOYED_URL", "https://pharmarag.onrender.com"),
			OverrideURL:    getEnv("RAG_BASE_URL", ""),
			RequestTimeout: getEnvAsDuration("RAG_REQUEST_TIMEOUT", 30*time.Second),
		},
		Library: LibraryConfig{
			PageSize:        getEnvAsInt("LIBRARY_PAGE_SIZE", 20),
			SearchDebounce:  getEnvAsDuration("LIBRARY_SEARCH_DEBOUNCE", 300*time.Millisecond),
			MinSearchLength: getEnvAsInt("LIBRARY_MIN_SEARCH_LENGTH", 3),
			SnapshotPath:    getEnv("LIBRARY_SNAPSHOT_PATH", ""),
			CacheEnabled:    getEnvAsBool("LIBRARY_CACHE_ENABLED", true),
			CacheTTL:        getEnvAsDuration("LIBRARY_CACHE_TTL", 10*time.Minute),
		},
		Chat: ChatConfig{
			AnswerTimeout: getEnvAsDuration("CHAT_ANSWER_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
			TTL:       getEnvAsDuration("SESSION_TTL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "pharmarag-chat"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("300ms", "1m").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
