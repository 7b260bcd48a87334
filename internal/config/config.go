package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"annotator-readmill/internal/domain"
)

const (
	defaultAPIEndpoint  = "https://api.readmill.com"
	defaultAuthEndpoint = "http://localhost:8000/oauth/authorize"
	defaultStoragePath  = "./annotator-readmill.db"
	defaultKVTable      = "kv_store"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	AllowedOrigins []string

	APIEndpoint  string
	AuthEndpoint string
	ClientID     string
	CallbackURI  string
	AccessToken  string
	HTTPTimeout  time.Duration

	Book          domain.Book
	ReplayPending bool

	StorageBackend  string
	StoragePath     string
	RedisAddr       string
	RedisDB         int
	RedisPassword   string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseKVTable string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:     getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvListOrDefault("ALLOWED_ORIGINS", nil),

		APIEndpoint:  getEnvOrDefault("READMILL_API_ENDPOINT", defaultAPIEndpoint),
		AuthEndpoint: getEnvOrDefault("READMILL_AUTH_ENDPOINT", defaultAuthEndpoint),
		ClientID:     getEnvOrDefault("READMILL_CLIENT_ID", ""),
		CallbackURI:  getEnvOrDefault("READMILL_CALLBACK_URI", ""),
		AccessToken:  getEnvOrDefault("READMILL_ACCESS_TOKEN", ""),
		HTTPTimeout:  time.Duration(getEnvIntOrDefault("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,

		Book: domain.Book{
			ID:     domain.ID(getEnvOrDefault("BOOK_ID", "")),
			Title:  getEnvOrDefault("BOOK_TITLE", ""),
			Author: getEnvOrDefault("BOOK_AUTHOR", ""),
			ISBN:   getEnvOrDefault("BOOK_ISBN", ""),
		},
		ReplayPending: getEnvBoolOrDefault("REPLAY_PENDING", true),

		StorageBackend:  getEnvOrDefault("STORAGE_BACKEND", "bolt"),
		StoragePath:     getEnvOrDefault("STORAGE_PATH", defaultStoragePath),
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvIntOrDefault("REDIS_DB", 0),
		RedisPassword:   getEnvOrDefault("REDIS_PASSWORD", ""),
		SupabaseURL:     getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:     getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		SupabaseKVTable: getEnvOrDefault("SUPABASE_KV_TABLE", defaultKVTable),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetAllowedOrigins returns the origins allowed to call the companion
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetAPIEndpoint returns the base URL of the Readmill API
func (c *AppConfig) GetAPIEndpoint() string {
	return c.APIEndpoint
}

// GetAuthEndpoint returns the OAuth authorize URL
func (c *AppConfig) GetAuthEndpoint() string {
	return c.AuthEndpoint
}

func (c *AppConfig) GetClientID() string {
	return c.ClientID
}

func (c *AppConfig) GetCallbackURI() string {
	return c.CallbackURI
}

// GetAccessToken returns a pre-supplied access token, if any
func (c *AppConfig) GetAccessToken() string {
	return c.AccessToken
}

// GetHTTPTimeout returns the per-request timeout. Zero means none.
func (c *AppConfig) GetHTTPTimeout() time.Duration {
	return c.HTTPTimeout
}

// GetBook returns the local metadata of the book being read
func (c *AppConfig) GetBook() domain.Book {
	return c.Book
}

func (c *AppConfig) GetReplayPending() bool {
	return c.ReplayPending
}

// GetStorageBackend returns the configured credential store backend
func (c *AppConfig) GetStorageBackend() string {
	return c.StorageBackend
}

func (c *AppConfig) GetStoragePath() string {
	return c.StoragePath
}

func (c *AppConfig) GetRedisAddr() string {
	return c.RedisAddr
}

func (c *AppConfig) GetRedisDB() int {
	return c.RedisDB
}

func (c *AppConfig) GetRedisPassword() string {
	return c.RedisPassword
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetSupabaseKVTable returns the table backing the supabase store
func (c *AppConfig) GetSupabaseKVTable() string {
	return c.SupabaseKVTable
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
