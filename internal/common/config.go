package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Queue    QueueConfig
	Inbox    InboxConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration.
// DSNs starting with postgres:// or postgresql:// use pgx, anything else is a SQLite DSN.
type DatabaseConfig struct {
	DSN              string        `env:"DB_URL" envDefault:"file:complaints.db?_pragma=busy_timeout(5000)"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0s"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8000"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":9090"`
	// MaxUploadBytes caps multipart bodies accepted by POST /upload.
	MaxUploadBytes int `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
}

// StorageConfig holds the media directory layout.
type StorageConfig struct {
	MediaRoot string `env:"MEDIA_ROOT" envDefault:"./media"`
}

// LLMConfig holds generative model configuration
type LLMConfig struct {
	Model           string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	APIKey          string        `env:"GEMINI_API_KEY"`
	UseVertexAI     bool          `env:"GOOGLE_GENAI_USE_VERTEXAI" envDefault:"false"`
	Project         string        `env:"GOOGLE_CLOUD_PROJECT"`
	Location        string        `env:"GOOGLE_CLOUD_LOCATION" envDefault:"us-east1"`
	BaseURL         string        `env:"GEMINI_BASE_URL"`
	Temperature     float32       `env:"GEMINI_TEMPERATURE" envDefault:"1.0"`
	TopP            float32       `env:"GEMINI_TOP_P" envDefault:"0.95"`
	Seed            int32         `env:"GEMINI_SEED" envDefault:"42"`
	MaxOutputTokens int32         `env:"GEMINI_MAX_OUTPUT_TOKENS" envDefault:"65535"`
	ThinkingBudget  int32         `env:"GEMINI_THINKING_BUDGET" envDefault:"0"`
	Timeout         time.Duration `env:"GEMINI_TIMEOUT" envDefault:"60s"`
	RowConcurrency  int           `env:"ROW_CONCURRENCY" envDefault:"1"`
}

// QueueConfig selects and sizes the task dispatcher.
type QueueConfig struct {
	Workers     int           `env:"QUEUE_WORKERS" envDefault:"2"`
	Size        int           `env:"QUEUE_SIZE" envDefault:"64"`
	TaskTimeout time.Duration `env:"QUEUE_TASK_TIMEOUT" envDefault:"2h"`
	RedisURL    string        `env:"REDIS_URL"`
	RedisKey    string        `env:"REDIS_QUEUE_KEY" envDefault:"complaints:tasks"`
}

// InboxConfig enables the watched drop directory. Empty Dir disables it.
type InboxConfig struct {
	Dir      string        `env:"INBOX_DIR"`
	Debounce time.Duration `env:"INBOX_DEBOUNCE" envDefault:"2s"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json | text
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables, reading a .env file first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	cfg.sanitize()
	return &cfg, nil
}

func (c *Config) sanitize() {
	if c.LLM.RowConcurrency < 1 {
		c.LLM.RowConcurrency = 1
	}
	if c.Queue.Workers < 1 {
		c.Queue.Workers = 1
	}
	if c.Queue.Size < 1 {
		c.Queue.Size = 1
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// IsPostgres reports whether the DSN targets Postgres rather than SQLite.
func (d DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(d.DSN, "postgres://") || strings.HasPrefix(d.DSN, "postgresql://")
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Storage.MediaRoot == "" {
		return NewAppError("CONFIG_ERROR", "MEDIA_ROOT is required", ErrInvalidInput)
	}
	if c.LLM.UseVertexAI {
		if c.LLM.Project == "" {
			return NewAppError("CONFIG_ERROR", "GOOGLE_CLOUD_PROJECT is required when GOOGLE_GENAI_USE_VERTEXAI is set", ErrInvalidInput)
		}
	} else if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "GEMINI_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
