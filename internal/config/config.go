// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// BatchRateLimit caps batch starts per client per minute (0 = off, needs redis).
	BatchRateLimit int `yaml:"batch_rate_limit"`
}

type AuthConfig struct {
	HMACSecret string        `yaml:"hmac_secret"`
	Password   string        `yaml:"password"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	Secure     bool          `yaml:"secure_cookie"`
}

// Enabled reports whether the API requires a session token.
func (a AuthConfig) Enabled() bool { return a.HMACSecret != "" }

type AIConfig struct {
	Provider          string        `yaml:"provider"` // gemini|openai|pollinations|noop
	GeminiURL         string        `yaml:"gemini_url"`
	GeminiImageModel  string        `yaml:"gemini_image_model"`
	GeminiVisionModel string        `yaml:"gemini_vision_model"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	OpenAIImageModel  string        `yaml:"openai_image_model"`
	PollinationsURL   string        `yaml:"pollinations_url"`
	AspectRatio       string        `yaml:"aspect_ratio"`
	// ConcurrentLimit caps concurrent provider calls (0 = off). A cap makes
	// retries and batch items wait for each other.
	ConcurrentLimit   int           `yaml:"concurrent_limit"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

type GenerationConfig struct {
	InterItemDelay     time.Duration `yaml:"inter_item_delay"`
	MaxCount           int           `yaml:"max_count"`
	// MaxInFlightRetries rejects retries past this many running ones (0 = no limit).
	MaxInFlightRetries int           `yaml:"max_inflight_retries"`
}

type SecretConfig struct {
	Backend  string `yaml:"backend"` // file|redis|postgres|memory
	FilePath string `yaml:"file_path"`
	// Bootstrap seeds the store on startup when nothing is stored yet.
	Bootstrap string `yaml:"bootstrap"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // MinIO / S3-compatible
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
}

type ExportConfig struct {
	Sink string   `yaml:"sink"` // local|s3
	Dir  string   `yaml:"dir"`
	S3   S3Config `yaml:"s3"`
	// Retention prunes local booklets older than this (0 = keep forever).
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether booklets are delivered to a chat.
func (t TelegramConfig) Enabled() bool { return t.Token != "" && t.ChatID != 0 }

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	AI         AIConfig         `yaml:"ai"`
	Generation GenerationConfig `yaml:"generation"`
	Secret     SecretConfig     `yaml:"secret"`
	Security   SecurityConfig   `yaml:"security"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Export     ExportConfig     `yaml:"export"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads a YAML file, expanding ${VAR} references from the
// environment (a .env file next to the binary is loaded first if present).
// A missing file is allowed: defaults and environment then apply.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 90 * time.Second
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
		if cfg.Runtime.Dev {
			cfg.AI.Provider = "noop"
		}
	}
	if cfg.AI.GeminiImageModel == "" {
		cfg.AI.GeminiImageModel = "gemini-2.5-flash-image"
	}
	if cfg.AI.GeminiVisionModel == "" {
		cfg.AI.GeminiVisionModel = "gemini-1.5-flash"
	}
	if cfg.AI.OpenAIImageModel == "" {
		cfg.AI.OpenAIImageModel = "gpt-image-1"
	}
	if cfg.AI.PollinationsURL == "" {
		cfg.AI.PollinationsURL = "https://image.pollinations.ai/prompt"
	}
	if cfg.AI.AspectRatio == "" {
		cfg.AI.AspectRatio = "3:4"
	}
	if cfg.AI.RequestTimeout <= 0 {
		cfg.AI.RequestTimeout = 2 * time.Minute
	}

	// The delay is a quota guard; only an explicit negative value disables it.
	if cfg.Generation.InterItemDelay == 0 {
		cfg.Generation.InterItemDelay = 1500 * time.Millisecond
	}
	if cfg.Generation.InterItemDelay < 0 {
		cfg.Generation.InterItemDelay = 0
	}
	if cfg.Generation.MaxCount <= 0 {
		cfg.Generation.MaxCount = 3
	}
	if cfg.Generation.MaxInFlightRetries < 0 {
		cfg.Generation.MaxInFlightRetries = 0
	}

	cfg.Secret.Backend = strings.ToLower(strings.TrimSpace(cfg.Secret.Backend))
	if cfg.Secret.Backend == "" {
		cfg.Secret.Backend = "file"
	}
	if cfg.Secret.FilePath == "" {
		cfg.Secret.FilePath = "data/secret.json"
	}

	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 5
	}

	cfg.Export.Sink = strings.ToLower(strings.TrimSpace(cfg.Export.Sink))
	if cfg.Export.Sink == "" {
		cfg.Export.Sink = "local"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "output"
	}
	if cfg.Export.PruneInterval <= 0 {
		cfg.Export.PruneInterval = time.Hour
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "coloring-book-generator"
	}
}

// Validate performs minimal cross-field checks.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "gemini", "openai", "pollinations", "noop":
	default:
		return fmt.Errorf("ai.provider %q is not supported", c.AI.Provider)
	}
	switch c.Secret.Backend {
	case "file", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for secret.backend=redis")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for secret.backend=postgres")
		}
	default:
		return fmt.Errorf("secret.backend %q is not supported", c.Secret.Backend)
	}
	switch c.Export.Sink {
	case "local":
	case "s3":
		if c.Export.S3.Bucket == "" {
			return errors.New("export.s3.bucket is required for export.sink=s3")
		}
	default:
		return fmt.Errorf("export.sink %q is not supported", c.Export.Sink)
	}
	if k := len(c.Security.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return fmt.Errorf("security.encryption_key must be 16, 24 or 32 bytes; got %d", k)
	}
	if c.HTTP.BatchRateLimit > 0 && c.Redis.URL == "" {
		return errors.New("redis.url is required for http.batch_rate_limit")
	}
	if c.Auth.Enabled() && c.Auth.Password == "" {
		return errors.New("auth.password is required when auth.hmac_secret is set")
	}
	return nil
}
