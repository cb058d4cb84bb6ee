// Package config loads the application settings from data/dungen.yaml, a
// .env file and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungen/internal/database"
)

// DefaultPath is where the application config is read from.
const DefaultPath = "data/dungen.yaml"

// AppConfig holds every setting of the generator, the CLI and the level
// server.
type AppConfig struct {
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`

	// PresetsFile replaces the built-in presets when set.
	PresetsFile string `yaml:"presets_file,omitempty"`
}

// LLMConfig configures the Ollama connection.
type LLMConfig struct {
	// Enabled false skips the model and infers from keywords only.
	Enabled        bool    `yaml:"enabled"`
	Host           string  `yaml:"host"`
	Model          string  `yaml:"model"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Temperature    float64 `yaml:"temperature"`
}

// Timeout returns the inference timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GenerationConfig tunes the pipeline.
type GenerationConfig struct {
	MaxRetries       int     `yaml:"max_retries"`
	MinArenaFraction float64 `yaml:"min_arena_fraction"`

	// OutputDir receives exported level YAML files.
	OutputDir string `yaml:"output_dir"`

	// LogDir receives one YAML entry per generation. Empty disables the
	// file log.
	LogDir string `yaml:"log_dir"`
}

// DatabaseConfig is the generation history store.
type DatabaseConfig struct {
	// Enabled false keeps history in LogDir files only.
	Enabled bool `yaml:"enabled"`

	database.Config `yaml:",inline"`
}

// ServerConfig holds level server settings.
type ServerConfig struct {
	Address     string            `yaml:"address"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig limits level requests per IP address.
type RateLimitConfig struct {
	// MaxRequests per window before the IP is locked out. 0 disables the
	// limit.
	MaxRequests   int `yaml:"max_requests"`
	WindowSeconds int `yaml:"window_seconds"`

	// LockoutSeconds is the first lockout; repeat lockouts double up to
	// MaxLockoutSeconds.
	LockoutSeconds    int `yaml:"lockout_seconds"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections from one IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum concurrent connections. 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins lists origins allowed to connect. An empty list
	// enforces same-origin; "*" allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the largest request message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		LLM: LLMConfig{
			Enabled:        true,
			Host:           "http://127.0.0.1:11434",
			Model:          "llama3.2",
			TimeoutSeconds: 20,
			Temperature:    0.2,
		},
		Generation: GenerationConfig{
			MaxRetries:       5,
			MinArenaFraction: 0.05,
			OutputDir:        "levels",
			LogDir:           "logs",
		},
		Database: DatabaseConfig{
			Enabled: true,
			Config:  database.DefaultConfig("data/dungen.db"),
		},
		Server: ServerConfig{
			Address: ":8765",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{},
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
			RateLimit: RateLimitConfig{
				MaxRequests:       20,
				WindowSeconds:     60,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
		},
	}
}

// LoadConfig loads .env, then the YAML file at path on top of the
// defaults, then environment overrides. A missing file yields the
// defaults.
func LoadConfig(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		cfg.LLM.Host = host
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if timeout := os.Getenv("DUNGEN_LLM_TIMEOUT"); timeout != "" {
		secs, err := parseSeconds(timeout)
		if err != nil {
			return fmt.Errorf("invalid DUNGEN_LLM_TIMEOUT %q: %w", timeout, err)
		}
		cfg.LLM.TimeoutSeconds = secs
	}
	if driver := os.Getenv("DUNGEN_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := os.Getenv("DUNGEN_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if addr := os.Getenv("DUNGEN_ADDR"); addr != "" {
		cfg.Server.Address = addr
	}
	return nil
}

// parseSeconds accepts "30" or a duration such as "1m30s".
func parseSeconds(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return int(d.Round(time.Second) / time.Second), nil
}

// IsOriginAllowed checks an Origin header against the allowed origins.
// It returns true when AllowedOrigins contains "*" or the exact origin, or
// when AllowedOrigins is empty and the origin matches the request host.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin reports whether origin names requestHost. Non-browser
// clients send no Origin and are allowed.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	return strings.TrimSuffix(originHost, "/") == requestHost
}
