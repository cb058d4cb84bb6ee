package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OLLAMA_HOST", "OLLAMA_MODEL", "DUNGEN_LLM_TIMEOUT", "DUNGEN_DB_DRIVER", "DUNGEN_DB_DSN", "DUNGEN_ADDR"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dungen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.LLM.Enabled || cfg.LLM.Model != "llama3.2" {
		t.Errorf("unexpected LLM defaults: %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout() != 20*time.Second {
		t.Errorf("Timeout() = %v, want 20s", cfg.LLM.Timeout())
	}
	if cfg.Generation.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Generation.MaxRetries)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath != "data/dungen.db" {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if len(cfg.Server.WebSocket.AllowedOrigins) != 0 {
		t.Errorf("expected same-origin by default, got %v", cfg.Server.WebSocket.AllowedOrigins)
	}
	if cfg.Server.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want 4096", cfg.Server.WebSocket.MaxMessageSize)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Server.Address != DefaultConfig().Server.Address {
		t.Errorf("Address = %q, want default", cfg.Server.Address)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  enabled: false
  model: mistral
generation:
  max_retries: 2
  output_dir: out
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 6543
server:
  address: ":9000"
  websocket:
    allowed_origins:
      - "https://renderer.example"
    max_message_size: 8192
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Enabled || cfg.LLM.Model != "mistral" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.TimeoutSeconds != 20 {
		t.Errorf("omitted fields should keep defaults, TimeoutSeconds = %d", cfg.LLM.TimeoutSeconds)
	}
	if cfg.Generation.MaxRetries != 2 || cfg.Generation.OutputDir != "out" || cfg.Generation.LogDir != "logs" {
		t.Errorf("Generation = %+v", cfg.Generation)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Host != "db.internal" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Server.Address != ":9000" || cfg.Server.WebSocket.MaxMessageSize != 8192 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Server.WebSocket.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.Server.WebSocket.AllowedOrigins)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeConfig(t, "llm: [\n"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if cfg == nil || cfg.LLM.Model != "llama3.2" {
		t.Error("expected defaults alongside the error")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_HOST", "gpu-box:11434")
	t.Setenv("OLLAMA_MODEL", "qwen2.5")
	t.Setenv("DUNGEN_LLM_TIMEOUT", "1m30s")
	t.Setenv("DUNGEN_DB_DRIVER", "postgres")
	t.Setenv("DUNGEN_DB_DSN", "postgres://u:p@h/db")
	t.Setenv("DUNGEN_ADDR", "127.0.0.1:7000")

	cfg, err := LoadConfig(writeConfig(t, "llm:\n  model: mistral\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Host != "http://gpu-box:11434" {
		t.Errorf("Host = %q", cfg.LLM.Host)
	}
	if cfg.LLM.Model != "qwen2.5" {
		t.Errorf("environment should win over the file, Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.TimeoutSeconds != 90 {
		t.Errorf("TimeoutSeconds = %d, want 90", cfg.LLM.TimeoutSeconds)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://u:p@h/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Server.Address != "127.0.0.1:7000" {
		t.Errorf("Address = %q", cfg.Server.Address)
	}

	t.Setenv("DUNGEN_LLM_TIMEOUT", "soon")
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected an error for a bad timeout")
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"30", 30, true},
		{"45s", 45, true},
		{"2m", 120, true},
		{"1500ms", 2, true},
		{"later", 0, false},
	}
	for _, tt := range tests {
		got, err := parseSeconds(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseSeconds(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestIsOriginAllowed(t *testing.T) {
	sameOrigin := WebSocketConfig{AllowedOrigins: []string{}}
	wildcard := WebSocketConfig{AllowedOrigins: []string{"*"}}
	listed := WebSocketConfig{AllowedOrigins: []string{"https://renderer.example", "http://localhost:3000"}}

	tests := []struct {
		name   string
		cfg    WebSocketConfig
		origin string
		want   bool
	}{
		{"no origin header", sameOrigin, "", true},
		{"matching host", sameOrigin, "http://localhost:8765", true},
		{"matching host with slash", sameOrigin, "https://localhost:8765/", true},
		{"websocket scheme", sameOrigin, "ws://localhost:8765", true},
		{"other port", sameOrigin, "http://localhost:3000", false},
		{"other host", sameOrigin, "http://evil.example", false},
		{"wildcard", wildcard, "http://anything.example", true},
		{"wildcard without origin", wildcard, "", true},
		{"listed", listed, "https://renderer.example", true},
		{"listed localhost", listed, "http://localhost:3000", true},
		{"unlisted", listed, "http://evil.example", false},
		{"partial match", listed, "https://renderer.example:8080", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsOriginAllowed(tt.origin, "localhost:8765"); got != tt.want {
				t.Errorf("IsOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
