package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error for missing file: %v", err)
	}
	if config != DefaultConfig() {
		t.Errorf("LoadConfig = %+v, want defaults", config)
	}
	if config.FilePath != "logs/dungen.log" {
		t.Errorf("FilePath = %q, want logs/dungen.log", config.FilePath)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	yamlContent := `logging:
  level: DEBUG
  console_format: json
  file_enabled: true
  file_path: test.log
  file_max_size_mb: 20
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if config.Level != "DEBUG" {
		t.Errorf("Level = %q, want DEBUG", config.Level)
	}
	if !config.ConsoleEnabled {
		t.Error("ConsoleEnabled should keep its default when omitted")
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want json", config.ConsoleFormat)
	}
	if !config.FileEnabled || config.FilePath != "test.log" {
		t.Errorf("file settings = %v %q", config.FileEnabled, config.FilePath)
	}
	if config.FileMaxSizeMB != 20 || config.FileMaxBackups != 5 {
		t.Errorf("rotation = %d/%d, want 20/5", config.FileMaxSizeMB, config.FileMaxBackups)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	if err := os.WriteFile(path, []byte("logging: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if config.Level != "INFO" {
		t.Errorf("Level = %q, want defaults on error", config.Level)
	}
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/custom/path.log")
	t.Setenv("LOG_FILE_FORMAT", "json")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if config.Level != "ERROR" || config.ConsoleFormat != "json" || config.FileFormat != "json" {
		t.Errorf("env overrides not applied: %+v", config)
	}
	if !config.FileEnabled || config.FilePath != "/custom/path.log" {
		t.Errorf("file overrides not applied: %+v", config)
	}
}

func TestInitializeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dungen.log")
	config := DefaultConfig()
	config.ConsoleEnabled = false
	config.FileEnabled = true
	config.FilePath = path
	config.FileFormat = "json"
	if err := Initialize(config); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer func() { logger = nil }()

	Info("Level generated", "algorithm", "maze")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"algorithm":"maze"`) {
		t.Errorf("log file = %s", data)
	}

	config.FilePath = ""
	if err := Initialize(config); err == nil {
		t.Error("expected an error for file logging without a path")
	}
}

func TestSetOutputLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "ERROR")
	defer func() { logger = nil }()

	Debug("Debug message")
	Info("Info message")
	Warning("Warning message")
	Error("Error message", "key", "value")
	Always("Always message")

	output := buf.String()
	for _, hidden := range []string{"Debug message", "Info message", "Warning message"} {
		if strings.Contains(output, hidden) {
			t.Errorf("%q logged at ERROR level", hidden)
		}
	}
	for _, shown := range []string{"Error message", "key=value", "Always message", "level=ALWAYS"} {
		if !strings.Contains(output, shown) {
			t.Errorf("output missing %q: %s", shown, output)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var info, warn bytes.Buffer
	logger = slog.New(multiHandler{
		newHandler(&info, "text", slog.LevelInfo),
		newHandler(&warn, "json", slog.LevelWarn),
	}.WithAttrs([]slog.Attr{slog.String("component", "test")}))
	defer func() { logger = nil }()

	Info("Only info")
	Warning("Both", "field", "value")

	if !strings.Contains(info.String(), "Only info") || !strings.Contains(info.String(), "field=value") {
		t.Errorf("info handler output: %s", info.String())
	}
	if strings.Contains(warn.String(), "Only info") {
		t.Error("warn handler received an info record")
	}
	if !strings.Contains(warn.String(), `"component":"test"`) {
		t.Errorf("warn handler missing attrs: %s", warn.String())
	}
}

func TestNilLogger(t *testing.T) {
	logger = nil
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging with nil logger panicked: %v", r)
		}
	}()

	Debug("debug")
	Info("info")
	Warning("warning")
	Error("error")
	Always("always")
}
