package slimrouter_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/greergan/slimrouter"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := slimrouter.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}

	defaults := slimrouter.DefaultConfig()
	if cfg.Port != defaults.Port || cfg.Host != defaults.Host {
		t.Errorf("expected default address, got %s", cfg.Addr())
	}
	if cfg.HandleWebSockets {
		t.Error("expected websockets to be disabled by default")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.RunningOnMessage != slimrouter.DefaultRunningOnMessage {
		t.Errorf("expected default running message, got %q", cfg.RunningOnMessage)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SLIM_PORT", "9090")
	t.Setenv("SLIM_HOST", "0.0.0.0")
	t.Setenv("SLIM_ROOT_DIRECTORY", "/srv/www")
	t.Setenv("SLIM_HEADERS", "X-Frame-Options:DENY,Cache-Control:no-store")
	t.Setenv("SLIM_HANDLE_WEBSOCKETS", "true")
	t.Setenv("SLIM_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("SLIM_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("SLIM_LOG_LEVEL", "debug")

	cfg, err := slimrouter.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
	if cfg.RootDirectory != "/srv/www" {
		t.Errorf("unexpected root directory %q", cfg.RootDirectory)
	}
	headers := cfg.ResponseHeaders()
	if headers.Get("X-Frame-Options") != "DENY" || headers.Get("Cache-Control") != "no-store" {
		t.Errorf("unexpected headers %v", headers)
	}
	if !cfg.HandleWebSockets {
		t.Error("expected websockets to be enabled")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.SlogLevel())
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	// Register restoration with t.Setenv, then unset so the file can fill it.
	t.Setenv("SLIM_RUNNING_ON_MESSAGE", "")
	os.Unsetenv("SLIM_RUNNING_ON_MESSAGE")
	t.Setenv("SLIM_PORT", "7000")

	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "SLIM_RUNNING_ON_MESSAGE='listening on {host}:{port}'\nSLIM_PORT=1234\n")

	cfg, err := slimrouter.LoadConfig(envFile)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 7000 {
		t.Errorf("expected environment to take precedence over the file, got %d", cfg.Port)
	}
	if got := cfg.RunningMessage(); got != "listening on 127.0.0.1:7000" {
		t.Errorf("unexpected running message %q", got)
	}
}

func TestConfigRunningMessage(t *testing.T) {
	cfg := slimrouter.DefaultConfig()
	cfg.Host = "localhost"
	cfg.Port = 3000

	if got := cfg.RunningMessage(); got != "instance of slimrouter running => http://localhost:3000" {
		t.Errorf("unexpected running message %q", got)
	}

	cfg.RunningOnMessage = ""
	if got := cfg.RunningMessage(); got != "instance of slimrouter running => http://localhost:3000" {
		t.Errorf("expected empty message to fall back to the default, got %q", got)
	}
}

func TestConfigSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for value, want := range cases {
		cfg := slimrouter.Config{LogLevel: value}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %s, expected %s", value, got, want)
		}
	}
}
