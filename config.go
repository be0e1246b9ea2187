package slimrouter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "SLIM_"

// DefaultRunningOnMessage is logged when a Server starts. {host} and {port}
// are replaced with the listen address.
const DefaultRunningOnMessage = "instance of slimrouter running => http://{host}:{port}"

// Config holds router and server configuration with environment variable
// support. Variables are read with the SLIM_ prefix, e.g. SLIM_PORT.
type Config struct {
	Port int    `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"127.0.0.1"`

	// RootDirectory is the default root for file routes and static mounts.
	RootDirectory string `env:"ROOT_DIRECTORY"`

	// Headers are added to every http response, e.g.
	// SLIM_HEADERS="Cache-Control:no-store,X-Frame-Options:DENY".
	Headers map[string]string `env:"HEADERS"`

	HandleWebSockets bool     `env:"HANDLE_WEBSOCKETS" envDefault:"false"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	RunningOnMessage string        `env:"RUNNING_ON_MESSAGE"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
}

// DefaultConfig returns a Config with the same defaults LoadConfig applies.
func DefaultConfig() Config {
	return Config{
		Port:             8080,
		Host:             "127.0.0.1",
		RunningOnMessage: DefaultRunningOnMessage,
		ShutdownTimeout:  30 * time.Second,
		LogLevel:         "info",
	}
}

// LoadConfig reads configuration from the environment. The given .env files
// (or ".env" when none are given) are loaded first; missing files are
// ignored. Variables already set in the environment take precedence over the
// files.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env files: %w", err)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.RunningOnMessage == "" {
		cfg.RunningOnMessage = DefaultRunningOnMessage
	}
	return cfg, nil
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RunningMessage returns RunningOnMessage with {host} and {port} filled in.
func (c Config) RunningMessage() string {
	message := c.RunningOnMessage
	if message == "" {
		message = DefaultRunningOnMessage
	}
	return strings.NewReplacer("{host}", c.Host, "{port}", strconv.Itoa(c.Port)).Replace(message)
}

// ResponseHeaders returns Headers as an http.Header.
func (c Config) ResponseHeaders() http.Header {
	header := http.Header{}
	for key, value := range c.Headers {
		header.Set(key, value)
	}
	return header
}

// SlogLevel parses LogLevel. Unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
