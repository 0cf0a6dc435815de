// Package config loads goform CLI settings through Viper from .goform.yml,
// GOFORM_ environment variables and command-line flags.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. GOFORM_SERVER_PORT.
const EnvPrefix = "GOFORM"

type Config struct {
	Definition string       `mapstructure:"definition"`
	Log        LogConfig    `mapstructure:"log"`
	Server     ServerConfig `mapstructure:"server"`
	Replay     ReplayConfig `mapstructure:"replay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Path           string   `mapstructure:"path"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadLimit      int64    `mapstructure:"read_limit"`
}

type ReplayConfig struct {
	AutoFlush bool          `mapstructure:"auto_flush"`
	Debounce  time.Duration `mapstructure:"debounce"`
}

// SetDefaults registers default values on the global Viper instance.
func SetDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.path", "/ws")
	viper.SetDefault("server.read_limit", 64<<10)
	viper.SetDefault("replay.debounce", 200*time.Millisecond)
}

// BindEnv enables GOFORM_ environment overrides, GOFORM_SERVER_PORT for
// server.port and so on.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load decodes the global Viper state and validates it.
func Load() (*Config, error) {
	SetDefaults()
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	// slices given as a comma list in the environment arrive as one string
	if viper.IsSet("server.allowed_origins") && len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q (want text or json)", c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server: path %q must start with /", c.Server.Path)
	}
	if c.Server.ReadLimit <= 0 {
		return fmt.Errorf("server: read_limit must be positive")
	}
	if c.Replay.Debounce < 0 {
		return fmt.Errorf("replay: debounce must not be negative")
	}
	return nil
}

// Addr is the listen address of the WebSocket server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return lvl, nil
}

// Logger builds a logger writing to w in the configured format.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(l.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
