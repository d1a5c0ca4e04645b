package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/ferroxide/ferroxide/internal/clock"
	"github.com/ferroxide/ferroxide/internal/logging"
	"github.com/ferroxide/ferroxide/internal/paths"
)

// EnvPrefix prefixes every environment variable that maps to a config key.
const EnvPrefix = "FERROXIDE"

// Config represents the complete ferroxide configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging"`
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths" toml:"paths"`
	Time    TimeConfig    `mapstructure:"time" yaml:"time" toml:"time"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" toml:"server"`
}

// LoggingConfig controls the console and file log sinks
type LoggingConfig struct {
	// Filter selects which records are emitted, e.g. "warn,http=debug".
	// Also read from LOG_FILTER.
	Filter string `mapstructure:"filter" yaml:"filter" toml:"filter"`
	// Color controls console styling: "auto", "always" or "never"
	Color logging.ColorMode `mapstructure:"color" yaml:"color" toml:"color"`
}

// PathsConfig controls where ferroxide keeps its files
type PathsConfig struct {
	// BaseDir holds logs.txt. Empty means ~/.ferroxide (%USERPROFILE%\ferroxide
	// on Windows).
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir" toml:"base_dir"`
}

// TimeConfig controls timestamp rendering
type TimeConfig struct {
	// Zone is the IANA timezone for log timestamps
	Zone string `mapstructure:"zone" yaml:"zone" toml:"zone"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	// Port is kept as text so an unusable PORT falls back at startup instead
	// of failing to decode. Also read from PORT.
	Port string `mapstructure:"port" yaml:"port" toml:"port"`
	Host string `mapstructure:"host" yaml:"host" toml:"host"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// DefaultPort is the listener port used when none or an invalid one is set.
const DefaultPort = 2137

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Filter: logging.DefaultFilterText,
			Color:  logging.ColorAuto,
		},
		Paths: PathsConfig{
			BaseDir: "",
		},
		Time: TimeConfig{
			Zone: clock.DefaultZone,
		},
		Server: ServerConfig{
			Port:            cast.ToString(DefaultPort),
			Host:            "0.0.0.0",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// PortNumber parses Port and checks it is a usable TCP port.
func (s ServerConfig) PortNumber() (int, error) {
	port, err := cast.ToIntE(strings.TrimSpace(s.Port))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s.Port, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	return port, nil
}

// Addr returns the listen address, using DefaultPort when Port is unusable.
func (s ServerConfig) Addr() string {
	port, err := s.PortNumber()
	if err != nil {
		port = DefaultPort
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

// SetDefaults registers default values and environment bindings with the
// global viper instance
func SetDefaults() {
	ApplyDefaults(viper.GetViper())
}

// ApplyDefaults registers default values and environment bindings on v
func ApplyDefaults(v *viper.Viper) {
	defaults := Default()

	// Logging defaults
	v.SetDefault("logging.filter", defaults.Logging.Filter)
	v.SetDefault("logging.color", string(defaults.Logging.Color))

	// Paths defaults
	v.SetDefault("paths.base_dir", defaults.Paths.BaseDir)

	// Time defaults
	v.SetDefault("time.zone", defaults.Time.Zone)

	// Server defaults
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout.String())

	v.SetEnvPrefix(EnvPrefix)
	// FERROXIDE_SERVER_SHUTDOWN_TIMEOUT for server.shutdown_timeout
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names first, prefixed ones as fallback.
	_ = v.BindEnv("logging.filter", "LOG_FILTER", EnvPrefix+"_LOGGING_FILTER")
	_ = v.BindEnv("server.port", "PORT", EnvPrefix+"_SERVER_PORT")
}

// Decode reads the configuration from v without validating it
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	cfg, err := Decode(viper.GetViper())
	if err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToColorModeHook(),
	)
}

// stringToColorModeHook normalises case and surrounding space.
func stringToColorModeHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(logging.ColorMode("")) {
			return data, nil
		}
		return logging.ColorMode(strings.ToLower(strings.TrimSpace(data.(string)))), nil
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// Variables already set keep their value. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, paths.AppName)
	}
	// Fall back to ~/.config/ferroxide
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + paths.AppName
	}
	return filepath.Join(home, ".config", paths.AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
