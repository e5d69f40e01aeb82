package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the daemon configuration
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Service   ServiceConfig
	Indicator IndicatorConfig
	Logging   LoggingConfig

	v *viper.Viper
}

// ServerConfig represents the control socket configuration
type ServerConfig struct {
	UnixSocket string `mapstructure:"unix_socket"`
}

// APIConfig represents the optional HTTP API. An empty address disables it.
type APIConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	// RateLimit is requests per minute per client IP; 0 disables limiting
	RateLimit int `mapstructure:"rate_limit"`
}

// ServiceConfig selects and locates the brightness service
type ServiceConfig struct {
	Backend     string
	Protocol    string
	BusName     string `mapstructure:"bus_name"`
	ObjectPath  string `mapstructure:"object_path"`
	Interface   string
	SysfsDevice string `mapstructure:"sysfs_device"`
	Step        int
	// Timeout is in seconds
	Timeout float64
}

// IndicatorConfig places the indicator and its settings file
type IndicatorConfig struct {
	SettingsFile string `mapstructure:"settings_file"`
	Position     int
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from a file and environment variables. A missing
// file yields the defaults; a malformed one is an error.
func Load(configName, configFile string) (*Config, error) {
	return LoadWith(viper.New(), configName, configFile)
}

// LoadWith is Load on a caller-supplied viper instance, so flags bound to it
// take precedence over the file.
func LoadWith(v *viper.Viper, configName, configFile string) (*Config, error) {
	v.SetConfigType("yaml")

	v.SetDefault("server.unix_socket", GetRuntimeSocketPath())
	v.SetDefault("api.listen_address", "")
	v.SetDefault("api.rate_limit", DefaultRateLimit)
	v.SetDefault("service.backend", BackendGSD)
	v.SetDefault("service.protocol", "methods")
	v.SetDefault("service.bus_name", "")
	v.SetDefault("service.object_path", "")
	v.SetDefault("service.interface", "")
	v.SetDefault("service.timeout", DefaultServiceTimeout.Seconds())
	v.SetDefault("service.sysfs_device", "")
	v.SetDefault("service.step", DefaultStep)
	v.SetDefault("indicator.settings_file", GetSettingsPath())
	v.SetDefault("indicator.position", DefaultPanelPosition)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)

	if configFile != "" {
		v.SetConfigFile(configFile)
		slog.Debug("Using config file from command line", "path", configFile)
	} else {
		v.SetConfigFile(GetConfigPath(configName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			UnixSocket: v.GetString("server.unix_socket"),
		},
		API: APIConfig{
			ListenAddress: v.GetString("api.listen_address"),
			RateLimit:     v.GetInt("api.rate_limit"),
		},
		Service: ServiceConfig{
			Backend:     v.GetString("service.backend"),
			Protocol:    v.GetString("service.protocol"),
			BusName:     v.GetString("service.bus_name"),
			ObjectPath:  v.GetString("service.object_path"),
			Interface:   v.GetString("service.interface"),
			Timeout:     v.GetFloat64("service.timeout"),
			SysfsDevice: v.GetString("service.sysfs_device"),
			Step:        v.GetInt("service.step"),
		},
		Indicator: IndicatorConfig{
			SettingsFile: v.GetString("indicator.settings_file"),
			Position:     v.GetInt("indicator.position"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		v: v,
	}

	return cfg, nil
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	logger := slog.Default()
	if c.v == nil {
		c.v = viper.New()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	c.v.Set("server", map[string]any{"unix_socket": c.Server.UnixSocket})
	c.v.Set("api", map[string]any{"listen_address": c.API.ListenAddress, "rate_limit": c.API.RateLimit})
	c.v.Set("service", map[string]any{
		"backend":      c.Service.Backend,
		"protocol":     c.Service.Protocol,
		"bus_name":     c.Service.BusName,
		"object_path":  c.Service.ObjectPath,
		"interface":    c.Service.Interface,
		"timeout":      c.Service.Timeout,
		"sysfs_device": c.Service.SysfsDevice,
		"step":         c.Service.Step,
	})
	c.v.Set("indicator", map[string]any{
		"settings_file": c.Indicator.SettingsFile,
		"position":      c.Indicator.Position,
	})
	c.v.Set("logging", map[string]any{"level": c.Logging.Level, "format": c.Logging.Format})

	if err := c.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	logger.Info("Configuration saved", "path", path)
	return nil
}

// Get retrieves a raw value from the configuration
func (c *Config) Get(key string) any {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}
