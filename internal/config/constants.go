package config

import "time"

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "brightnessd"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "brightnessd.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "brightnessctl.yaml"

	// SettingsFilename holds the indicator settings (level, persist, showicon)
	SettingsFilename = "settings.yaml"

	// SocketFilename is the base filename for the Unix socket
	SocketFilename = "brightnessd.sock"

	// EnvPrefix prefixes environment overrides, e.g. BRIGHTNESSD_LOGGING_LEVEL
	EnvPrefix = "BRIGHTNESSD"
)

// Service backends
const (
	BackendGSD    = "gsd"
	BackendSysfs  = "sysfs"
	BackendMemory = "memory"
)

// Defaults
const (
	// DefaultServiceTimeout bounds every call to the brightness service
	DefaultServiceTimeout = 2 * time.Second

	// DefaultStep is the step used by backends that don't define their own
	DefaultStep = 5

	// DefaultPanelPosition is the ordinal at which the indicator is attached
	DefaultPanelPosition = 3

	// DefaultLevel is the persisted level before anything was stored
	DefaultLevel = "50"

	// DefaultRateLimit is the HTTP API's requests per minute per client IP
	DefaultRateLimit = 120
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
