// Package config loads service configuration from an optional YAML file
// overlaid by environment variables, and validates it on startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
	Codec       CodecConfig       `yaml:"codec"`
	Definitions DefinitionsConfig `yaml:"definitions"`
	Output      OutputConfig      `yaml:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"IMEXPORT_LOG_LEVEL" envAlt:"LOG_LEVEL" default:"info"`

	// Format is the log format: console or json (default: console)
	Format string `yaml:"format" env:"IMEXPORT_LOG_FORMAT" envAlt:"LOG_FORMAT" default:"console"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"IMEXPORT_SERVER_HOST" default:"0.0.0.0"`
	Port int    `yaml:"port" env:"IMEXPORT_SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"IMEXPORT_SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"IMEXPORT_SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IMEXPORT_SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"IMEXPORT_SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// MaxUploadBytes caps request bodies on export and import (default: 32MB)
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"IMEXPORT_MAX_UPLOAD_BYTES" default:"33554432"`
}

// CodecConfig selects the codec payload.
type CodecConfig struct {
	// PayloadPath replaces the embedded payload when set.
	PayloadPath string `yaml:"payload_path" env:"IMEXPORT_CODEC_PAYLOAD"`
}

// DefinitionsConfig locates table definition files.
type DefinitionsConfig struct {
	Dir   string `yaml:"dir" env:"IMEXPORT_DEFINITIONS_DIR" default:"definitions"`
	Watch bool   `yaml:"watch" env:"IMEXPORT_DEFINITIONS_WATCH" default:"false"`
}

// OutputConfig holds settings for files written by the CLI.
type OutputConfig struct {
	// Dir receives downloaded templates (default: current directory)
	Dir string `yaml:"dir" env:"IMEXPORT_OUTPUT_DIR" default:"."`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
