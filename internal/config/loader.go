package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration in three layers: struct defaults, then
// the YAML file at path (skipped when path is empty), then environment
// variables. The result is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), defaultTag); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), envValue); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// source returns the raw value for a field, or "" to leave it untouched.
type source func(field reflect.StructField) (value, name string)

func defaultTag(field reflect.StructField) (string, string) {
	return field.Tag.Get("default"), field.Name
}

func envValue(field reflect.StructField) (string, string) {
	envName := field.Tag.Get("env")
	if envName == "" {
		return "", ""
	}
	if v := os.Getenv(envName); v != "" {
		return v, envName
	}
	if alt := field.Tag.Get("envAlt"); alt != "" {
		return os.Getenv(alt), alt
	}
	return "", envName
}

// loadStruct recursively populates struct fields from src.
func loadStruct(v reflect.Value, src source) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, src); err != nil {
				return err
			}
			continue
		}

		value, name := src(field)
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid and reports every
// problem at once.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("log level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"console": true, "text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("log format (%q) must be one of: console, json", c.Logging.Format))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server port (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		errs = append(errs, "server timeouts must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "server shutdown timeout must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, "max upload bytes must be positive")
	}

	if c.Definitions.Watch && c.Definitions.Dir == "" {
		errs = append(errs, "definitions dir is required when watch is enabled")
	}
	if c.Output.Dir == "" {
		errs = append(errs, "output dir is required")
	}

	if len(errs) > 0 {
		return errors.New("validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a one-line summary for startup logs.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format))
	b.WriteString(fmt.Sprintf("Server: {Addr: %q, MaxUploadBytes: %d}, ", c.Server.Addr(), c.Server.MaxUploadBytes))
	b.WriteString(fmt.Sprintf("Codec: {PayloadPath: %q}, ", c.Codec.PayloadPath))
	b.WriteString(fmt.Sprintf("Definitions: {Dir: %q, Watch: %v}, ", c.Definitions.Dir, c.Definitions.Watch))
	b.WriteString(fmt.Sprintf("Output: {Dir: %q}", c.Output.Dir))
	b.WriteString("}")
	return b.String()
}
