package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultStopTimeout = 10 * time.Second
	defaultLogLevel    = "warn"

	envStopTimeout = "PROCKILL_STOP_TIMEOUT"
	envOutput      = "PROCKILL_OUTPUT"
	envLogLevel    = "PROCKILL_LOG_LEVEL"
)

// Defaults holds values used when the corresponding flag is not given.
type Defaults struct {
	StopTimeout  time.Duration
	Output       OutputMode
	StopServices StopServicesMode
	LogLevel     string
	// Warnings lists ignored environment overrides, for logging once a logger
	// exists.
	Warnings []string
}

// DefaultPath returns the per-user defaults file location, or "" when the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "prockill", "config.yaml")
}

// Load builds Defaults from an optional YAML file plus environment overrides.
// A missing file is not an error.
func Load(path string) (Defaults, error) {
	defs := Defaults{
		StopTimeout:  defaultStopTimeout,
		Output:       OutputResult,
		StopServices: StopServicesNone,
		LogLevel:     defaultLogLevel,
	}

	if path != "" {
		if err := loadFromFile(path, &defs); err != nil {
			return defs, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&defs)
	return defs, nil
}

func applyEnvOverrides(defs *Defaults) {
	if v := os.Getenv(envStopTimeout); v != "" {
		if dur, err := parseTimeout(v); err == nil {
			defs.StopTimeout = dur
		} else {
			defs.Warnings = append(defs.Warnings, fmt.Sprintf("ignoring invalid %s value %q: %v", envStopTimeout, v, err))
		}
	}

	if v := os.Getenv(envOutput); v != "" {
		if mode, err := ParseOutputMode(v); err == nil {
			defs.Output = mode
		} else {
			defs.Warnings = append(defs.Warnings, fmt.Sprintf("ignoring invalid %s value %q: %v", envOutput, v, err))
		}
	}

	if v := os.Getenv(envLogLevel); v != "" {
		defs.LogLevel = v
	}
}

type fileConfig struct {
	StopTimeout  string `yaml:"stop_timeout"`
	Output       string `yaml:"output"`
	StopServices string `yaml:"stop_services"`
	LogLevel     string `yaml:"log_level"`
}

func loadFromFile(path string, defs *Defaults) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.StopTimeout != "" {
		dur, err := parseTimeout(raw.StopTimeout)
		if err != nil {
			return fmt.Errorf("parse stop_timeout: %w", err)
		}
		defs.StopTimeout = dur
	}
	if raw.Output != "" {
		mode, err := ParseOutputMode(raw.Output)
		if err != nil {
			return fmt.Errorf("parse output: %w", err)
		}
		defs.Output = mode
	}
	if raw.StopServices != "" {
		mode, err := ParseStopServicesMode(raw.StopServices)
		if err != nil {
			return fmt.Errorf("parse stop_services: %w", err)
		}
		defs.StopServices = mode
	}
	if raw.LogLevel != "" {
		defs.LogLevel = raw.LogLevel
	}
	return nil
}

// parseTimeout accepts a Go duration ("15s") or a whole number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, errors.New("timeout must be > 0")
		}
		return time.Duration(secs) * time.Second, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if dur <= 0 {
		return 0, errors.New("timeout must be > 0")
	}
	return dur, nil
}
