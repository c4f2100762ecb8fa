// Package config loads driver tunables from an optional .env file and
// environment variables, following the same load-once/override precedence
// the teacher's device config loader used for its connection settings.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DriverConfig holds the handful of values an operator may want to
// override without recompiling: the enrollment stage count and the
// transport timeouts. Only EnrollTimes is applied (by cmd/egismoc-tool
// through EnrollTimesOverride); the timeout fields are loaded but not
// used, since the egismoc package's timeouts are compile-time constants.
type DriverConfig struct {
	EnrollTimes      int
	SendTimeout      time.Duration
	ReceiveTimeout   time.Duration
	ControlTimeout   time.Duration
	InterruptTimeout time.Duration
}

var (
	driverConfig *DriverConfig
	configLoaded bool
)

// LoadDriverConfig reads EGISMOC_* settings from a .env file in the
// project root (if present) and then from the environment, environment
// variables taking precedence. The result is cached after the first call.
func LoadDriverConfig() (*DriverConfig, error) {
	if driverConfig != nil && configLoaded {
		return driverConfig, nil
	}

	cfg := &DriverConfig{}

	projectRoot := findProjectRoot()
	envPath := filepath.Join(projectRoot, ".env")
	if data, err := os.ReadFile(envPath); err == nil {
		parseEnvFile(string(data), cfg)
	}

	if v := os.Getenv("EGISMOC_ENROLL_TIMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EnrollTimes = n
		}
	}
	if v := os.Getenv("EGISMOC_SEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SendTimeout = d
		}
	}
	if v := os.Getenv("EGISMOC_RECEIVE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReceiveTimeout = d
		}
	}
	if v := os.Getenv("EGISMOC_CONTROL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ControlTimeout = d
		}
	}
	if v := os.Getenv("EGISMOC_INTERRUPT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.InterruptTimeout = d
		}
	}

	driverConfig = cfg
	configLoaded = true
	return cfg, nil
}

func parseEnvFile(content string, cfg *DriverConfig) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "EGISMOC_ENROLL_TIMES":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.EnrollTimes = n
			}
		case "EGISMOC_SEND_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				cfg.SendTimeout = d
			}
		case "EGISMOC_RECEIVE_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				cfg.ReceiveTimeout = d
			}
		case "EGISMOC_CONTROL_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				cfg.ControlTimeout = d
			}
		case "EGISMOC_INTERRUPT_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				cfg.InterruptTimeout = d
			}
		}
	}
}

func findProjectRoot() string {
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}

// EnrollTimesOverride returns the configured EGISMOC_ENROLL_TIMES value,
// or 0 if none was set.
func EnrollTimesOverride() int {
	cfg, err := LoadDriverConfig()
	if err != nil {
		return 0
	}
	return cfg.EnrollTimes
}
