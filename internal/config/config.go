package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all Timbre configuration.
type Config struct {
	OutputDir      string // directory artifacts are written into
	RuntimeLibPath string // ONNX Runtime shared library location
	Log            LogConfig
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string // trace, debug, info, warn, error
	Format string // "console" or "json"
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		OutputDir:      getenv("TIMBRE_OUTPUT_DIR", "."),
		RuntimeLibPath: getenv("TIMBRE_ONNXRUNTIME_PATH", "libonnxruntime.so"),
		Log: LogConfig{
			Level:  getenv("TIMBRE_LOG_LEVEL", "info"),
			Format: getenv("TIMBRE_LOG_FORMAT", "console"),
		},
	}
}

// Validate checks the configuration and reports every problem found.
// The ONNX Runtime library is deliberately not checked for existence:
// a missing runtime downgrades export at run time instead of aborting.
func (c Config) Validate() error {
	var errs []error

	if c.OutputDir == "" {
		errs = append(errs, errors.New("TIMBRE_OUTPUT_DIR must not be empty"))
	} else if info, err := os.Stat(c.OutputDir); err != nil {
		errs = append(errs, fmt.Errorf("TIMBRE_OUTPUT_DIR: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("TIMBRE_OUTPUT_DIR %q is not a directory", c.OutputDir))
	}

	if c.RuntimeLibPath == "" {
		errs = append(errs, errors.New("TIMBRE_ONNXRUNTIME_PATH must not be empty"))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q is not supported", c.Log.Format))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
