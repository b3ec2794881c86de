// Package config resolves runtime settings from flags, environment and .env files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Setting keys, shared by flags and viper
const (
	KeyMode      = "mode"
	KeyAPIURL    = "api-url"
	KeyExportDir = "export-dir"
	KeyLogFile   = "log-file"
	KeyLogLevel  = "log-level"
	KeyTimeout   = "timeout"
)

const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// DefaultDevAPIURL is used in dev mode when no API location is configured
const DefaultDevAPIURL = "http://localhost:8000"

// Config is the resolved runtime configuration
type Config struct {
	// Mode is "dev" or "prod". Only dev mode falls back to a local API.
	Mode string

	// APIURL is the summarization service base location
	APIURL string

	// ExportDir receives exported summary files
	ExportDir string

	// LogFile receives logs; empty discards them
	LogFile string

	// LogLevel is debug, info, warn or error
	LogLevel string

	// Timeout bounds each HTTP call; zero leaves the transport default
	Timeout time.Duration
}

// IsProd reports whether the production mode is active
func (c *Config) IsProd() bool {
	return c.Mode == ModeProd
}

// LoadDotEnv reads a .env file from the working directory if one exists
func LoadDotEnv() {
	_ = godotenv.Load()
}

// NewViper returns a viper instance with defaults and environment bindings
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyMode, ModeDev)
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTimeout, time.Duration(0))

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// VITE_API_URL is accepted so an existing web deployment's .env keeps working
	mustBindEnv(v, KeyAPIURL, "SUMMARIZER_API_URL", "VITE_API_URL")
	mustBindEnv(v, KeyMode, "SUMMARIZER_MODE")
	mustBindEnv(v, KeyExportDir, "SUMMARIZER_EXPORT_DIR")
	mustBindEnv(v, KeyLogFile, "SUMMARIZER_LOG_FILE")
	mustBindEnv(v, KeyLogLevel, "LOG_LEVEL")
	mustBindEnv(v, KeyTimeout, "SUMMARIZER_TIMEOUT")

	return v
}

func mustBindEnv(v *viper.Viper, key string, envs ...string) {
	if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
		panic(err)
	}
}

// Load builds a validated Config from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Mode:      strings.ToLower(strings.TrimSpace(v.GetString(KeyMode))),
		ExportDir: v.GetString(KeyExportDir),
		LogFile:   v.GetString(KeyLogFile),
		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		Timeout:   v.GetDuration(KeyTimeout),
	}
	cfg.APIURL = ResolveAPIURL(cfg.Mode, v.GetString(KeyAPIURL))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveAPIURL applies the override, then the dev fallback.
// In prod mode with no override the result is empty.
func ResolveAPIURL(mode, override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return strings.TrimRight(override, "/")
	}
	if mode == ModeProd {
		return ""
	}
	return DefaultDevAPIURL
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeProd {
		return fmt.Errorf("invalid mode %q: must be %q or %q", c.Mode, ModeDev, ModeProd)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be debug, info, warn or error", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}

	return nil
}
