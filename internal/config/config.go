// Package config loads application configuration from an optional YAML file
// and CHILL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	DBPath           string
	AudioDir         string
	LogLevel         string
	LogFile          string
	ThinkMin         time.Duration
	ThinkMax         time.Duration
	VoiceDelay       time.Duration
	SubmitPolicy     string
	CredentialScheme string
	MetricsFile      string
}

// fileConfig mirrors Config for the YAML overlay. Durations are strings in
// time.ParseDuration syntax; unset keys leave the default in place.
type fileConfig struct {
	DBPath           *string `yaml:"db_path"`
	AudioDir         *string `yaml:"audio_dir"`
	LogLevel         *string `yaml:"log_level"`
	LogFile          *string `yaml:"log_file"`
	ThinkMin         *string `yaml:"think_min"`
	ThinkMax         *string `yaml:"think_max"`
	VoiceDelay       *string `yaml:"voice_delay"`
	SubmitPolicy     *string `yaml:"submit_policy"`
	CredentialScheme *string `yaml:"credential_scheme"`
	MetricsFile      *string `yaml:"metrics_file"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		DBPath:           "chill.db",
		AudioDir:         "chill-audio",
		LogLevel:         "info",
		ThinkMin:         1000 * time.Millisecond,
		ThinkMax:         2000 * time.Millisecond,
		VoiceDelay:       1500 * time.Millisecond,
		SubmitPolicy:     "queue",
		CredentialScheme: "plain",
	}
}

// Load builds the configuration from defaults, then the YAML file at path (or
// CHILL_CONFIG when path is empty), then CHILL_ environment variables.
// Optional variables with defaults: CHILL_DB_PATH (chill.db),
// CHILL_AUDIO_DIR (chill-audio), CHILL_LOG_LEVEL (info), CHILL_LOG_FILE
// (stderr), CHILL_THINK_MIN (1s), CHILL_THINK_MAX (2s), CHILL_VOICE_DELAY
// (1.5s), CHILL_SUBMIT_POLICY (queue), CHILL_CREDENTIAL_SCHEME (plain),
// CHILL_METRICS_FILE (disabled).
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CHILL_CONFIG")
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.DBPath, fc.DBPath)
	setString(&c.AudioDir, fc.AudioDir)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, fc.LogFile)
	setString(&c.SubmitPolicy, fc.SubmitPolicy)
	setString(&c.CredentialScheme, fc.CredentialScheme)
	setString(&c.MetricsFile, fc.MetricsFile)

	for _, d := range []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"think_min", fc.ThinkMin, &c.ThinkMin},
		{"think_max", fc.ThinkMax, &c.ThinkMax},
		{"voice_delay", fc.VoiceDelay, &c.VoiceDelay},
	} {
		if d.src == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config file %s: %s has invalid duration %q: %w", path, d.key, *d.src, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) overlayEnv() error {
	lookupString(&c.DBPath, "CHILL_DB_PATH")
	lookupString(&c.AudioDir, "CHILL_AUDIO_DIR")
	lookupString(&c.LogLevel, "CHILL_LOG_LEVEL")
	lookupString(&c.LogFile, "CHILL_LOG_FILE")
	lookupString(&c.SubmitPolicy, "CHILL_SUBMIT_POLICY")
	lookupString(&c.CredentialScheme, "CHILL_CREDENTIAL_SCHEME")
	lookupString(&c.MetricsFile, "CHILL_METRICS_FILE")

	for key, dst := range map[string]*time.Duration{
		"CHILL_THINK_MIN":   &c.ThinkMin,
		"CHILL_THINK_MAX":   &c.ThinkMax,
		"CHILL_VOICE_DELAY": &c.VoiceDelay,
	} {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
		}
		*dst = parsed
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DBPath) == "":
		return errors.New("db path must not be empty")
	case strings.TrimSpace(c.AudioDir) == "":
		return errors.New("audio dir must not be empty")
	case c.ThinkMin < 0 || c.VoiceDelay < 0:
		return errors.New("delays must not be negative")
	case c.ThinkMax < c.ThinkMin:
		return fmt.Errorf("think max %s is below think min %s", c.ThinkMax, c.ThinkMin)
	}

	switch strings.ToLower(c.SubmitPolicy) {
	case "queue", "reject":
	default:
		return fmt.Errorf("submit policy %q must be queue or reject", c.SubmitPolicy)
	}
	switch strings.ToLower(c.CredentialScheme) {
	case "plain", "argon2":
	default:
		return fmt.Errorf("credential scheme %q must be plain or argon2", c.CredentialScheme)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
