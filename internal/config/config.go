// Package config provides configuration management for the news aggregator.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidPageSize   = errors.New("page_size must be at least 1")
	ErrInvalidTake       = errors.New("take must be at least 1")
	ErrInvalidTimeout    = errors.New("timeout_ms must be at least 1")
	ErrMissingQuery      = errors.New("query is required")
	ErrMissingBaseURL    = errors.New("base_url is required")
	ErrInvalidMaxBody    = errors.New("http.max_body_kb must be at least 1")
	ErrInvalidLogLevel   = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat  = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidRevalidate = errors.New("server.revalidate_sec must be non-negative")
	ErrMissingServerAddr = errors.New("server.addr is required")
)

// Environment variables holding credentials. Credentials never live in YAML.
const (
	EnvRegulationsAPIKey = "REGULATIONS_API_KEY"
	EnvOpenStatesAPIKey  = "OPENSTATES_API_KEY"
	EnvSMTPUser          = "SMTP_USER"
	EnvSMTPPass          = "SMTP_PASS"
)

// Config represents the complete aggregator configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Brief   BriefConfig   `yaml:"brief"`
}

// SourcesConfig holds one block per upstream API.
type SourcesConfig struct {
	FederalRegister SourceConfig `yaml:"federal_register"`
	CourtListener   SourceConfig `yaml:"courtlistener"`
	Regulations     SourceConfig `yaml:"regulations"`
	OpenStates      SourceConfig `yaml:"openstates"`
}

// SourceConfig controls the query sent to one source and how much of it reaches the feed.
type SourceConfig struct {
	BaseURL      string `yaml:"base_url"`
	Query        string `yaml:"query"`
	UserAgent    string `yaml:"user_agent,omitempty"`
	Jurisdiction string `yaml:"jurisdiction,omitempty"`
	PageSize     int    `yaml:"page_size"`
	Take         int    `yaml:"take"`
	TimeoutMs    int    `yaml:"timeout_ms"`
}

// Timeout returns the per-request timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// HTTPConfig holds settings shared by every outbound request.
type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
	MaxBodyKb int    `yaml:"max_body_kb"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the feed endpoint.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	RevalidateSec int    `yaml:"revalidate_sec"`
}

// Revalidate returns how long a generated feed is served before regeneration.
func (s ServerConfig) Revalidate() time.Duration {
	return time.Duration(s.RevalidateSec) * time.Second
}

// BriefConfig configures the emailed brief. SMTP credentials come from the environment.
type BriefConfig struct {
	Title      string `yaml:"title"`
	SMTPServer string `yaml:"smtp_server"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
	SMTPPort   int    `yaml:"smtp_port"`
	MaxItems   int    `yaml:"max_items"`
}

// Credentials are the secrets read from the environment.
type Credentials struct {
	RegulationsAPIKey string
	OpenStatesAPIKey  string
	SMTPUser          string
	SMTPPass          string
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			FederalRegister: SourceConfig{
				BaseURL:   "https://www.federalregister.gov/api/v1",
				Query:     "Texas wetlands OR waterfowl OR endangered species OR Clean Water Act",
				PageSize:  25,
				Take:      12,
				TimeoutMs: 20000,
			},
			CourtListener: SourceConfig{
				BaseURL:   "https://www.courtlistener.com",
				Query:     `Texas (wetlands OR waterfowl OR "Clean Water Act" OR "Endangered Species Act")`,
				PageSize:  20,
				Take:      8,
				TimeoutMs: 25000,
			},
			Regulations: SourceConfig{
				BaseURL:   "https://api.regulations.gov/v4",
				Query:     "Texas wetlands OR waterfowl OR Endangered Species Act OR Clean Water Act",
				PageSize:  20,
				Take:      8,
				TimeoutMs: 20000,
			},
			OpenStates: SourceConfig{
				BaseURL:      "https://v3.openstates.org",
				Query:        "wetlands OR waterfowl OR wildlife OR hunting OR conservation",
				Jurisdiction: "Texas",
				PageSize:     20,
				Take:         8,
				TimeoutMs:    20000,
			},
		},
		HTTP: HTTPConfig{
			MaxBodyKb: 4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:          ":8080",
			RevalidateSec: 3600,
		},
		Brief: BriefConfig{
			Title:    "Texas Waterfowl & Habitat Brief",
			SMTPPort: 587,
			MaxItems: 20,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of DefaultConfig.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultConfigPath is tried when no config file is given.
const DefaultConfigPath = "configs/conservation.yaml"

// LoadOrDefault loads path when set. Otherwise it loads DefaultConfigPath if
// present and falls back to DefaultConfig. The returned string names the
// source of the configuration.
func LoadOrDefault(path string) (*Config, string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err != nil {
			return DefaultConfig(), "built-in defaults", nil
		}

		path = DefaultConfigPath
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sources := []struct {
		name string
		src  SourceConfig
	}{
		{"sources.federal_register", c.Sources.FederalRegister},
		{"sources.courtlistener", c.Sources.CourtListener},
		{"sources.regulations", c.Sources.Regulations},
		{"sources.openstates", c.Sources.OpenStates},
	}

	for _, s := range sources {
		if err := s.src.validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	if c.HTTP.MaxBodyKb < 1 {
		return ErrInvalidMaxBody
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if c.Server.Addr == "" {
		return ErrMissingServerAddr
	}

	if c.Server.RevalidateSec < 0 {
		return ErrInvalidRevalidate
	}

	return nil
}

func (s SourceConfig) validate() error {
	if s.BaseURL == "" {
		return ErrMissingBaseURL
	}

	if s.Query == "" {
		return ErrMissingQuery
	}

	if s.PageSize < 1 {
		return ErrInvalidPageSize
	}

	if s.Take < 1 {
		return ErrInvalidTake
	}

	if s.TimeoutMs < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are not an error.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return nil
}

// CredentialsFromEnv reads credentials from the process environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		RegulationsAPIKey: os.Getenv(EnvRegulationsAPIKey),
		OpenStatesAPIKey:  os.Getenv(EnvOpenStatesAPIKey),
		SMTPUser:          os.Getenv(EnvSMTPUser),
		SMTPPass:          os.Getenv(EnvSMTPPass),
	}
}

// String returns a string representation of the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{FederalRegister: take %d, CourtListener: take %d, Regulations: take %d, OpenStates: take %d, Log: %s}",
		c.Sources.FederalRegister.Take,
		c.Sources.CourtListener.Take,
		c.Sources.Regulations.Take,
		c.Sources.OpenStates.Take,
		c.Logging.Level,
	)
}
