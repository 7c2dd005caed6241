package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Config represents the complete issue-gw configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	GitHub  GitHubConfig  `yaml:"github"`
	State   StateConfig   `yaml:"state"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

// GitHubConfig defines the upstream repository and shared secrets.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// Token authenticates issue CRUD calls against the GitHub API.
	Token string `yaml:"token"`

	// WebhookSecret is the shared HMAC secret for webhook verification.
	WebhookSecret string `yaml:"webhook_secret"`
}

// StateConfig defines event storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "issue-gw",
			Listen:   "127.0.0.1:8000",
			LogLevel: "info",
		},
		State: StateConfig{
			Path: "./data/issuegw.db",
		},
	}
}

// Load reads and parses configuration from a YAML file. ${VAR} placeholders
// are interpolated from the environment before parsing, so secrets stay out
// of the file itself.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", configPath)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds configuration from environment variables alone:
// GITHUB_OWNER, GITHUB_REPO, GITHUB_TOKEN, WEBHOOK_SECRET, and optionally
// PORT, LOG_LEVEL, STATE_PATH. Used when no config file is given.
func FromEnv() (*Config, error) {
	cfg := &Config{
		GitHub: GitHubConfig{
			Owner:         os.Getenv("GITHUB_OWNER"),
			Repo:          os.Getenv("GITHUB_REPO"),
			Token:         os.Getenv("GITHUB_TOKEN"),
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		},
		Service: ServiceConfig{
			LogLevel: os.Getenv("LOG_LEVEL"),
		},
		State: StateConfig{
			Path: os.Getenv("STATE_PATH"),
		},
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Service.Listen = "0.0.0.0:" + port
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyDefaults merges default values into config where not explicitly set.
func applyDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.Listen == "" {
		cfg.Service.Listen = defaults.Service.Listen
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if cfg.GitHub.Owner == "" {
		return fmt.Errorf("github.owner is required")
	}
	if cfg.GitHub.Repo == "" {
		return fmt.Errorf("github.repo is required")
	}
	if cfg.GitHub.WebhookSecret == "" {
		return fmt.Errorf("github.webhook_secret is required")
	}

	// Check for unresolved env vars (security: fail fast, no secrets leaked in logs)
	for name, value := range map[string]string{
		"github.token":          cfg.GitHub.Token,
		"github.webhook_secret": cfg.GitHub.WebhookSecret,
	} {
		if envVarPattern.MatchString(value) {
			matches := envVarPattern.FindStringSubmatch(value)
			if len(matches) > 1 {
				return fmt.Errorf("%s: environment variable ${%s} is not set", name, matches[1])
			}
			return fmt.Errorf("%s: unresolved environment variable", name)
		}
	}

	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}

		// If not found, leave the placeholder (will fail validation if required)
		return match
	})
}
