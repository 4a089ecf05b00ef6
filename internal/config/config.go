package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
)

// Built-in defaults applied after every other source.
const (
	DefaultOutput       = "report.md"
	DefaultAnalysisType = "security_analysis"
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8000
	DefaultRateLimit    = 1
)

// Config represents the tool configuration
type Config struct {
	Output        string  `yaml:"output,omitempty"`
	AnalysisType  string  `yaml:"analysis_type,omitempty"`
	Model         string  `yaml:"model,omitempty"`
	APIKey        string  `yaml:"api_key,omitempty"`
	Host          string  `yaml:"host,omitempty"`
	Port          int     `yaml:"port,omitempty"`
	RateLimit     float64 `yaml:"rate_limit,omitempty"`
	WebhookURL    string  `yaml:"webhook_url,omitempty"`
	WebhookSecret string  `yaml:"webhook_secret,omitempty"`
}

// DefaultPath returns the default path to the configuration file
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guardian.yaml"
	}
	return filepath.Join(home, ".guardian.yaml")
}

// Load loads the configuration from the given path. A missing file is not
// an error and yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// Merge merges environment variables and flags into the config and fills
// anything still unset with the built-in defaults. Precedence is flags over
// environment over config file over defaults.
func Merge(config *Config, flags map[string]interface{}) *Config {
	merged := *config

	// Environment variables take precedence over the config file
	if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
		merged.APIKey = key
	}
	if host := os.Getenv("BIND_HOST"); host != "" {
		merged.Host = host
	}
	if port := os.Getenv("BIND_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			merged.Port = p
		}
	}

	// Command line flags take precedence over everything
	for k, v := range flags {
		switch k {
		case "output":
			if s, ok := v.(string); ok && s != "" {
				merged.Output = s
			}
		case "analysis-type":
			if s, ok := v.(string); ok && s != "" {
				merged.AnalysisType = s
			}
		case "model":
			if s, ok := v.(string); ok && s != "" {
				merged.Model = s
			}
		case "mistral-key":
			if s, ok := v.(string); ok && s != "" {
				merged.APIKey = s
			}
		case "host":
			if s, ok := v.(string); ok && s != "" {
				merged.Host = s
			}
		case "port":
			if p, ok := v.(int); ok && p != 0 {
				merged.Port = p
			}
		case "rate-limit":
			if r, ok := v.(float64); ok && r != 0 {
				merged.RateLimit = r
			}
		case "webhook-url":
			if s, ok := v.(string); ok && s != "" {
				merged.WebhookURL = s
			}
		case "webhook-secret":
			if s, ok := v.(string); ok && s != "" {
				merged.WebhookSecret = s
			}
		}
	}

	if merged.Output == "" {
		merged.Output = DefaultOutput
	}
	if merged.AnalysisType == "" {
		merged.AnalysisType = DefaultAnalysisType
	}
	if merged.Model == "" {
		merged.Model = mistral.DefaultModel
	}
	if merged.Host == "" {
		merged.Host = DefaultHost
	}
	if merged.Port == 0 {
		merged.Port = DefaultPort
	}
	if merged.RateLimit == 0 {
		merged.RateLimit = DefaultRateLimit
	}

	return &merged
}
