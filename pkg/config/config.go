package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	envparse "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config defines runtime settings for talentrelay.
type Config struct {
	LogLevel  string          `yaml:"logLevel" env:"TALENTRELAY_LOG_LEVEL"`
	LogFormat string          `yaml:"logFormat" env:"TALENTRELAY_LOG_FORMAT"`
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	StaticDir       string        `yaml:"staticDir" env:"STATIC_DIR"`
	AllowedOrigins  []string      `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","`
	MaxInFlight     int           `yaml:"maxInFlight" env:"MAX_IN_FLIGHT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
}

type AssistantConfig struct {
	// Provider is "openai" or "mock".
	Provider     string        `yaml:"provider" env:"ASSISTANT_PROVIDER"`
	APIKey       string        `yaml:"apiKey" env:"OPENAI_API_KEY"`
	AssistantID  string        `yaml:"assistantId" env:"ASSISTANT_ID"`
	BaseURL      string        `yaml:"baseUrl" env:"OPENAI_BASE_URL"`
	RunTimeout   time.Duration `yaml:"runTimeout" env:"RUN_TIMEOUT"`
	PollInterval time.Duration `yaml:"pollInterval" env:"POLL_INTERVAL"`
	MockReply    string        `yaml:"mockReply" env:"MOCK_REPLY"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Server: ServerConfig{
			Port:            3000,
			StaticDir:       "./build",
			MaxInFlight:     32,
			ShutdownTimeout: 10 * time.Second,
		},
		Assistant: AssistantConfig{
			Provider:     "openai",
			RunTimeout:   2 * time.Minute,
			PollInterval: time.Second,
			MockReply:    "This is a canned reply from the mock assistant.",
		},
	}
}

// LoadConfig loads configuration from a YAML file and environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envparse.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// Validate reports settings that would make every request fail.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Server.Port))
	}
	if c.Server.MaxInFlight < 0 {
		errs = append(errs, fmt.Errorf("maxInFlight must not be negative: %d", c.Server.MaxInFlight))
	}
	switch c.Assistant.Provider {
	case "openai", "":
		if c.Assistant.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
		}
		if c.Assistant.AssistantID == "" {
			errs = append(errs, errors.New("ASSISTANT_ID is not set"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown assistant provider: %s", c.Assistant.Provider))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DefaultConfigPath returns the config file named by TALENTRELAY_CONFIG, or
// "" when unset.
func DefaultConfigPath() string {
	return os.Getenv("TALENTRELAY_CONFIG")
}
