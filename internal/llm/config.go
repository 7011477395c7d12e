package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is consulted when the hosted tier has no api_key in the file.
const APIKeyEnv = "PLANORA_HOSTED_API_KEY"

// OllamaConfig configures the local model tier.
type OllamaConfig struct {
	// BaseURL of the Ollama server.
	BaseURL string `yaml:"base_url"`
	// Model name to generate with.
	Model string `yaml:"model"`
	// TimeoutSeconds bounds one generation attempt.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// HostedConfig configures the hosted inference tier. An empty APIKey leaves
// the tier effectively disabled: probes and generation fail immediately and
// the selector moves on.
type HostedConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ProbeConfig controls the background availability prober.
type ProbeConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
}

// Config holds provider tier configuration, loaded from ~/.planora/llm.yaml.
type Config struct {
	Ollama OllamaConfig `yaml:"ollama"`
	Hosted HostedConfig `yaml:"hosted"`
	Probe  ProbeConfig  `yaml:"probe"`
}

func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c HostedConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ProbeConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfig returns the stock tier configuration.
func DefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "llama2",
			TimeoutSeconds: 60,
		},
		Hosted: HostedConfig{
			BaseURL:        "https://api.openai.com",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		Probe: ProbeConfig{
			IntervalSeconds: 30,
			TimeoutSeconds:  2,
		},
	}
}

// LoadConfig loads tier configuration from a YAML file. A missing file
// yields the defaults without error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromHome loads configuration from ~/.planora/llm.yaml.
func LoadConfigFromHome() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}

	path := filepath.Join(home, ".planora", "llm.yaml")
	return LoadConfig(path)
}

// SaveConfig writes configuration to a YAML file, creating parent
// directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SaveConfigToHome writes configuration to ~/.planora/llm.yaml.
func SaveConfigToHome(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home dir: %w", err)
	}
	path := filepath.Join(home, ".planora", "llm.yaml")
	return SaveConfig(path, cfg)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama model cannot be empty")
	}
	if c.Hosted.Model == "" {
		return fmt.Errorf("hosted model cannot be empty")
	}
	if c.Ollama.TimeoutSeconds < 1 {
		return fmt.Errorf("ollama timeout_seconds must be at least 1")
	}
	if c.Hosted.TimeoutSeconds < 1 {
		return fmt.Errorf("hosted timeout_seconds must be at least 1")
	}
	if c.Probe.IntervalSeconds < 1 {
		return fmt.Errorf("probe interval_seconds must be at least 1")
	}
	if c.Probe.TimeoutSeconds < 1 {
		return fmt.Errorf("probe timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.Hosted.APIKey == "" {
		c.Hosted.APIKey = os.Getenv(APIKeyEnv)
	}
}
