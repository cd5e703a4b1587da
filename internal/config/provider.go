package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"
)

// DefaultTimeout bounds a whole present or cleanup run.
const DefaultTimeout = 60 * time.Second

// ProviderConfig holds the deSEC connection settings and app-level options.
type ProviderConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Token          string `yaml:"token"`
	Timeout        string `yaml:"timeout"`
	RequestTimeout string `yaml:"request_timeout"`
	SkipTLSVerify  bool   `yaml:"skip_tls_verify"`
}

// LoadProviderConfig reads the provider configuration from the path
// specified by the DESEC_CONFIG_PATH environment variable, defaulting to
// "configs/desec.yaml".
func LoadProviderConfig() (*ProviderConfig, error) {
	path := os.Getenv("DESEC_CONFIG_PATH")
	if path == "" {
		path = "configs/desec.yaml"
	}
	return LoadProviderConfigFromPath(path)
}

// LoadProviderConfigFromPath reads the provider configuration from the
// given file path and validates it.
func LoadProviderConfigFromPath(path string) (*ProviderConfig, error) {
	cfg, err := ReadProviderConfigFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadProviderConfigFile reads the provider configuration from path and
// applies environment overrides, leaving validation to the caller so that
// missing values can still be filled from other sources.
func ReadProviderConfigFile(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading provider config file: %w", err)
	}

	var cfg ProviderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing provider config file %s: %w", path, err)
	}

	// Expand ${ENV_VAR} references in string values.
	cfg.Endpoint = os.ExpandEnv(cfg.Endpoint)
	cfg.Token = os.ExpandEnv(cfg.Token)
	cfg.Timeout = os.ExpandEnv(cfg.Timeout)
	cfg.RequestTimeout = os.ExpandEnv(cfg.RequestTimeout)

	cfg.ApplyEnv()
	return &cfg, nil
}

// Validate checks required fields and duration syntax.
func (c *ProviderConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("config: missing required field 'token'")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
			return fmt.Errorf("config: invalid request_timeout %q: %w", c.RequestTimeout, err)
		}
	}
	return nil
}

// TimeoutDuration returns the configured run timeout, DefaultTimeout if unset.
func (c *ProviderConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: timeout must be positive, got %s", d)
	}
	return d, nil
}

// Settings renders the config as the flat map accepted by desec.NewFromSettings.
// Empty optional values are left out.
func (c *ProviderConfig) Settings() map[string]string {
	settings := map[string]string{"token": c.Token}
	if c.Endpoint != "" {
		settings["endpoint"] = c.Endpoint
	}
	if c.RequestTimeout != "" {
		settings["request_timeout"] = c.RequestTimeout
	}
	if c.SkipTLSVerify {
		settings["skip_tls_verify"] = strconv.FormatBool(c.SkipTLSVerify)
	}
	return settings
}
