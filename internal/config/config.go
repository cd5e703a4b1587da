package config

import "os"

// Environment variables that take priority over file values.
const (
	EnvToken    = "DESEC_TOKEN"
	EnvEndpoint = "DESEC_ENDPOINT"
	EnvTimeout  = "DESEC_TIMEOUT"
)

// ApplyEnv overrides fields with DESEC_* environment variables when set.
// Priority is ENV > file > default.
func (c *ProviderConfig) ApplyEnv() {
	c.Token = getEnv(EnvToken, c.Token)
	c.Endpoint = getEnv(EnvEndpoint, c.Endpoint)
	c.Timeout = getEnv(EnvTimeout, c.Timeout)
}

// Merge fills empty fields of c from creds.
func (c *ProviderConfig) Merge(creds *Credentials) {
	if creds == nil {
		return
	}
	if c.Token == "" {
		c.Token = creds.Token
	}
	if c.Endpoint == "" {
		c.Endpoint = creds.Endpoint
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
