package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Credentials are the values read from a certbot-style credentials file:
//
//	dns_desec_token = <token>
//	dns_desec_endpoint = https://desec.io/api/v1/
type Credentials struct {
	Token    string
	Endpoint string
}

// LoadCredentialsINI reads a credentials INI file. Keys may carry the
// "dns_" prefix certbot adds to plugin options or be given bare.
func LoadCredentialsINI(path string) (*Credentials, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: loading credentials file: %w", err)
	}

	sec := file.Section("")
	creds := &Credentials{
		Token:    lookup(sec, "dns_desec_token", "desec_token"),
		Endpoint: lookup(sec, "dns_desec_endpoint", "desec_endpoint"),
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("config: credentials file %s: missing dns_desec_token", path)
	}
	return creds, nil
}

func lookup(sec *ini.Section, keys ...string) string {
	for _, k := range keys {
		if sec.HasKey(k) {
			if v := strings.TrimSpace(sec.Key(k).String()); v != "" {
				return v
			}
		}
	}
	return ""
}
