// Package desec manages ACME dns-01 validation records through the deSEC REST API.
package desec

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/desec-dns01/internal/dns"
)

const (
	// DefaultEndpoint is the production deSEC API base URL.
	DefaultEndpoint = "https://desec.io/api/v1/"

	// DefaultTTL is used when a zone does not report a minimum TTL.
	DefaultTTL = 3600

	defaultRequestTimeout = 30 * time.Second
)

// Config carries everything the client needs at runtime.
// Only Token is required.
type Config struct {
	Endpoint   string       // API base URL, DefaultEndpoint if empty
	Token      string       // deSEC API token
	HTTPClient *http.Client // nil means a client with a 30s timeout
	Sleep      Sleeper      // waits out Retry-After; nil means a timer
}

// Provider implements dns.Provider for deSEC.
type Provider struct {
	transport *transport
	log       logr.Logger
}

var _ dns.Provider = (*Provider)(nil)

// New creates a deSEC provider. Defaults are resolved here, once.
func New(log logr.Logger, cfg Config) (*Provider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("desec: missing API token")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("desec: invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("desec: invalid endpoint %q: scheme must be http or https", endpoint)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Provider{
		transport: &transport{
			baseURL: strings.TrimRight(endpoint, "/") + "/",
			token:   cfg.Token,
			client:  client,
			sleep:   sleep,
			log:     log,
		},
		log: log,
	}, nil
}

// NewFromSettings creates a deSEC provider from a flat settings map.
// Required settings: token.
// Optional settings: endpoint, request_timeout (Go duration), skip_tls_verify.
func NewFromSettings(log logr.Logger, settings map[string]string) (*Provider, error) {
	token := settings["token"]
	if token == "" {
		return nil, fmt.Errorf("desec: missing required setting 'token'")
	}

	timeout := defaultRequestTimeout
	if v := settings["request_timeout"]; v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("desec: invalid request_timeout %q: %w", v, err)
		}
		timeout = parsed
	}

	rt := http.DefaultTransport.(*http.Transport).Clone()
	if v := settings["skip_tls_verify"]; v == "true" {
		rt.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return New(log, Config{
		Endpoint:   settings["endpoint"],
		Token:      token,
		HTTPClient: &http.Client{Transport: rt, Timeout: timeout},
	})
}

// Endpoint returns the API base URL requests are sent to.
func (p *Provider) Endpoint() string {
	return p.transport.baseURL
}

// SetValidationRecord adds token to the TXT rrset at validationHostname,
// keeping any other values already present.
func (p *Provider) SetValidationRecord(ctx context.Context, domain, validationHostname, token string) error {
	zone, subname, err := p.locate(ctx, validationHostname)
	if err != nil {
		return err
	}
	p.log.Info("adding validation record", "domain", domain, "zone", zone.Name, "subname", subname)
	return p.AddValidation(ctx, zone, subname, token)
}

// RemoveValidationRecord removes token from the TXT rrset at
// validationHostname, keeping any other values already present.
func (p *Provider) RemoveValidationRecord(ctx context.Context, domain, validationHostname, token string) error {
	zone, subname, err := p.locate(ctx, validationHostname)
	if err != nil {
		return err
	}
	p.log.Info("removing validation record", "domain", domain, "zone", zone.Name, "subname", subname)
	return p.RemoveValidation(ctx, zone, subname, token)
}

// locate resolves the zone owning hostname and the subname within it.
func (p *Provider) locate(ctx context.Context, hostname string) (dns.Zone, string, error) {
	zone, err := p.ResolveZone(ctx, hostname)
	if err != nil {
		return dns.Zone{}, "", err
	}
	subname, err := dns.Subname(hostname, zone.Name)
	if err != nil {
		return dns.Zone{}, "", &Error{
			Kind:    KindMalformedResponse,
			Message: fmt.Sprintf("deSEC returned zone %q as owner of %q, which does not contain it", zone.Name, hostname),
			Err:     err,
		}
	}
	return zone, subname, nil
}
