// Package acme adapts a dns.Provider to lego's dns-01 challenge interfaces.
package acme

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/dns01"
	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/desec-dns01/internal/dns"
)

const (
	// DefaultPropagationTimeout covers deSEC's publication delay to its anycast network.
	DefaultPropagationTimeout = 2 * time.Minute
	DefaultPollingInterval    = 5 * time.Second
	DefaultTimeout            = 60 * time.Second
)

// Options tune a Solver. Zero values fall back to the defaults above.
type Options struct {
	Timeout            time.Duration // bounds one Present or CleanUp call
	PropagationTimeout time.Duration
	PollingInterval    time.Duration
}

// Solver solves dns-01 challenges by publishing TXT records through a dns.Provider.
type Solver struct {
	provider           dns.Provider
	log                logr.Logger
	timeout            time.Duration
	propagationTimeout time.Duration
	pollingInterval    time.Duration
}

var (
	_ challenge.Provider        = (*Solver)(nil)
	_ challenge.ProviderTimeout = (*Solver)(nil)
)

func NewSolver(log logr.Logger, provider dns.Provider, opts Options) *Solver {
	s := &Solver{
		provider:           provider,
		log:                log,
		timeout:            opts.Timeout,
		propagationTimeout: opts.PropagationTimeout,
		pollingInterval:    opts.PollingInterval,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.propagationTimeout <= 0 {
		s.propagationTimeout = DefaultPropagationTimeout
	}
	if s.pollingInterval <= 0 {
		s.pollingInterval = DefaultPollingInterval
	}
	return s
}

// Present publishes the key authorization digest for domain.
func (s *Solver) Present(domain, token, keyAuth string) error {
	return s.PresentKeyAuth(context.Background(), domain, keyAuth)
}

// CleanUp removes the value Present published, leaving other values in place.
func (s *Solver) CleanUp(domain, token, keyAuth string) error {
	return s.CleanUpKeyAuth(context.Background(), domain, keyAuth)
}

// PresentKeyAuth is Present bound to ctx.
func (s *Solver) PresentKeyAuth(ctx context.Context, domain, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.presentRecord(ctx, domain, info.EffectiveFQDN, info.Value)
}

// CleanUpKeyAuth is CleanUp bound to ctx.
func (s *Solver) CleanUpKeyAuth(ctx context.Context, domain, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.cleanUpRecord(ctx, domain, info.EffectiveFQDN, info.Value)
}

// Timeout returns how long lego should wait for the record to propagate and
// how often to check.
func (s *Solver) Timeout() (timeout, interval time.Duration) {
	return s.propagationTimeout, s.pollingInterval
}

// PresentRecord publishes value at fqdn when the digest is already computed,
// as with lego's exec provider or certbot manual hooks.
func (s *Solver) PresentRecord(ctx context.Context, fqdn, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.presentRecord(ctx, DomainFromFQDN(fqdn), fqdn, value)
}

// CleanUpRecord removes value from fqdn.
func (s *Solver) CleanUpRecord(ctx context.Context, fqdn, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.cleanUpRecord(ctx, DomainFromFQDN(fqdn), fqdn, value)
}

func (s *Solver) presentRecord(ctx context.Context, domain, fqdn, value string) error {
	s.log.V(1).Info("presenting dns-01 challenge", "domain", domain, "fqdn", fqdn)
	if err := s.provider.SetValidationRecord(ctx, domain, dns01.UnFqdn(fqdn), value); err != nil {
		return fmt.Errorf("acme: presenting challenge for %s: %w", domain, err)
	}
	return nil
}

func (s *Solver) cleanUpRecord(ctx context.Context, domain, fqdn, value string) error {
	s.log.V(1).Info("cleaning up dns-01 challenge", "domain", domain, "fqdn", fqdn)
	if err := s.provider.RemoveValidationRecord(ctx, domain, dns01.UnFqdn(fqdn), value); err != nil {
		return fmt.Errorf("acme: cleaning up challenge for %s: %w", domain, err)
	}
	return nil
}

// ChallengeFQDN returns the validation hostname for domain, with trailing dot.
func ChallengeFQDN(domain string) string {
	return dns01.ToFqdn("_acme-challenge." + strings.TrimPrefix(dns01.UnFqdn(domain), "*."))
}

// DomainFromFQDN strips the _acme-challenge label and trailing dot from fqdn.
func DomainFromFQDN(fqdn string) string {
	return strings.TrimPrefix(dns01.UnFqdn(fqdn), "_acme-challenge.")
}
