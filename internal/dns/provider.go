package dns

import "context"

// TypeTXT is the only record type managed for dns-01 validation.
const TypeTXT = "TXT"

// Zone is a DNS zone served by the provider account.
type Zone struct {
	Name       string // e.g. "example.com", no trailing dot
	MinimumTTL int    // smallest TTL the provider accepts for this zone, in seconds
}

// RRset is the complete set of records of one type at one name in a zone.
type RRset struct {
	Zone    Zone
	Subname string // relative to Zone.Name, "" for the apex
	Type    string
	Records RecordSet
	TTL     int
}

// Provider is what the certificate workflow needs from a DNS provider to
// solve a dns-01 challenge. Both calls either complete or return an error.
type Provider interface {
	SetValidationRecord(ctx context.Context, domain, validationHostname, token string) error
	RemoveValidationRecord(ctx context.Context, domain, validationHostname, token string) error
}
