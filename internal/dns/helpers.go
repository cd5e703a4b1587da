package dns

import (
	"errors"
	"fmt"
	"strings"

	mdns "github.com/miekg/dns"
)

// ErrNotInZone is returned by Subname when the hostname is not inside the zone.
var ErrNotInZone = errors.New("hostname is not inside zone")

// Subname returns the part of fqdn to the left of zone, without dots.
// e.g. ("_acme-challenge.www.example.com.", "example.com") → "_acme-challenge.www"
// e.g. ("example.com", "example.com") → ""
func Subname(fqdn, zone string) (string, error) {
	name := mdns.Fqdn(strings.TrimSpace(fqdn))
	origin := mdns.Fqdn(strings.TrimSpace(zone))
	if !mdns.IsSubDomain(origin, name) {
		return "", fmt.Errorf("%w: %q in %q", ErrNotInZone, fqdn, zone)
	}

	labels := mdns.SplitDomainName(name)
	keep := len(labels) - mdns.CountLabel(origin)
	if keep <= 0 {
		return "", nil
	}
	return strings.Join(labels[:keep], "."), nil
}

// QuoteTXT wraps a value in the double quotes of TXT presentation format.
func QuoteTXT(value string) string {
	return `"` + value + `"`
}
