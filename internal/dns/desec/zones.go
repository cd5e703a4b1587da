package desec

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/yuriy-kovalchuk/desec-dns01/internal/dns"
)

// zoneRow is one entry of the domains listing.
type zoneRow struct {
	Name       string `json:"name"`
	MinimumTTL int    `json:"minimum_ttl"`
}

// ResolveZone asks deSEC which zone in the account owns fqdn.
// The zone is fetched on every call.
func (p *Provider) ResolveZone(ctx context.Context, fqdn string) (dns.Zone, error) {
	qname := strings.TrimSuffix(strings.TrimSpace(fqdn), ".")
	query := url.Values{"owns_qname": {qname}}

	resp, err := p.transport.do(ctx, http.MethodGet, "domains/?"+query.Encode(), nil)
	if err != nil {
		return dns.Zone{}, err
	}
	if resp.status == http.StatusNotFound {
		return dns.Zone{}, zoneNotFound(qname, resp.status)
	}
	if err := checkResponse(resp, fmt.Sprintf("zone owning %q", qname)); err != nil {
		return dns.Zone{}, err
	}

	var rows []zoneRow
	if err := decodeJSON(resp, &rows); err != nil {
		return dns.Zone{}, err
	}
	if len(rows) == 0 {
		return dns.Zone{}, zoneNotFound(qname, resp.status)
	}

	zone := dns.Zone{
		Name:       strings.TrimSuffix(rows[0].Name, "."),
		MinimumTTL: rows[0].MinimumTTL,
	}
	p.log.V(1).Info("resolved zone", "qname", qname, "zone", zone.Name, "minimumTTL", zone.MinimumTTL)
	return zone, nil
}

func zoneNotFound(qname string, status int) error {
	return &Error{
		Kind:   KindZoneNotFound,
		Status: status,
		Message: fmt.Sprintf("no zone in your deSEC account owns %q; "+
			"make sure the domain has been added to the account the token belongs to", qname),
	}
}
