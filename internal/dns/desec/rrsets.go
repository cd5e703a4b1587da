package desec

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yuriy-kovalchuk/desec-dns01/internal/dns"
)

// rrsetBody is the shape deSEC uses for rrsets in both directions.
type rrsetBody struct {
	Subname string   `json:"subname"`
	Type    string   `json:"type"`
	TTL     int      `json:"ttl"`
	Records []string `json:"records"`
}

// rrsetPath addresses one TXT rrset. deSEC spells the apex "@".
func rrsetPath(zone, subname string) string {
	label := subname
	if label == "" {
		label = "@"
	}
	return fmt.Sprintf("domains/%s/rrsets/%s/%s/", url.PathEscape(zone), url.PathEscape(label), dns.TypeTXT)
}

// ReadTXT returns the TXT values at subname in zone. A missing rrset is an
// empty set.
func (p *Provider) ReadTXT(ctx context.Context, zone dns.Zone, subname string) (dns.RecordSet, error) {
	resp, err := p.transport.do(ctx, http.MethodGet, rrsetPath(zone.Name, subname), nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		p.log.V(1).Info("no TXT rrset yet", "zone", zone.Name, "subname", subname)
		return dns.NewRecordSet(), nil
	}
	if err := checkResponse(resp, fmt.Sprintf("TXT rrset %q in domain %q", subname, zone.Name)); err != nil {
		return nil, err
	}

	var body rrsetBody
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return dns.NewRecordSet(body.Records...), nil
}

// WriteTXT replaces the whole TXT rrset at subname with records, using the
// zone's minimum TTL. An empty set removes the rrset.
func (p *Provider) WriteTXT(ctx context.Context, zone dns.Zone, subname string, records dns.RecordSet) error {
	rrset := dns.RRset{
		Zone:    zone,
		Subname: subname,
		Type:    dns.TypeTXT,
		Records: records,
		TTL:     zone.MinimumTTL,
	}
	if rrset.TTL <= 0 {
		rrset.TTL = DefaultTTL
	}

	body := []rrsetBody{{
		Subname: rrset.Subname,
		Type:    rrset.Type,
		TTL:     rrset.TTL,
		Records: rrset.Records.Sorted(),
	}}
	resp, err := p.transport.do(ctx, http.MethodPut, fmt.Sprintf("domains/%s/rrsets/", url.PathEscape(zone.Name)), body)
	if err != nil {
		return err
	}
	if err := checkResponse(resp, fmt.Sprintf("domain %q (TXT rrset %q)", zone.Name, subname)); err != nil {
		return err
	}

	p.log.V(1).Info("wrote TXT rrset", "zone", zone.Name, "subname", subname, "records", rrset.Records.Len(), "ttl", rrset.TTL)
	return nil
}

// AddValidation writes the current rrset plus the quoted token.
//
// The read and the write are separate requests; a concurrent change to the
// same rrset between them is lost. deSEC offers no conditional update.
func (p *Provider) AddValidation(ctx context.Context, zone dns.Zone, subname, token string) error {
	current, err := p.ReadTXT(ctx, zone, subname)
	if err != nil {
		return err
	}
	return p.WriteTXT(ctx, zone, subname, current.Union(dns.NewRecordSet(dns.QuoteTXT(token))))
}

// RemoveValidation writes the current rrset minus the quoted token.
// Same race as AddValidation.
func (p *Provider) RemoveValidation(ctx context.Context, zone dns.Zone, subname, token string) error {
	current, err := p.ReadTXT(ctx, zone, subname)
	if err != nil {
		return err
	}
	return p.WriteTXT(ctx, zone, subname, current.Difference(dns.NewRecordSet(dns.QuoteTXT(token))))
}
