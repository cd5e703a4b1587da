package dns

import (
	"errors"
	"testing"
)

func TestSubname(t *testing.T) {
	tests := []struct {
		fqdn string
		zone string
		want string
	}{
		{"_acme-challenge.example.com", "example.com", "_acme-challenge"},
		{"_acme-challenge.example.com.", "example.com", "_acme-challenge"},
		{"_acme-challenge.www.example.com", "example.com", "_acme-challenge.www"},
		{"_acme-challenge.a.b.example.com", "example.com.", "_acme-challenge.a.b"},
		{"_acme-challenge.sub.example.com", "sub.example.com", "_acme-challenge"},
		{"example.com", "example.com", ""},
		{"example.com.", "example.com", ""},
		{"_ACME-Challenge.Example.COM", "example.com", "_ACME-Challenge"},
		{" _acme-challenge.example.com ", "example.com", "_acme-challenge"},
	}

	for _, tt := range tests {
		got, err := Subname(tt.fqdn, tt.zone)
		if err != nil {
			t.Errorf("Subname(%q, %q) unexpected error: %v", tt.fqdn, tt.zone, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Subname(%q, %q) = %q, want %q", tt.fqdn, tt.zone, got, tt.want)
		}
	}
}

func TestSubname_NotInZone(t *testing.T) {
	tests := []struct {
		fqdn string
		zone string
	}{
		{"_acme-challenge.example.org", "example.com"},
		{"_acme-challenge.notexample.com", "example.com"},
		{"com", "example.com"},
	}

	for _, tt := range tests {
		_, err := Subname(tt.fqdn, tt.zone)
		if !errors.Is(err, ErrNotInZone) {
			t.Errorf("Subname(%q, %q) error = %v, want ErrNotInZone", tt.fqdn, tt.zone, err)
		}
	}
}

func TestQuoteTXT(t *testing.T) {
	if got := QuoteTXT("abc123"); got != `"abc123"` {
		t.Errorf("QuoteTXT(abc123) = %s, want %q", got, `"abc123"`)
	}
	if got := QuoteTXT(""); got != `""` {
		t.Errorf("QuoteTXT(\"\") = %s, want %q", got, `""`)
	}
}
