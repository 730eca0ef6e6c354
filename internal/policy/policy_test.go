package policy

import (
	"slices"
	"testing"
)

func TestDomainPolicy_Allows(t *testing.T) {
	p := NewDomainPolicy("hepsiburada.com", "example-allowed.com")

	tests := []struct {
		host string
		want bool
	}{
		{"hepsiburada.com", true},
		{"api.hepsiburada.com", true},
		{"a.b.hepsiburada.com", true},
		{"HEPSIBURADA.COM", true},
		{"www.hepsiburada.com.", true},
		{"www.example-allowed.com", true},
		{"evilhepsiburada.com", false},
		{"hepsiburada.com.evil.net", false},
		{"hepsiburada.co", false},
		{"example.com", false},
		{"", false},
		{".", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := p.Allows(tt.host); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestNewDomainPolicy_Normalizes(t *testing.T) {
	p := NewDomainPolicy(" Example.COM ", ".example.com", "", "other.org.")

	want := []string{"example.com", "other.org"}
	if got := p.Domains(); !slices.Equal(got, want) {
		t.Errorf("Domains() = %v, want %v", got, want)
	}
}

func TestDomainPolicy_DomainsIsCopy(t *testing.T) {
	p := NewDomainPolicy("example.com")
	d := p.Domains()
	d[0] = "evil.com"

	if p.Allows("evil.com") {
		t.Error("mutating Domains() result must not change the policy")
	}
}

func TestDefaultDomains_IsCopy(t *testing.T) {
	d := DefaultDomains()
	if len(d) == 0 {
		t.Fatal("DefaultDomains() is empty")
	}
	d[0] = "evil.com"
	if DefaultDomains()[0] == "evil.com" {
		t.Error("mutating DefaultDomains() result must not change the defaults")
	}
}

func TestHeaderSets_Disjoint(t *testing.T) {
	for name := range allowedHeaders {
		if _, ok := deniedHeaders[name]; ok {
			t.Errorf("header %q is in both the allow and deny sets", name)
		}
	}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Content-Type", true},
		{"content-type", true},
		{"COOKIE", true},
		{"X-Xsrf-Token", true},
		{"Host", false},
		{"HOST", false},
		{"host", false},
		{"X-Forwarded-For", false},
		{"x-custom-tracker", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowed(tt.name); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsResponseBlocked(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Content-Type", false},
		{"Set-Cookie", false},
		{"X-Custom", false},
		{"Transfer-Encoding", true},
		{"Connection", true},
		{"X-Vercel-Id", true},
		{"x-vercel-cache", true},
		{"CF-Ray", true},
		{"X-Amz-Cf-Pop", true},
		{"X-Amzn-Trace-Id", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsResponseBlocked(tt.name); got != tt.want {
				t.Errorf("IsResponseBlocked(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
