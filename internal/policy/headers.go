// Package policy holds the static forwarding policies: which headers may cross
// the gateway and which upstream hosts may be reached.
package policy

import "strings"

// deniedHeaders are infrastructure and identity headers that never cross the
// gateway in either direction. Checked before allowedHeaders.
var deniedHeaders = map[string]struct{}{
	"host":                {},
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"proxy-connection":    {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"content-length":      {},
	"forwarded":           {},
	"via":                 {},
	"x-forwarded-for":     {},
	"x-forwarded-host":    {},
	"x-forwarded-proto":   {},
	"x-forwarded-port":    {},
	"x-real-ip":           {},
	"x-client-ip":         {},
	"true-client-ip":      {},
	"cf-connecting-ip":    {},
}

// allowedHeaders are the only request headers forwarded upstream.
var allowedHeaders = map[string]struct{}{
	"accept":            {},
	"accept-encoding":   {},
	"accept-language":   {},
	"authorization":     {},
	"cache-control":     {},
	"content-type":      {},
	"cookie":            {},
	"if-match":          {},
	"if-modified-since": {},
	"if-none-match":     {},
	"origin":            {},
	"pragma":            {},
	"referer":           {},
	"user-agent":        {},
	"x-requested-with":  {},
	"x-xsrf-token":      {},
	"x-csrf-token":      {},
}

// infrastructurePrefixes identify response headers added by hosting and edge
// layers between the gateway and the upstream.
var infrastructurePrefixes = []string{
	"x-vercel-",
	"x-amz-cf-",
	"x-amzn-",
	"x-edge-",
	"cf-",
}

// IsDenied reports whether the header must never be forwarded.
func IsDenied(name string) bool {
	_, ok := deniedHeaders[strings.ToLower(name)]
	return ok
}

// IsAllowed reports whether a request header may be forwarded upstream.
// Denied headers are never allowed.
func IsAllowed(name string) bool {
	lower := strings.ToLower(name)
	if _, denied := deniedHeaders[lower]; denied {
		return false
	}
	_, ok := allowedHeaders[lower]
	return ok
}

// IsInfrastructure reports whether the header carries one of the reserved
// hosting-layer prefixes.
func IsInfrastructure(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range infrastructurePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// IsResponseBlocked reports whether an upstream response header is stripped
// before it reaches the caller.
func IsResponseBlocked(name string) bool {
	return IsDenied(name) || IsInfrastructure(name)
}
