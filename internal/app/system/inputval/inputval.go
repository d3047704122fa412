// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/url"
	"strings"
)

// IsValidEmail reports whether s looks like a usable email address.
//
// This is deliberately stricter than a bare "contains @" check and
// deliberately looser than full RFC 5322: it rejects the malformed
// addresses users actually type (leading or trailing dots, doubled
// dots, embedded spaces, display-name forms) while accepting
// single-label domains such as user@localhost for dev setups.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}

	local, domain := s[:at], s[at+1:]
	if !validEmailPart(local) || !validEmailPart(domain) {
		return false
	}
	// Reject "Name <user@example.com>" and friends.
	if strings.ContainsAny(s, " <>\t") {
		return false
	}
	return true
}

// validEmailPart rejects leading/trailing dots and doubled dots in a
// local part or domain.
func validEmailPart(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, ".") || strings.HasSuffix(p, ".") {
		return false
	}
	return !strings.Contains(p, "..")
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
// Used for attachment links, where javascript: and file: schemes must
// never slip through.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex string, the
// textual form of a Mongo ObjectID.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
