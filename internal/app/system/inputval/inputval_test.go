package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"a@b.co", true},
		{"user@localhost", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
		{"user@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/path?query=1", true},
		{"http://localhost:8080", true},
		{"  https://example.com  ", true},

		{"", false},
		{"ftp://example.com", false},
		{"mailto:user@example.com", false},
		{"javascript:alert(1)", false},
		{"example.com", false},
		{"//example.com", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"FFFFFFFFFFFFFFFFFFFFFFFF", true},
		{"  507f1f77bcf86cd799439011  ", true},

		{"", false},
		{"507f1f77bcf86cd79943901", false},
		{"507f1f77bcf86cd7994390111", false},
		{"507f1f77bcf86cd79943901g", false},
		{"not-a-valid-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidObjectID(tt.id); got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
