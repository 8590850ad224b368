package utils

import (
	"errors"
	"testing"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "https://a.example/1", "https://a.example/1"},
		{"uppercase scheme and host", "HTTPS://A.Example/Path", "https://a.example/Path"},
		{"default https port", "https://a.example:443/x", "https://a.example/x"},
		{"default http port", "http://a.example:80/x", "http://a.example/x"},
		{"non-default port kept", "http://a.example:8080/x", "http://a.example:8080/x"},
		{"fragment dropped", "https://a.example/x#section", "https://a.example/x"},
		{"empty path", "https://a.example", "https://a.example/"},
		{"query kept", "https://a.example/s?q=1&b=2", "https://a.example/s?q=1&b=2"},
		{"surrounding whitespace", "  https://a.example/1\n", "https://a.example/1"},
		{"ipv6 default port", "http://[::1]:80/", "http://[::1]/"},
		{"ipv6 custom port", "http://[::1]:8080/", "http://[::1]:8080/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalURL(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalURL_Errors(t *testing.T) {
	if _, err := CanonicalURL("ftp://a.example/"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
	if _, err := CanonicalURL("a.example/path"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme for scheme-less input, got %v", err)
	}
	if _, err := CanonicalURL("https:///nohost"); err == nil {
		t.Errorf("expected error for host-less url")
	}
	if _, err := CanonicalURL("http://a b.example/%zz"); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestCanonicalURL_Idempotent(t *testing.T) {
	once, err := CanonicalURL("HTTP://Example.COM:80#x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := CanonicalURL(once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if once != twice {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}
