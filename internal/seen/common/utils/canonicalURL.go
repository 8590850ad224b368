package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var ErrUnsupportedScheme = errors.New("unsupported url scheme")

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// CanonicalURL returns a URL in canonical form so that two spellings of the
// same resource produce the same visited key:
// - Scheme and host lowercased
// - Default port removed
// - Fragment dropped
// - Empty path replaced by "/"
// Only http and https are accepted.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == defaultPorts[u.Scheme] {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
