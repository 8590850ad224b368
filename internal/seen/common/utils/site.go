package utils

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SiteOf returns the registrable domain (eTLD+1) of a URL's host. Hosts the
// public suffix list cannot place, such as IP addresses or bare suffixes,
// fall back to the lowercased host itself.
func SiteOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return host
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return site
}

// SameSite reports whether two URLs share a registrable domain.
// Unparseable or host-less URLs are never the same site.
func SameSite(a, b string) bool {
	sa := SiteOf(a)
	return sa != "" && sa == SiteOf(b)
}

// NormalizeOrigin returns "scheme://host:port" for a URL, filling in the
// scheme's default port when none is given.
func NormalizeOrigin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		port = defaultPorts[scheme]
	}
	if port == "" {
		port = "0"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, strings.ToLower(u.Hostname()), port), nil
}
