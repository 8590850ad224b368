package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Request is a candidate crawl request as seen by the frontier.
//
// Notes:
// - URL is expected to be canonical already (see utils.CanonicalURL).
// - Method is upper-cased; an empty method means GET.
// - Body is optional and participates in the fingerprint byte for byte.
type Request struct {
	URL    string
	Method string
	Body   []byte
}

// NewRequest constructs a Request and validates its fields.
func NewRequest(rawURL, method string, body []byte) (Request, error) {
	r := Request{
		URL:    strings.TrimSpace(rawURL),
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Body:   body,
	}
	if r.Method == "" {
		r.Method = "GET"
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks the Request for required fields.
func (r Request) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("request url must not be empty")
	}
	if r.Method == "" {
		return fmt.Errorf("request method must not be empty")
	}
	if strings.ContainsAny(r.Method, " \t\r\n") {
		return fmt.Errorf("invalid request method: %q", r.Method)
	}
	return nil
}

// Fingerprint returns the lowercase hex xxhash64 of url, method and body,
// written in that order. It is the key recorded in the visited set.
func (r Request) Fingerprint() string {
	d := xxhash.New()
	_, _ = d.WriteString(r.URL)
	_, _ = d.WriteString(r.Method)
	_, _ = d.Write(r.Body)
	return strconv.FormatUint(d.Sum64(), 16)
}
