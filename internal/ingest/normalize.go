package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Normalization errors.
var (
	// ErrEmptyURL is returned for blank website fields.
	ErrEmptyURL = errors.New("empty website URL")

	// ErrInvalidURL is returned when no host can be derived from the input.
	ErrInvalidURL = errors.New("invalid website URL")
)

// NormalizeWebsiteURL canonicalizes a raw website string into a
// scheme+host origin: "https://{host}" with no path, query, or trailing
// slash. A missing scheme defaults to https; any path the input carries is
// discarded, since crawling always starts from the origin.
func NormalizeWebsiteURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrEmptyURL
	}

	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		value = "https://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	return "https://" + parsed.Host, nil
}
