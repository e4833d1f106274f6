package ingest

import (
	"errors"
	"testing"
)

// TestNormalizeWebsiteURL tests origin canonicalization.
func TestNormalizeWebsiteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare host with trailing slash", "example.no/", "https://example.no"},
		{"bare host", "example.no", "https://example.no"},
		{"http scheme and path discarded", "http://www.kommune.no/politikk", "https://www.kommune.no"},
		{"https with query", "https://oslo.kommune.no/sok?q=plan", "https://oslo.kommune.no"},
		{"surrounding whitespace", "  bergen.kommune.no  ", "https://bergen.kommune.no"},
		{"host with port preserved", "example.no:8080/side", "https://example.no:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeWebsiteURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeWebsiteURL(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeWebsiteURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		if _, err := NormalizeWebsiteURL("   "); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("expected ErrEmptyURL, got %v", err)
		}
	})

	t.Run("no host", func(t *testing.T) {
		t.Parallel()

		if _, err := NormalizeWebsiteURL("https:///bare-path"); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}
