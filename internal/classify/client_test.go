package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civimon/civimon/internal/model"
)

// TestNewClientRequiresKey tests the key contract.
func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

// TestClassify tests the request/response round trip against a fake
// chat-completions endpoint.
func TestClassify(t *testing.T) {
	t.Parallel()

	classification := `{
		"category": "frivillighetsstrategi",
		"confidence": 0.87,
		"summary": "Strategi for samarbeid med frivillig sektor.",
		"key_points": ["samarbeid", "tilskudd", "medvirkning"],
		"mentions_platform_ks_fn": true,
		"mentions_rasisme_diskriminering_inkludering": false,
		"target_groups": ["frivillige organisasjoner"],
		"measures": ["ny tilskuddsordning"],
		"named_entities": ["Frivillighet Norge"],
		"suggested_followups": ["følg opp handlingsplanen"]
	}`

	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		b, _ := json.Marshal(raw)
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, classification)
	}))
	defer srv.Close()

	c, err := NewClient("sk-test-key-0123456789abcdef", WithEndpoint(srv.URL), WithModel("test-model"))
	if err != nil {
		t.Fatalf("client creation failed: %v", err)
	}

	result, err := c.Classify(context.Background(), Request{
		URL:          "https://oslo.kommune.no/frivillighet",
		Title:        "Frivillighetsstrategi",
		Jurisdiction: "Oslo kommune",
		DocType:      model.DocTypeHTML,
		Text:         "Strategi for samarbeid med frivillig sektor.",
	})
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if result.Category != "frivillighetsstrategi" {
		t.Errorf("category = %q", result.Category)
	}
	if result.Confidence != 0.87 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if !result.MentionsPlatformKSFN {
		t.Error("platform flag not decoded")
	}
	if len(result.KeyPoints) != 3 {
		t.Errorf("key points = %v", result.KeyPoints)
	}

	if gotAuth != "Bearer sk-test-key-0123456789abcdef" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"model":"test-model"`) {
		t.Errorf("model not sent: %s", gotBody)
	}
	if !strings.Contains(gotBody, "json_object") {
		t.Errorf("response format not requested: %s", gotBody)
	}
	if !strings.Contains(gotBody, "Oslo kommune") {
		t.Errorf("metadata missing from prompt: %s", gotBody)
	}
}

// TestClassifySanitizesResponse tests confidence clamping and summary
// capping.
func TestClassifySanitizesResponse(t *testing.T) {
	t.Parallel()

	longSummary := strings.Repeat("x", 2000)
	content := fmt.Sprintf(`{"category":"annet","confidence":1.7,"summary":%q}`, longSummary)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
	defer srv.Close()

	c, err := NewClient("sk-test-key-0123456789abcdef", WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("client creation failed: %v", err)
	}
	result, err := c.Classify(context.Background(), Request{Text: "tekst"})
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if result.Confidence != 1 {
		t.Errorf("confidence not clamped: %v", result.Confidence)
	}
	if len(result.Summary) != 1200 {
		t.Errorf("summary not capped: %d chars", len(result.Summary))
	}
}

// TestClassifyErrors tests error surfaces.
func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-200 status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c, _ := NewClient("sk-test-key-0123456789abcdef", WithEndpoint(srv.URL))
		if _, err := c.Classify(context.Background(), Request{Text: "tekst"}); err == nil {
			t.Error("expected error for 429")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		}))
		defer srv.Close()

		c, _ := NewClient("sk-test-key-0123456789abcdef", WithEndpoint(srv.URL))
		if _, err := c.Classify(context.Background(), Request{Text: "tekst"}); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("content not JSON", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"not json"}}]}`)
		}))
		defer srv.Close()

		c, _ := NewClient("sk-test-key-0123456789abcdef", WithEndpoint(srv.URL))
		if _, err := c.Classify(context.Background(), Request{Text: "tekst"}); err == nil {
			t.Error("expected error for non-JSON content")
		}
	})
}

// TestTruncate tests the symmetric head+tail truncation.
func TestTruncate(t *testing.T) {
	t.Parallel()

	t.Run("short text untouched", func(t *testing.T) {
		t.Parallel()

		if got := Truncate("kort tekst", 100); got != "kort tekst" {
			t.Errorf("short text modified: %q", got)
		}
	})

	t.Run("long text keeps head and tail", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("a", 500) + strings.Repeat("z", 500)
		got := Truncate(text, 105)
		if len(got) > 105 {
			t.Errorf("result too long: %d", len(got))
		}
		if !strings.HasPrefix(got, "aaa") {
			t.Errorf("head missing: %q", got[:10])
		}
		if !strings.HasSuffix(got, "zzz") {
			t.Errorf("tail missing: %q", got[len(got)-10:])
		}
		if !strings.Contains(got, truncationMarker) {
			t.Error("marker missing")
		}
	})

	t.Run("multibyte text cut on rune boundaries", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("æøå", 200)
		got := Truncate(text, 101)
		for _, part := range strings.Split(got, truncationMarker) {
			if !strings.ContainsAny(part, "æøå") {
				continue
			}
			for _, r := range part {
				if r == '�' {
					t.Fatalf("invalid rune in truncated text: %q", part)
				}
			}
		}
	})
}
