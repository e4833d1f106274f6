package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/civimon/civimon/internal/model"
	"github.com/civimon/civimon/internal/store"
)

// seedPendingVersion stores one unclassified high-relevance version and
// closes the store.
func seedPendingVersion(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()

	st, err := store.Open(dataDir, store.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	ctx := context.Background()
	j := model.Jurisdiction{ID: "j-asker", Name: "Asker kommune", Type: "kommune", Website: "https://www.asker.kommune.no"}
	if err := st.UpsertJurisdiction(ctx, j); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	srcID, err := st.GetOrCreateSource(ctx, j.ID, "https://www.asker.kommune.no/frivillighet", "Frivillighetsstrategi")
	if err != nil {
		t.Fatalf("source failed: %v", err)
	}
	docID, err := st.GetOrCreateDocument(ctx, srcID, model.DocTypeHTML)
	if err != nil {
		t.Fatalf("document failed: %v", err)
	}
	if _, _, err := st.UpsertVersion(ctx, docID, "hash-1", store.VersionMeta{
		ExtractedText: "Strategi for samarbeid med frivillig sektor",
		HighRelevance: true,
	}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return dataDir
}

// TestClassifyCommand tests the backfill classification flow.
func TestClassifyCommand(t *testing.T) {
	t.Run("fails without an API key", func(t *testing.T) {
		t.Setenv("CIVIMON_LLM_API_KEY", "")
		if _, err := runCommand(t, "classify", "--data-dir", t.TempDir()); err == nil {
			t.Error("expected error when the key is unset")
		}
	})

	t.Run("classifies pending versions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("unexpected auth header: %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"choices":[{"message":{"content":
				"{\"category\":\"frivillighetsstrategi\",\"confidence\":0.9,\"summary\":\"Strategi.\",\"mentions_platform_ks_fn\":false}"
			}}]}`)
		}))
		defer srv.Close()

		t.Setenv("CIVIMON_LLM_API_KEY", "test-key")
		dataDir := seedPendingVersion(t)

		configPath := filepath.Join(t.TempDir(), ".civimon")
		if err := os.WriteFile(configPath, []byte("llm:\n  endpoint: "+srv.URL+"\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		out, err := runCommand(t, "classify", "--data-dir", dataDir, "--config", configPath)
		if err != nil {
			t.Fatalf("classify failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "Classified 1 of 1") {
			t.Errorf("unexpected output: %q", out)
		}

		st, err := store.Open(dataDir, store.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer st.Close()

		ctx := context.Background()
		findings, err := st.FindingsRows(ctx)
		if err != nil {
			t.Fatalf("findings query failed: %v", err)
		}
		if len(findings) != 1 || findings[0].Category != "frivillighetsstrategi" {
			t.Fatalf("classification not stored: %+v", findings)
		}

		// Nothing left to classify on the second pass.
		out, err = runCommand(t, "classify", "--data-dir", dataDir, "--config", configPath)
		if err != nil {
			t.Fatalf("second classify failed: %v", err)
		}
		if !strings.Contains(out, "Nothing to classify") {
			t.Errorf("unexpected output: %q", out)
		}
	})
}
