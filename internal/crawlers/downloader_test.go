package crawlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/minesafety/docharvest/internal/models"
)

func newTestDownloader() *Downloader {
	return NewDownloader(DownloaderConfig{
		Timeout:     5 * time.Second,
		Concurrency: 3,
		UserAgent:   "test-agent/1.0",
	}, nil)
}

func TestDownloadAllIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok-1.pdf", "/ok-2.pdf":
			w.Write([]byte("%PDF-1.4 content"))
		case "/missing.pdf":
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	links := []models.DocumentLink{
		{URL: srv.URL + "/ok-1.pdf"},
		{URL: srv.URL + "/missing.pdf"},
		{URL: srv.URL + "/ok-2.pdf"},
	}

	destDir := t.TempDir()
	outcomes := newTestDownloader().DownloadAll(context.Background(), links, destDir, "nsw", "safety_alerts")

	if len(outcomes) != len(links) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(links))
	}
	// Outcomes stay in link order regardless of completion order.
	for i, outcome := range outcomes {
		if outcome.URL != links[i].URL {
			t.Errorf("outcome[%d].URL = %q, want %q", i, outcome.URL, links[i].URL)
		}
	}
	if !outcomes[0].Success || !outcomes[2].Success {
		t.Errorf("expected successes at 0 and 2: %+v", outcomes)
	}
	if outcomes[1].Success {
		t.Error("expected 404 download to fail")
	}
	if outcomes[1].Reason != "HTTP 404" {
		t.Errorf("outcome[1].Reason = %q, want %q", outcomes[1].Reason, "HTTP 404")
	}

	for _, outcome := range []models.DownloadOutcome{outcomes[0], outcomes[2]} {
		data, err := os.ReadFile(outcome.FilePath)
		if err != nil {
			t.Fatalf("read downloaded file: %v", err)
		}
		if string(data) != "%PDF-1.4 content" {
			t.Errorf("file content mismatch for %s", outcome.Filename)
		}
		if outcome.Size != int64(len(data)) {
			t.Errorf("outcome.Size = %d, want %d", outcome.Size, len(data))
		}
	}
}

func TestDownloadFilenameFromContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="safety alert: 2024.pdf"`)
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	destDir := t.TempDir()
	outcomes := newTestDownloader().DownloadAll(context.Background(),
		[]models.DocumentLink{{URL: srv.URL + "/download"}}, destDir, "qld", "safety_alerts")

	if !outcomes[0].Success {
		t.Fatalf("download failed: %s", outcomes[0].Reason)
	}
	if got, want := outcomes[0].Filename, "safety_alert__2024.pdf"; got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestDownloadWritesMetadataSidecar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	destDir := t.TempDir()
	outcomes := newTestDownloader().DownloadAll(context.Background(),
		[]models.DocumentLink{{URL: srv.URL + "/bulletin.pdf"}}, destDir, "wa", "guidance")

	if !outcomes[0].Success {
		t.Fatalf("download failed: %s", outcomes[0].Reason)
	}

	sidecar := filepath.Join(destDir, "bulletin.json")
	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var meta models.DocumentMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	if meta.Region != "wa" || meta.Category != "guidance" {
		t.Errorf("sidecar region/category = %s/%s, want wa/guidance", meta.Region, meta.Category)
	}
	if meta.SourceURL != srv.URL+"/bulletin.pdf" {
		t.Errorf("sidecar source URL = %q", meta.SourceURL)
	}
	if meta.CollectedAt.IsZero() {
		t.Error("sidecar collected date not set")
	}
}

func TestDownloadAllEmptyBatch(t *testing.T) {
	outcomes := newTestDownloader().DownloadAll(context.Background(), nil, t.TempDir(), "nsw", "codes")
	if outcomes != nil {
		t.Errorf("expected nil outcomes for empty batch, got %+v", outcomes)
	}
}

func TestResolveFilename(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		disposition string
		want        string
	}{
		{
			name: "url last segment",
			url:  "https://example.com/files/report.pdf",
			want: "report.pdf",
		},
		{
			name:        "content disposition wins",
			url:         "https://example.com/download?id=42",
			disposition: `attachment; filename="alert.pdf"`,
			want:        "alert.pdf",
		},
		{
			name: "default extension appended",
			url:  "https://example.com/documents/alert-2024",
			want: "alert-2024.pdf",
		},
		{
			name: "unsafe characters replaced",
			url:  "https://example.com/files/mine%20safety.pdf",
			want: "mine_safety.pdf",
		},
		{
			name: "bare host falls back to default name",
			url:  "https://example.com/",
			want: "document.pdf",
		},
		{
			name:        "malformed disposition falls back to url",
			url:         "https://example.com/files/notice.docx",
			disposition: "not a valid header",
			want:        "notice.docx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFilename(tt.url, tt.disposition)
			if got != tt.want {
				t.Errorf("ResolveFilename(%q, %q) = %q, want %q", tt.url, tt.disposition, got, tt.want)
			}
		})
	}
}

func TestCreateUniqueAppendsCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alert.pdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := createUnique(dir, "alert.pdf")
	if err != nil {
		t.Fatalf("createUnique: %v", err)
	}
	f.Close()
	want := filepath.Join(dir, "alert_1.pdf")
	if f.Name() != want {
		t.Errorf("createUnique = %q, want %q", f.Name(), want)
	}
}

func TestCreateUniqueConcurrentClaimsAreDistinct(t *testing.T) {
	dir := t.TempDir()
	const n = 16

	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := createUnique(dir, "report.pdf")
			if err != nil {
				t.Errorf("createUnique: %v", err)
				return
			}
			defer f.Close()
			paths[i] = f.Name()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if seen[p] {
			t.Fatalf("path %q claimed twice", p)
		}
		seen[p] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct paths, want %d", len(seen), n)
	}
}
