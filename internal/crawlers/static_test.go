package crawlers

import (
	"bytes"
	"compress/gzip"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/minesafety/docharvest/internal/models"
)

func TestStaticFetchReturnsHTML(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><a href='/a.pdf'>alert</a></body></html>"))
	}))
	defer srv.Close()

	sf := NewStaticFetcher(5*time.Second, "test-agent/1.0")
	result, err := sf.Fetch(srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.Strategy != models.StrategyStatic {
		t.Errorf("Strategy = %q, want static", result.Strategy)
	}
	if !strings.Contains(result.HTML, "a.pdf") {
		t.Errorf("HTML missing expected anchor: %q", result.HTML)
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("User-Agent = %q, want test-agent/1.0", gotUA)
	}
}

func TestStaticFetchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	sf := NewStaticFetcher(5*time.Second, "test-agent/1.0")
	result, err := sf.Fetch(srv.URL + "/missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var serr *models.ScrapeError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *models.ScrapeError", err)
	}
	if serr.Kind != models.ErrKindFetch {
		t.Errorf("Kind = %q, want %q", serr.Kind, models.ErrKindFetch)
	}
	if result.HTML != "" {
		t.Errorf("HTML should be empty on failure, got %q", result.HTML)
	}
}

func TestStaticFetchUnreachableHost(t *testing.T) {
	sf := NewStaticFetcher(time.Second, "test-agent/1.0")
	_, err := sf.Fetch("http://127.0.0.1:1/nothing")
	if err == nil {
		t.Fatal("expected error for unreachable host")
	}
	var serr *models.ScrapeError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *models.ScrapeError", err)
	}
	if serr.Kind != models.ErrKindFetch {
		t.Errorf("Kind = %q, want %q", serr.Kind, models.ErrKindFetch)
	}
}

func TestDecompressBody(t *testing.T) {
	original := []byte("<html><body>compressed page</body></html>")

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(original)
	gw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		want     []byte
	}{
		{name: "gzip", encoding: "gzip", body: buf.Bytes(), want: original},
		{name: "identity", encoding: "identity", body: original, want: original},
		{name: "empty encoding", encoding: "", body: original, want: original},
		{name: "unknown encoding passes through", encoding: "zstd", body: original, want: original},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressBody(tt.encoding, tt.body)
			if err != nil {
				t.Fatalf("decompressBody: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("decompressBody(%q) = %q, want %q", tt.encoding, got, tt.want)
			}
		})
	}
}

func TestDecodeHTMLCharset(t *testing.T) {
	// ISO-8859-1 encoded "café"
	latin1 := []byte{'c', 'a', 'f', 0xe9}
	got, err := decodeHTML(latin1, "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("decodeHTML: %v", err)
	}
	if got != "café" {
		t.Errorf("decoded = %q, want %q", got, "café")
	}
}
