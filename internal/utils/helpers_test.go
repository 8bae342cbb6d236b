package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeTempFile(t, `
# mining regulators
https://www.resourcesregulator.nsw.gov.au/safety-alerts

https://www.rshq.qld.gov.au/safety-notices
not-a-url
ftp://bad.scheme/file.pdf
https://www.dmp.wa.gov.au/safety-bulletins
`)

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile: %v", err)
	}

	want := []string{
		"https://www.resourcesregulator.nsw.gov.au/safety-alerts",
		"https://www.rshq.qld.gov.au/safety-notices",
		"https://www.dmp.wa.gov.au/safety-bulletins",
	}
	if len(urls) != len(want) {
		t.Fatalf("got %d URLs, want %d: %v", len(urls), len(want), urls)
	}
	for i, u := range want {
		if urls[i] != u {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], u)
		}
	}
}

func TestReadURLsFromFileAllInvalid(t *testing.T) {
	path := writeTempFile(t, "# only comments\nnot-a-url\n")
	if _, err := ReadURLsFromFile(path); err == nil {
		t.Fatal("expected error when no valid URLs remain")
	}
}

func TestReadURLsFromFileMissing(t *testing.T) {
	if _, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
