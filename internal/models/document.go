package models

import (
	"encoding/json"
	"path"
	"strings"
	"time"
)

// DocumentFileExtensions are the document types worth downloading.
var DocumentFileExtensions = []string{".pdf", ".doc", ".docx", ".rtf"}

// DefaultDocumentExtension is appended when a resolved filename has no
// recognized document extension.
const DefaultDocumentExtension = ".pdf"

// DocumentLink is an absolute document URL discovered on a page.
type DocumentLink struct {
	URL     string `json:"url"`      // absolute, resolved against the page URL
	RawHref string `json:"raw_href"` // href as written in the page, dedup key
	FoundOn string `json:"found_on"` // page the link was discovered on
	Order   int    `json:"order"`    // discovery order within the extraction pass
}

// DownloadOutcome records one download attempt. Exactly one per attempted link.
type DownloadOutcome struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Success  bool   `json:"success"`
	Size     int64  `json:"size,omitempty"`
	Reason   string `json:"reason,omitempty"` // failure reason, empty on success
}

// DocumentMetadata is the sidecar record written next to each document.
type DocumentMetadata struct {
	Name        string    `json:"name"`
	SourceURL   string    `json:"url"`
	Region      string    `json:"region"`
	Category    string    `json:"category"`
	CollectedAt time.Time `json:"date_collected"`
	Title       string    `json:"title,omitempty"`
}

// ToJSON serializes the sidecar record.
func (m DocumentMetadata) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// HasDocumentExtension reports whether the URL path ends in a known document
// extension. Query strings are ignored; matching is case insensitive.
func HasDocumentExtension(rawURL string) bool {
	p := strings.ToLower(rawURL)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := path.Ext(p)
	for _, want := range DocumentFileExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// SanitizeFilename replaces every byte outside [A-Za-z0-9._-] with an
// underscore. Idempotent; blocks path traversal and filesystem-invalid names.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '.' || c == '_' || c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
