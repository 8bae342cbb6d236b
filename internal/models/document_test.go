package models

import "testing"

func TestHasDocumentExtension(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/report.pdf", true},
		{"https://example.com/report.PDF", true},
		{"https://example.com/guide.docx", true},
		{"https://example.com/notes.doc", true},
		{"https://example.com/template.rtf", true},
		{"https://example.com/report.pdf?version=3", true},
		{"https://example.com/report.pdf#page=2", true},
		{"https://example.com/page.html", false},
		{"https://example.com/report", false},
		{"https://example.com/archive.zip", false},
		{"https://example.com/pdf/listing", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasDocumentExtension(tt.url); got != tt.want {
			t.Errorf("HasDocumentExtension(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name untouched", "safety-alert_2024.pdf", "safety-alert_2024.pdf"},
		{"spaces replaced", "mine safety report.pdf", "mine_safety_report.pdf"},
		{"path separators replaced", "../../etc/passwd", ".._.._etc_passwd"},
		{"shell characters replaced", "a;b|c&d.pdf", "a_b_c_d.pdf"},
		{"unicode replaced per byte", "café.pdf", "caf__.pdf"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{"mine safety.pdf", "дoc.pdf", "a/b\\c.pdf", "normal.pdf"}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		twice := SanitizeFilename(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
