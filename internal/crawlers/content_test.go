package crawlers

import (
	"strings"
	"testing"
)

func TestExtractEmbeddedText(t *testing.T) {
	html := `<html>
<head><title>Safety Alert SA24-03</title><style>body { color: red }</style></head>
<body>
<nav><a href="/">Home</a></nav>
<main>
  <h1>Roof fall incident</h1>
  <p>A roof fall occurred at an underground coal mine.</p>
  <script>trackPageView();</script>
</main>
<footer>Contact us</footer>
</body></html>`

	text, err := ExtractEmbeddedText(html)
	if err != nil {
		t.Fatalf("ExtractEmbeddedText: %v", err)
	}

	if !strings.Contains(text, "Roof fall incident") {
		t.Errorf("heading missing from extracted text: %q", text)
	}
	if !strings.Contains(text, "A roof fall occurred at an underground coal mine.") {
		t.Errorf("body paragraph missing from extracted text: %q", text)
	}
	for _, unwanted := range []string{"trackPageView", "color: red", "Home", "Contact us"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("stripped content leaked into text: %q", unwanted)
		}
	}
}

func TestExtractEmbeddedTextFallsBackToBody(t *testing.T) {
	html := `<html><body><p>First line</p><p>Second line</p></body></html>`
	text, err := ExtractEmbeddedText(html)
	if err != nil {
		t.Fatalf("ExtractEmbeddedText: %v", err)
	}
	want := "First line\nSecond line"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtractEmbeddedTextEmptyPage(t *testing.T) {
	text, err := ExtractEmbeddedText("<html><body></body></html>")
	if err != nil {
		t.Fatalf("ExtractEmbeddedText: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "title tag",
			html: "<html><head><title> Mine Safety Bulletin </title></head><body><h1>Other</h1></body></html>",
			want: "Mine Safety Bulletin",
		},
		{
			name: "h1 fallback",
			html: "<html><body><h1>Dust exposure limits</h1></body></html>",
			want: "Dust exposure limits",
		},
		{
			name: "no title at all",
			html: "<html><body><p>text</p></body></html>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.html); got != tt.want {
				t.Errorf("ExtractTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
