package crawlers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/minesafety/docharvest/internal/models"
)

// ExtractEmbeddedText pulls the readable text out of a rendered page for
// sources that publish the document body inline instead of as a file.
// Script, style and chrome elements are stripped; the main content region is
// preferred when present.
func ExtractEmbeddedText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", models.NewScrapeError(models.ErrKindParse, "", "", err)
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("main")
	if root.Length() == 0 {
		root = doc.Find("article")
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	for _, raw := range strings.Split(root.Text(), "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// ExtractTitle returns the page title, falling back to the first h1.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title
}
