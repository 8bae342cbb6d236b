package crawlers

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/minesafety/docharvest/internal/models"
	"github.com/minesafety/docharvest/internal/utils"
)

// LinkExtractor pulls document links out of rendered HTML. The seen-set is
// scoped to one orchestrator run: a raw href is emitted at most once per run,
// so the download engine never receives duplicates. Not safe for concurrent
// writers; extraction is single-threaded within a run.
type LinkExtractor struct {
	seen map[string]struct{}
}

// NewLinkExtractor creates an extractor with an empty seen-set.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{seen: make(map[string]struct{})}
}

// Extract selects anchors matching each selector in order, resolves their
// hrefs against baseURL and returns the deduplicated absolute URLs. Emission
// order is selector order, then document order within a selector — callers
// rely on this being deterministic.
func (e *LinkExtractor) Extract(html string, baseURL string, selectors []string) ([]models.DocumentLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrKindParse, "", baseURL, err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrKindParse, "", baseURL, err)
	}

	var links []models.DocumentLink
	for _, selector := range selectors {
		if selector == "" {
			continue
		}
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}

			// Dedup on the raw href, before resolution, so relative and
			// absolute spellings of the same target count as distinct only
			// when the page wrote them differently.
			if _, dup := e.seen[href]; dup {
				return
			}
			e.seen[href] = struct{}{}

			ref, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				utils.Debugf("skipping unparseable href on %s: %q", baseURL, href)
				return
			}

			links = append(links, models.DocumentLink{
				URL:     base.ResolveReference(ref).String(),
				RawHref: href,
				FoundOn: baseURL,
				Order:   len(links),
			})
		})
	}

	return links, nil
}

// SeenCount reports how many distinct raw hrefs this run has extracted.
func (e *LinkExtractor) SeenCount() int {
	return len(e.seen)
}
