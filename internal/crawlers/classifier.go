package crawlers

import (
	"strings"

	"github.com/minesafety/docharvest/internal/models"
)

// classifierRule pairs a predicate with the variant it selects. Rules are
// evaluated top to bottom; the first match wins, so classification never
// depends on map iteration order.
type classifierRule struct {
	name    string
	match   func(lowerURL, lowerHint string) bool
	variant models.Variant
}

// classifierRules is the closed, ordered rule set. The document-extension
// check comes first: a direct .pdf link on a bulletin host is still a plain
// PDF download.
var classifierRules = []classifierRule{
	{
		name: "document extension",
		match: func(u, _ string) bool {
			return models.HasDocumentExtension(u)
		},
		variant: models.VariantPDF,
	},
	{
		name: "nsw bulletin listing",
		match: func(u, _ string) bool {
			return strings.Contains(u, "resourcesregulator.nsw.gov.au") &&
				strings.Contains(u, "safety-alerts")
		},
		variant: models.VariantNSWBulletin,
	},
	{
		name: "qld safety notices listing",
		match: func(u, _ string) bool {
			return strings.Contains(u, "rshq.qld.gov.au") &&
				strings.Contains(u, "safety-notices")
		},
		variant: models.VariantQLDNotices,
	},
	{
		name: "wa bulletin listing",
		match: func(u, _ string) bool {
			return strings.Contains(u, "dmp.wa.gov.au") &&
				strings.Contains(u, "safety-bulletins")
		},
		variant: models.VariantWABulletin,
	},
	{
		name: "embedded content hint",
		match: func(_, hint string) bool {
			return strings.Contains(hint, "embedded")
		},
		variant: models.VariantEmbedded,
	},
}

// Classify maps a target URL (and optional content-type hint) to an
// acquisition variant. Pure function, no I/O.
func Classify(rawURL, contentTypeHint string) models.Variant {
	lowerURL := strings.ToLower(rawURL)
	lowerHint := strings.ToLower(contentTypeHint)

	for _, rule := range classifierRules {
		if rule.match(lowerURL, lowerHint) {
			return rule.variant
		}
	}
	return models.VariantHTML
}
