package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Variant is one of the fixed acquisition strategies chosen by the classifier.
// The set is closed; call sites switch exhaustively over it.
type Variant string

const (
	VariantPDF         Variant = "pdf"                // direct document download
	VariantEmbedded    Variant = "embedded"           // page text extracted in place
	VariantHTML        Variant = "html"               // generic page, static-first with dynamic fallback
	VariantNSWBulletin Variant = "nsw_bulletin"       // NSW safety bulletin listing, dynamic render
	VariantQLDNotices  Variant = "qld_safety_notices" // QLD safety notices listing, dynamic render
	VariantWABulletin  Variant = "wa_bulletin"        // WA safety bulletin listing, dynamic render
)

// IsDynamicFirst reports whether the variant goes straight to a browser render.
// The bulletin listings are rendered client side; a static GET returns a shell
// page with no document anchors.
func (v Variant) IsDynamicFirst() bool {
	switch v {
	case VariantNSWBulletin, VariantQLDNotices, VariantWABulletin:
		return true
	}
	return false
}

// FetchStrategy identifies which strategy produced a FetchResult.
type FetchStrategy string

const (
	StrategyStatic  FetchStrategy = "static"
	StrategyDynamic FetchStrategy = "dynamic"
)

// Target is one region/category seed URL. Immutable once a run starts.
type Target struct {
	Region   string `json:"region"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// FetchResult holds the HTML obtained for a page and where it came from.
// Transient; never persisted.
type FetchResult struct {
	URL          string        `json:"url"`
	HTML         string        `json:"-"`
	StatusCode   int           `json:"status_code"`
	Strategy     FetchStrategy `json:"strategy"`
	ContentFound bool          `json:"content_found"` // dynamic only: an expected selector appeared
}

// RunStats counts one orchestrator run. Owned by a single Orchestrator
// instance and mutated only by it; handed to the audit store at run end.
type RunStats struct {
	DocumentsProcessed  int       `json:"documents_processed"`
	DocumentsDownloaded int       `json:"documents_downloaded"`
	Errors              int       `json:"errors"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
}

// Succeeded applies the run success rule: enough documents actually landed.
func (s RunStats) Succeeded(minimumRequired int) bool {
	return s.DocumentsDownloaded >= minimumRequired
}

// Validate checks the counter invariant.
func (s RunStats) Validate() error {
	if s.DocumentsDownloaded > s.DocumentsProcessed {
		return fmt.Errorf("downloaded count %d exceeds processed count %d",
			s.DocumentsDownloaded, s.DocumentsProcessed)
	}
	return nil
}

// ToJSON serializes the stats for reports.
func (s RunStats) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
