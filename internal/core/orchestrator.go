package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minesafety/docharvest/internal/audit"
	"github.com/minesafety/docharvest/internal/config"
	"github.com/minesafety/docharvest/internal/crawlers"
	"github.com/minesafety/docharvest/internal/models"
	"github.com/minesafety/docharvest/internal/utils"
)

// Fetcher obtains a page over plain HTTP.
type Fetcher interface {
	Fetch(pageURL string) (*models.FetchResult, error)
}

// Renderer obtains a page through a headless browser.
type Renderer interface {
	Render(ctx context.Context, pageURL string, contentSelectors []string) (*models.FetchResult, error)
}

// BatchDownloader fetches a set of document links with failure isolation.
type BatchDownloader interface {
	DownloadAll(ctx context.Context, links []models.DocumentLink, destDir, region, category string) []models.DownloadOutcome
}

// Orchestrator drives document acquisition for one region. It owns its stats
// and is not safe for concurrent use; the batch runner gives each region its
// own instance.
type Orchestrator struct {
	cfg      *Config
	regionID string
	region   config.RegionConfig

	fetcher    Fetcher
	renderer   Renderer
	downloader BatchDownloader
	store      *audit.Store

	stats models.RunStats
	sleep func(time.Duration)
}

// NewOrchestrator wires the concrete fetch, render and download components
// for one region. guard may be nil to disable resource clamping.
func NewOrchestrator(cfg *Config, regionID string, region config.RegionConfig, store *audit.Store, guard *crawlers.ResourceGuard) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		regionID: regionID,
		region:   region,
		fetcher:  crawlers.NewStaticFetcher(cfg.Scraper.Timeout(), cfg.Scraper.UserAgent),
		renderer: crawlers.NewDynamicRenderer(crawlers.RendererConfig{
			Headless:       cfg.Render.Headless,
			ViewportWidth:  cfg.Render.ViewportWidth,
			ViewportHeight: cfg.Render.ViewportHeight,
			UserAgent:      cfg.Scraper.UserAgent,
			NavTimeout:     cfg.Scraper.Timeout(),
			WaitSelectors:  cfg.Render.WaitSelectors,
			WaitTimeout:    cfg.Render.WaitTimeout(),
			ContentTimeout: cfg.Render.ContentSelectorTimeout(),
		}),
		downloader: crawlers.NewDownloader(crawlers.DownloaderConfig{
			Timeout:      cfg.Scraper.Timeout(),
			Concurrency:  cfg.Scraper.MaxConcurrentRequests,
			RequestDelay: cfg.Scraper.RequestDelay(),
			UserAgent:    cfg.Scraper.UserAgent,
			ShowProgress: true,
		}, guard),
		store: store,
		sleep: time.Sleep,
	}
}

// Stats returns a copy of the accumulated counters.
func (o *Orchestrator) Stats() models.RunStats {
	return o.stats
}

// RunCategory processes one category for the region: every seed URL is
// attempted, failures are contained per URL, and success means the accumulated
// download count met the configured minimum. Legislation additionally sweeps
// the codes-of-practice page; either page counting is enough.
func (o *Orchestrator) RunCategory(ctx context.Context, category string) (bool, error) {
	o.stats = models.RunStats{StartTime: time.Now()}
	defer func() { o.stats.EndTime = time.Now() }()

	seedURL, ok := o.region.Categories[category]
	if !ok || seedURL == "" {
		return false, fmt.Errorf("region %s has no %s URL", o.regionID, category)
	}

	urls := []string{seedURL}
	if category == "legislation" {
		if codesURL := o.region.Categories["codes"]; codesURL != "" && codesURL != seedURL {
			urls = append(urls, codesURL)
		}
	}

	for _, pageURL := range urls {
		target := models.Target{Region: o.regionID, Category: category, URL: pageURL}
		if err := o.processTarget(ctx, target); err != nil {
			// Contained: log, count, move to the next URL.
			o.stats.Errors++
			o.recordError(pageURL, err)
		}
	}

	success := o.stats.Succeeded(o.cfg.Scraper.MinimumDocuments)
	if success {
		utils.Infof("✅ %s/%s: %d of %d documents downloaded",
			o.regionID, category, o.stats.DocumentsDownloaded, o.stats.DocumentsProcessed)
	} else {
		utils.Warnf("⚠️  %s/%s: only %d documents downloaded (minimum %d)",
			o.regionID, category, o.stats.DocumentsDownloaded, o.cfg.Scraper.MinimumDocuments)
	}
	return success, nil
}

// ProcessAdHoc runs the acquisition pipeline on a single operator-supplied URL
// outside the region tables.
func (o *Orchestrator) ProcessAdHoc(ctx context.Context, rawURL, hint string) error {
	o.stats = models.RunStats{StartTime: time.Now()}
	defer func() { o.stats.EndTime = time.Now() }()

	target := models.Target{Region: o.regionID, Category: "adhoc", URL: rawURL}
	if err := o.processTargetVariant(ctx, target, crawlers.Classify(rawURL, hint)); err != nil {
		o.stats.Errors++
		o.recordError(rawURL, err)
		return err
	}
	return nil
}

// processTarget classifies the target URL and dispatches to the right
// acquisition path.
func (o *Orchestrator) processTarget(ctx context.Context, target models.Target) error {
	return o.processTargetVariant(ctx, target, crawlers.Classify(target.URL, ""))
}

func (o *Orchestrator) processTargetVariant(ctx context.Context, target models.Target, variant models.Variant) error {
	utils.Infof("🔍 processing %s [%s]", target.URL, variant)

	if variant.IsDynamicFirst() {
		return o.processBulletinListing(ctx, target)
	}
	switch variant {
	case models.VariantPDF:
		return o.processDirectDocument(ctx, target)
	case models.VariantEmbedded:
		return o.processEmbedded(ctx, target)
	default:
		return o.processPage(ctx, target)
	}
}

// processDirectDocument handles a URL that is itself a document: no page
// parse, just a one-element download batch.
func (o *Orchestrator) processDirectDocument(ctx context.Context, target models.Target) error {
	links := []models.DocumentLink{{URL: target.URL, RawHref: target.URL, FoundOn: target.URL}}
	o.downloadAndRecord(ctx, links, target)
	return nil
}

// processEmbedded handles pages whose document body is published inline. The
// readable text is saved as a .txt file with a metadata sidecar.
func (o *Orchestrator) processEmbedded(ctx context.Context, target models.Target) error {
	result, err := o.fetchWithFallback(ctx, target)
	if err != nil {
		return err
	}

	text, err := crawlers.ExtractEmbeddedText(result.HTML)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return models.NewScrapeError(models.ErrKindNoDocuments, target.Region, target.URL,
			errors.New("page contained no readable text"))
	}

	destDir := o.destDir(target)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return models.NewScrapeError(models.ErrKindDownload, target.Region, target.URL, err)
	}

	filename := embeddedFilename(target.URL)
	filePath := filepath.Join(destDir, filename)
	if err := os.WriteFile(filePath, []byte(text), 0644); err != nil {
		return models.NewScrapeError(models.ErrKindDownload, target.Region, target.URL, err)
	}

	meta := models.DocumentMetadata{
		Name:        filename,
		SourceURL:   target.URL,
		Region:      target.Region,
		Category:    target.Category,
		CollectedAt: time.Now(),
		Title:       crawlers.ExtractTitle(result.HTML),
	}
	if data, merr := meta.ToJSON(); merr == nil {
		sidecar := strings.TrimSuffix(filePath, ".txt") + ".json"
		if werr := os.WriteFile(sidecar, data, 0644); werr != nil {
			utils.Warnf("write metadata sidecar [%s]: %v", sidecar, werr)
		}
	}

	o.stats.DocumentsProcessed++
	o.stats.DocumentsDownloaded++
	o.recordDocument(target, true, filename)
	utils.Infof("📄 saved embedded text: %s (%d bytes)", filename, len(text))
	return nil
}

// processBulletinListing handles the client-side-rendered bulletin indexes:
// the browser render comes first, a static sweep is pointless.
func (o *Orchestrator) processBulletinListing(ctx context.Context, target models.Target) error {
	result, err := o.renderer.Render(ctx, target.URL, o.region.Selectors.ContentSelectors())
	if err != nil {
		return err
	}
	o.noteContentWait(result, target)

	selectors := append([]string{}, o.region.BulletinLinks...)
	selectors = append(selectors, o.region.Selectors.LinkSelectors()...)

	extractor := crawlers.NewLinkExtractor()
	links, err := extractor.Extract(result.HTML, target.URL, selectors)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return models.NewScrapeError(models.ErrKindNoDocuments, target.Region, target.URL,
			errors.New("rendered listing contained no document links"))
	}

	// Listing anchors point at detail pages as often as files; only direct
	// documents are downloadable here.
	docLinks := links[:0:0]
	for _, link := range links {
		if models.HasDocumentExtension(link.URL) {
			docLinks = append(docLinks, link)
		}
	}
	if len(docLinks) == 0 {
		docLinks = links
	}

	o.downloadAndRecord(ctx, docLinks, target)
	return nil
}

// processPage is the generic path: static fetch with retries, selector
// extraction, and a single dynamic-render fallback when the static sweep
// finds nothing.
func (o *Orchestrator) processPage(ctx context.Context, target models.Target) error {
	extractor := crawlers.NewLinkExtractor()
	selectors := o.region.Selectors.LinkSelectors()

	var links []models.DocumentLink

	result, err := o.staticWithRetries(ctx, target.URL)
	if err != nil {
		utils.Warnf("static fetch failed for %s, falling back to render: %v", target.URL, err)
	} else {
		links, err = extractor.Extract(result.HTML, target.URL, selectors)
		if err != nil {
			return err
		}
	}

	if len(links) == 0 {
		rendered, rerr := o.renderer.Render(ctx, target.URL, o.region.Selectors.ContentSelectors())
		if rerr != nil {
			return rerr
		}
		o.noteContentWait(rendered, target)
		links, err = extractor.Extract(rendered.HTML, target.URL, selectors)
		if err != nil {
			return err
		}
	}

	if len(links) == 0 {
		return models.NewScrapeError(models.ErrKindNoDocuments, target.Region, target.URL,
			errors.New("no document links after static and rendered sweeps"))
	}

	o.downloadAndRecord(ctx, links, target)
	return nil
}

// fetchWithFallback gets a page statically and falls back to a render when
// the static fetch fails outright.
func (o *Orchestrator) fetchWithFallback(ctx context.Context, target models.Target) (*models.FetchResult, error) {
	result, err := o.staticWithRetries(ctx, target.URL)
	if err == nil {
		return result, nil
	}
	utils.Warnf("static fetch failed for %s, falling back to render: %v", target.URL, err)
	return o.renderer.Render(ctx, target.URL, o.region.Selectors.ContentSelectors())
}

// staticWithRetries wraps the static fetcher in the configured retry loop.
// Retries apply to the static strategy only; a render gets exactly one shot.
func (o *Orchestrator) staticWithRetries(ctx context.Context, pageURL string) (*models.FetchResult, error) {
	attempts := o.cfg.Scraper.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, models.NewScrapeError(models.ErrKindFetch, o.regionID, pageURL, err)
		}
		result, err := o.fetcher.Fetch(pageURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < attempts {
			utils.Warnf("fetch attempt %d/%d failed for %s: %v", attempt, attempts, pageURL, err)
			o.sleep(o.cfg.Scraper.RetryDelay())
		}
	}
	return nil, lastErr
}

// downloadAndRecord runs the download batch and folds every outcome into the
// stats and the audit trail.
func (o *Orchestrator) downloadAndRecord(ctx context.Context, links []models.DocumentLink, target models.Target) {
	outcomes := o.downloader.DownloadAll(ctx, links, o.destDir(target), target.Region, target.Category)
	for _, outcome := range outcomes {
		o.stats.DocumentsProcessed++
		if outcome.Success {
			o.stats.DocumentsDownloaded++
		} else {
			o.stats.Errors++
			o.recordError(outcome.URL, models.NewScrapeError(models.ErrKindDownload,
				target.Region, outcome.URL, errors.New(outcome.Reason)))
		}
		if o.store != nil {
			if err := o.store.LogDocument(target.Region, target.Category, outcome.URL, outcome.Success, outcome.Filename); err != nil {
				utils.Warnf("audit write failed: %v", err)
			}
		}
	}
}

// noteContentWait audit-logs a render that came back without any expected
// selector. Not fatal on its own; the extraction verdict decides.
func (o *Orchestrator) noteContentWait(result *models.FetchResult, target models.Target) {
	if result.ContentFound {
		return
	}
	utils.Warnf("content wait timed out on %s, proceeding with partial HTML", target.URL)
	if o.store != nil {
		if err := o.store.LogError(target.Region, target.URL,
			string(models.ErrKindContentWait), "no expected selector appeared"); err != nil {
			utils.Warnf("audit write failed: %v", err)
		}
	}
}

func (o *Orchestrator) recordDocument(target models.Target, success bool, filename string) {
	if o.store == nil {
		return
	}
	if err := o.store.LogDocument(target.Region, target.Category, target.URL, success, filename); err != nil {
		utils.Warnf("audit write failed: %v", err)
	}
}

func (o *Orchestrator) recordError(pageURL string, err error) {
	utils.Errorf("❌ %s: %v", pageURL, err)
	if o.store == nil {
		return
	}
	kind := "error"
	var serr *models.ScrapeError
	if errors.As(err, &serr) {
		kind = string(serr.Kind)
	}
	if aerr := o.store.LogError(o.regionID, pageURL, kind, err.Error()); aerr != nil {
		utils.Warnf("audit write failed: %v", aerr)
	}
}

// destDir is where this target's documents land: <base>/<region>/<category>.
func (o *Orchestrator) destDir(target models.Target) string {
	return filepath.Join(o.cfg.Output.BaseDir, target.Region, target.Category)
}

// embeddedFilename derives a stable .txt name from the page URL.
func embeddedFilename(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	segment := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		segment = trimmed[idx+1:]
	}
	if segment == "" {
		segment = "embedded"
	}
	return models.SanitizeFilename(segment) + ".txt"
}
