package crawlers

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/minesafety/docharvest/internal/models"
	"github.com/minesafety/docharvest/internal/utils"
)

// RendererConfig controls the dynamic render: browser mode, viewport, UA and
// the wait timeouts for document-link and content selectors.
type RendererConfig struct {
	Headless        bool
	ViewportWidth   int
	ViewportHeight  int
	UserAgent       string
	NavTimeout      time.Duration // page navigation + load
	WaitSelectors   []string      // generic document-link selectors, tried first
	WaitTimeout     time.Duration // per wait selector
	ContentTimeout  time.Duration // per content-container selector
}

// DynamicRenderer obtains a page's HTML through a full browser render. Each
// Render call launches its own browser and incognito context; nothing is
// pooled or shared between invocations.
type DynamicRenderer struct {
	cfg RendererConfig
}

// NewDynamicRenderer creates a renderer.
func NewDynamicRenderer(cfg RendererConfig) *DynamicRenderer {
	return &DynamicRenderer{cfg: cfg}
}

// Render navigates to pageURL, waits for the first expected selector to
// appear, and returns the page HTML. When no selector appears within its
// timeout the HTML present at that point is still returned, with
// ContentFound=false so the caller can treat an empty extraction as failure.
// Browser resources are released on every exit path.
func (dr *DynamicRenderer) Render(ctx context.Context, pageURL string, contentSelectors []string) (*models.FetchResult, error) {
	l := launcher.New().
		Headless(dr.cfg.Headless).
		Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrKindRender, "", pageURL, err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrKindRender, "", pageURL, err)
	}
	defer browser.Close()

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrKindRender, "", pageURL, err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrKindRender, "", pageURL, err)
	}
	defer page.Close()

	if dr.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: dr.cfg.UserAgent}); err != nil {
			utils.Warnf("set user agent failed [%s]: %v", pageURL, err)
		}
	}
	if dr.cfg.ViewportWidth > 0 && dr.cfg.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             dr.cfg.ViewportWidth,
			Height:            dr.cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			utils.Warnf("set viewport failed [%s]: %v", pageURL, err)
		}
	}

	utils.Debugf("dynamic render: %s", pageURL)

	if err := page.Timeout(dr.cfg.NavTimeout).Navigate(pageURL); err != nil {
		return nil, models.NewScrapeError(models.ErrKindRender, "", pageURL, err)
	}
	if err := page.Timeout(dr.cfg.NavTimeout).WaitLoad(); err != nil {
		utils.Warnf("page load wait failed [%s]: %v", pageURL, err)
	}

	found := dr.waitForContent(page, pageURL, contentSelectors)

	html, err := page.HTML()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrKindRender, "", pageURL, err)
	}

	return &models.FetchResult{
		URL:          pageURL,
		HTML:         html,
		Strategy:     models.StrategyDynamic,
		ContentFound: found,
	}, nil
}

// waitForContent waits for the first of the prioritized selectors to appear:
// the generic document-link selectors get the full wait timeout each, then
// the variant's content containers get the shorter content timeout each.
func (dr *DynamicRenderer) waitForContent(page *rod.Page, pageURL string, contentSelectors []string) bool {
	for _, sel := range dr.cfg.WaitSelectors {
		if _, err := page.Timeout(dr.cfg.WaitTimeout).Element(sel); err == nil {
			utils.Debugf("content ready [%s]: matched %s", pageURL, sel)
			return true
		}
	}
	for _, sel := range contentSelectors {
		if _, err := page.Timeout(dr.cfg.ContentTimeout).Element(sel); err == nil {
			utils.Debugf("content ready [%s]: matched fallback %s", pageURL, sel)
			return true
		}
	}
	return false
}
