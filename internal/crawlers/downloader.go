package crawlers

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minesafety/docharvest/internal/models"
	"github.com/minesafety/docharvest/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DownloaderConfig controls the download fan-out.
type DownloaderConfig struct {
	Timeout      time.Duration
	Concurrency  int           // configured in-flight ceiling
	RequestDelay time.Duration // fixed pacing between request starts
	UserAgent    string
	ShowProgress bool
}

// Downloader fetches a batch of document URLs concurrently with per-item
// failure isolation: every link yields exactly one DownloadOutcome, and no
// single failure aborts the batch.
type Downloader struct {
	cfg     DownloaderConfig
	client  *http.Client
	limiter *rate.Limiter
	guard   *ResourceGuard
}

// NewDownloader creates a download engine.
func NewDownloader(cfg DownloaderConfig, guard *ResourceGuard) *Downloader {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	}
	return &Downloader{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		guard:   guard,
	}
}

// DownloadAll downloads every link into destDir and joins before returning.
// Completion order is not guaranteed; outcomes are returned in link order
// regardless. Each successful document gets a metadata sidecar.
func (d *Downloader) DownloadAll(ctx context.Context, links []models.DocumentLink, destDir string, region, category string) []models.DownloadOutcome {
	if len(links) == 0 {
		return nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		utils.Errorf("create output dir [%s]: %v", destDir, err)
		outcomes := make([]models.DownloadOutcome, len(links))
		for i, link := range links {
			outcomes[i] = models.DownloadOutcome{
				ID:      models.GenerateID(),
				URL:     link.URL,
				Success: false,
				Reason:  fmt.Sprintf("create output dir: %v", err),
			}
		}
		return outcomes
	}

	concurrency := d.cfg.Concurrency
	if d.guard != nil {
		concurrency = d.guard.EffectiveConcurrency(concurrency)
	}
	utils.Infof("⬇️  downloading %d documents (concurrency %d)", len(links), concurrency)

	var bar interface{ Add(int) error }
	if d.cfg.ShowProgress {
		bar = utils.NewProgressBar(len(links), "downloading")
	}

	outcomes := make([]models.DownloadOutcome, len(links))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, link := range links {
		i, link := i, link
		eg.Go(func() error {
			outcomes[i] = d.downloadOne(gctx, link, destDir, region, category)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	// Closures never return errors; Wait is purely the join barrier.
	_ = eg.Wait()

	return outcomes
}

// downloadOne performs a single download attempt. Panics are recovered into
// failure outcomes so one malformed response cannot take down the batch.
func (d *Downloader) downloadOne(ctx context.Context, link models.DocumentLink, destDir, region, category string) (outcome models.DownloadOutcome) {
	outcome = models.DownloadOutcome{ID: models.GenerateID(), URL: link.URL}

	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("download panic [%s]: %v", link.URL, r)
			outcome.Success = false
			outcome.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	if err := d.limiter.Wait(ctx); err != nil {
		outcome.Reason = fmt.Sprintf("cancelled: %v", err)
		return outcome
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		outcome.Reason = fmt.Sprintf("build request: %v", err)
		return outcome
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		outcome.Reason = fmt.Sprintf("transport: %v", err)
		return outcome
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return outcome
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome.Reason = fmt.Sprintf("read body: %v", err)
		return outcome
	}

	filename := ResolveFilename(link.URL, resp.Header.Get("Content-Disposition"))
	file, err := createUnique(destDir, filename)
	if err != nil {
		outcome.Reason = fmt.Sprintf("create file: %v", err)
		return outcome
	}
	filePath := file.Name()
	_, err = file.Write(content)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		outcome.Reason = fmt.Sprintf("write file: %v", err)
		return outcome
	}

	meta := models.DocumentMetadata{
		Name:        filepath.Base(filePath),
		SourceURL:   link.URL,
		Region:      region,
		Category:    category,
		CollectedAt: time.Now(),
	}
	if err := writeSidecar(filePath, meta); err != nil {
		utils.Warnf("write metadata sidecar [%s]: %v", filePath, err)
	}

	outcome.Success = true
	outcome.Filename = filepath.Base(filePath)
	outcome.FilePath = filePath
	outcome.Size = int64(len(content))
	utils.Infof("📥 saved: %s (%d bytes) - %s", outcome.Filename, outcome.Size, link.URL)
	return outcome
}

// ResolveFilename picks a safe filename for a document URL. Resolution order:
// Content-Disposition filename, then the URL's last path segment; a name with
// no recognized document extension gets the default one appended. The result
// contains only [A-Za-z0-9._-].
func ResolveFilename(rawURL, contentDisposition string) string {
	var filename string

	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			filename = params["filename"]
		}
	}

	if filename == "" {
		if parsed, err := url.Parse(rawURL); err == nil {
			filename = path.Base(parsed.Path)
		}
		if filename == "" || filename == "." || filename == "/" {
			filename = "document"
		}
	}

	if !models.HasDocumentExtension(filename) {
		filename += models.DefaultDocumentExtension
	}

	return models.SanitizeFilename(filename)
}

// createUnique opens a fresh file under dir, appending a counter when the
// filename is already taken. O_EXCL makes each claim atomic, so concurrent
// downloads that resolve to the same name never end up sharing a path.
func createUnique(dir, filename string) (*os.File, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 0; ; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
	}
}

// writeSidecar stores the metadata record next to the document.
func writeSidecar(docPath string, meta models.DocumentMetadata) error {
	data, err := meta.ToJSON()
	if err != nil {
		return err
	}
	ext := filepath.Ext(docPath)
	sidecar := strings.TrimSuffix(docPath, ext) + ".json"
	return os.WriteFile(sidecar, data, 0644)
}
