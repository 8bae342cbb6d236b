package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/minesafety/docharvest/internal/models"
	"github.com/minesafety/docharvest/internal/utils"
	"golang.org/x/net/html/charset"
)

// StaticFetcher issues a single GET for a page and returns its HTML. It never
// retries; retry policy lives in the orchestrator.
type StaticFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewStaticFetcher creates a static fetcher with the given request timeout and
// User-Agent string.
func NewStaticFetcher(timeout time.Duration, userAgent string) *StaticFetcher {
	return &StaticFetcher{timeout: timeout, userAgent: userAgent}
}

// Fetch GETs pageURL and returns the decoded HTML. A transport error or
// non-2xx status yields an empty result and a fetch_error. A fresh collector
// is built per call so no visit state leaks between fetches.
func (sf *StaticFetcher) Fetch(pageURL string) (*models.FetchResult, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				// Several of the target agencies serve documents from hosts
				// with mismatched certificates.
				InsecureSkipVerify: true,
			},
		},
		Timeout: sf.timeout,
	}

	c := colly.NewCollector(
		colly.UserAgent(sf.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetClient(httpClient)
	c.SetRequestTimeout(sf.timeout)

	result := &models.FetchResult{URL: pageURL, Strategy: models.StrategyStatic}
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		utils.Debugf("static fetch: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode

		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressBody(encoding, r.Body)
			if err != nil {
				utils.Warnf("decompress failed [%s] (encoding=%s): %v", pageURL, encoding, err)
			} else {
				body = decompressed
			}
		}

		html, err := decodeHTML(body, r.Headers.Get("Content-Type"))
		if err != nil {
			utils.Warnf("charset decode failed [%s]: %v", pageURL, err)
			html = string(body)
		}
		result.HTML = html
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		if r != nil && r.StatusCode > 0 {
			fetchErr = fmt.Errorf("HTTP %d", r.StatusCode)
		} else {
			fetchErr = err
		}
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		result.HTML = ""
		return result, models.NewScrapeError(models.ErrKindFetch, "", pageURL, fetchErr)
	}
	return result, nil
}

// decodeHTML converts the body to UTF-8 based on the Content-Type charset.
func decodeHTML(body []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// decompressBody inflates a response body according to Content-Encoding.
// Supports gzip, deflate and br.
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer reader.Close()
		return io.ReadAll(reader)

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		return io.ReadAll(reader)

	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("unknown Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
