package models

import "fmt"

// ErrorKind is the closed taxonomy of recoverable acquisition failures.
// Anything outside this set is a defect and is allowed to propagate.
type ErrorKind string

const (
	ErrKindFetch       ErrorKind = "fetch_error"          // transport/status failure on static fetch
	ErrKindRender      ErrorKind = "render_error"         // browser launch/navigation/timeout failure
	ErrKindContentWait ErrorKind = "content_wait_timeout" // no expected selector appeared
	ErrKindNoDocuments ErrorKind = "no_documents_found"   // both strategies yielded zero links
	ErrKindDownload    ErrorKind = "download_error"       // per-document failure
	ErrKindParse       ErrorKind = "parse_error"          // malformed HTML while extracting
)

// ScrapeError carries the error kind plus the failing URL and region so stage
// boundaries can audit-log it before converting it into a zero result.
type ScrapeError struct {
	Kind   ErrorKind
	Region string
	URL    string
	Err    error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Kind, e.URL)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// NewScrapeError builds a ScrapeError.
func NewScrapeError(kind ErrorKind, region, url string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, Region: region, URL: url, Err: err}
}
