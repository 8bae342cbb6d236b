// Package audit keeps a persistent JSON trail of every document attempt and
// error across scraping sessions. The log file is rewritten after every
// mutation so a crash never loses completed records.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/minesafety/docharvest/internal/models"
)

// DefaultAuditFile is the audit log location relative to the output dir.
const DefaultAuditFile = "scrape_log.json"

// CategoryStats tallies outcomes for one region within one category.
type CategoryStats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// DocumentRecord is one document attempt within a session.
type DocumentRecord struct {
	Region    string    `json:"region"`
	Category  string    `json:"category"`
	URL       string    `json:"url"`
	Success   bool      `json:"success"`
	Filename  string    `json:"filename,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorRecord is one recorded failure within a session.
type ErrorRecord struct {
	Region    string    `json:"region"`
	URL       string    `json:"url,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStats tallies one session's document outcomes.
type SessionStats struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Session groups the records produced by a single run.
type Session struct {
	ID        string           `json:"session_id"`
	StartTime time.Time        `json:"start_time"`
	EndTime   *time.Time       `json:"end_time,omitempty"`
	Documents []DocumentRecord `json:"documents"`
	Errors    []ErrorRecord    `json:"errors"`
	Stats     SessionStats     `json:"stats"`
}

// auditLog is the on-disk shape of the whole audit trail.
type auditLog struct {
	ScrapingHistory         []*Session                           `json:"scraping_history"`
	DocumentStats           map[string]map[string]*CategoryStats `json:"document_stats"`
	TotalDocumentsProcessed int                                  `json:"total_documents_processed"`
	TotalSuccessful         int                                  `json:"total_successful"`
	TotalFailed             int                                  `json:"total_failed"`
	LastUpdate              time.Time                            `json:"last_update"`
}

// Store is a concurrency-safe audit log with one open session. All mutations
// are serialized and flushed to disk before returning.
type Store struct {
	path    string
	mu      sync.Mutex
	log     *auditLog
	session *Session
}

// Open loads the audit log at path, creating a fresh one when it does not
// exist, and starts a new session.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var loaded auditLog
		if uerr := json.Unmarshal(data, &loaded); uerr != nil {
			return nil, fmt.Errorf("parse audit log %s: %w", path, uerr)
		}
		s.log = &loaded
	case os.IsNotExist(err):
		s.log = &auditLog{}
	default:
		return nil, fmt.Errorf("read audit log %s: %w", path, err)
	}
	if s.log.DocumentStats == nil {
		s.log.DocumentStats = make(map[string]map[string]*CategoryStats)
	}

	s.session = &Session{
		ID:        models.GenerateID(),
		StartTime: time.Now(),
		Documents: []DocumentRecord{},
		Errors:    []ErrorRecord{},
	}
	s.log.ScrapingHistory = append(s.log.ScrapingHistory, s.session)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// SessionID returns the identifier of the session opened by Open.
func (s *Store) SessionID() string {
	return s.session.ID
}

// LogDocument records one document attempt and updates the per-category and
// grand tallies.
func (s *Store) LogDocument(region, category, url string, success bool, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Documents = append(s.session.Documents, DocumentRecord{
		Region:    region,
		Category:  category,
		URL:       url,
		Success:   success,
		Filename:  filename,
		Timestamp: time.Now(),
	})

	byRegion, ok := s.log.DocumentStats[category]
	if !ok {
		byRegion = make(map[string]*CategoryStats)
		s.log.DocumentStats[category] = byRegion
	}
	stats, ok := byRegion[region]
	if !ok {
		stats = &CategoryStats{}
		byRegion[region] = stats
	}

	stats.Total++
	s.session.Stats.Processed++
	s.log.TotalDocumentsProcessed++
	if success {
		stats.Successful++
		s.session.Stats.Successful++
		s.log.TotalSuccessful++
	} else {
		stats.Failed++
		s.session.Stats.Failed++
		s.log.TotalFailed++
	}

	return s.saveLocked()
}

// LogError records a failure that is not tied to a single document tally.
func (s *Store) LogError(region, url, kind, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Errors = append(s.session.Errors, ErrorRecord{
		Region:    region,
		URL:       url,
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	})
	return s.saveLocked()
}

// RegionSummary aggregates the tallies for one region across all categories.
func (s *Store) RegionSummary(region string) CategoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum CategoryStats
	for _, byRegion := range s.log.DocumentStats {
		if stats, ok := byRegion[region]; ok {
			sum.Total += stats.Total
			sum.Successful += stats.Successful
			sum.Failed += stats.Failed
		}
	}
	return sum
}

// Totals returns the grand tallies across all sessions.
func (s *Store) Totals() (processed, successful, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.TotalDocumentsProcessed, s.log.TotalSuccessful, s.log.TotalFailed
}

// FinalizeSession stamps the session end time and flushes.
func (s *Store) FinalizeSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.session.EndTime = &now
	return s.saveLocked()
}

// saveLocked rewrites the log file. Callers must hold s.mu.
func (s *Store) saveLocked() error {
	s.log.LastUpdate = time.Now()
	data, err := json.MarshalIndent(s.log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write audit log %s: %w", s.path, err)
	}
	return nil
}
