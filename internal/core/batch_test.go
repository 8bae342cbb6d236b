package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/minesafety/docharvest/internal/config"
	"github.com/minesafety/docharvest/internal/models"
)

type fakeRegionOrchestrator struct {
	success bool
	err     error
	stats   models.RunStats
	panics  bool

	mu  *sync.Mutex
	log *[]string
	id  string
}

func (f *fakeRegionOrchestrator) RunCategory(ctx context.Context, category string) (bool, error) {
	if f.mu != nil {
		f.mu.Lock()
		*f.log = append(*f.log, f.id)
		f.mu.Unlock()
	}
	if f.panics {
		panic("region blew up")
	}
	return f.success, f.err
}

func (f *fakeRegionOrchestrator) Stats() models.RunStats { return f.stats }

func newTestRunner(orchs map[string]*fakeRegionOrchestrator) *Runner {
	r := &Runner{
		cfg:     testConfig(),
		regions: map[string]config.RegionConfig{},
	}
	for id := range orchs {
		r.regions[id] = testRegion()
	}
	r.newOrchestrator = func(regionID string) regionOrchestrator {
		return orchs[regionID]
	}
	return r
}

func TestRunnerAggregatesRegions(t *testing.T) {
	orchs := map[string]*fakeRegionOrchestrator{
		"nsw": {success: true, stats: models.RunStats{DocumentsProcessed: 5, DocumentsDownloaded: 4, Errors: 1}},
		"qld": {success: false, stats: models.RunStats{DocumentsProcessed: 2, Errors: 2}},
		"wa":  {success: true, stats: models.RunStats{DocumentsProcessed: 3, DocumentsDownloaded: 3}},
	}
	r := newTestRunner(orchs)

	report, err := r.Run(context.Background(), "safety_alerts", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Regions) != 3 {
		t.Fatalf("got %d region results, want 3", len(report.Regions))
	}
	if report.TotalDocuments != 7 {
		t.Errorf("TotalDocuments = %d, want 7", report.TotalDocuments)
	}
	if report.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3", report.TotalErrors)
	}
	if report.SuccessfulRegions != 2 {
		t.Errorf("SuccessfulRegions = %d, want 2", report.SuccessfulRegions)
	}
	if report.ID == "" || report.Category != "safety_alerts" {
		t.Errorf("report header incomplete: %+v", report)
	}

	// Region order in the report matches the sorted region IDs.
	wantOrder := []string{"nsw", "qld", "wa"}
	for i, res := range report.Regions {
		if res.Region != wantOrder[i] {
			t.Errorf("Regions[%d] = %s, want %s", i, res.Region, wantOrder[i])
		}
	}
}

func TestRunnerContainsRegionFailures(t *testing.T) {
	orchs := map[string]*fakeRegionOrchestrator{
		"nsw": {success: true, stats: models.RunStats{DocumentsDownloaded: 2, DocumentsProcessed: 2}},
		"qld": {err: errors.New("region has no safety_alerts URL")},
		"wa":  {panics: true},
	}
	r := newTestRunner(orchs)

	report, err := r.Run(context.Background(), "safety_alerts", nil)
	if err != nil {
		t.Fatalf("Run must contain region failures: %v", err)
	}

	byRegion := map[string]models.RegionResult{}
	for _, res := range report.Regions {
		byRegion[res.Region] = res
	}

	if !byRegion["nsw"].Success {
		t.Error("healthy region dragged down by its neighbors")
	}
	if byRegion["qld"].Success || byRegion["qld"].ErrorMessage == "" {
		t.Errorf("qld result = %+v, want recorded failure", byRegion["qld"])
	}
	if byRegion["wa"].Success || byRegion["wa"].ErrorMessage == "" {
		t.Errorf("wa result = %+v, want recorded panic", byRegion["wa"])
	}
	if report.SuccessfulRegions != 1 {
		t.Errorf("SuccessfulRegions = %d, want 1", report.SuccessfulRegions)
	}
}

func TestRunnerRejectsUnknownRegion(t *testing.T) {
	r := newTestRunner(map[string]*fakeRegionOrchestrator{"nsw": {success: true}})
	if _, err := r.Run(context.Background(), "codes", []string{"nsw", "vic"}); err == nil {
		t.Fatal("expected error for unknown region")
	}
}

func TestRunnerRunsRequestedSubset(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	orchs := map[string]*fakeRegionOrchestrator{
		"nsw": {success: true, mu: &mu, log: &ran, id: "nsw"},
		"qld": {success: true, mu: &mu, log: &ran, id: "qld"},
		"wa":  {success: true, mu: &mu, log: &ran, id: "wa"},
	}
	r := newTestRunner(orchs)

	report, err := r.Run(context.Background(), "guidance", []string{"wa"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Regions) != 1 || report.Regions[0].Region != "wa" {
		t.Fatalf("report regions = %+v, want just wa", report.Regions)
	}
	if len(ran) != 1 || ran[0] != "wa" {
		t.Errorf("ran = %v, want [wa]", ran)
	}
}
