package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minesafety/docharvest/internal/audit"
	"github.com/minesafety/docharvest/internal/config"
	"github.com/minesafety/docharvest/internal/crawlers"
	"github.com/minesafety/docharvest/internal/models"
	"github.com/minesafety/docharvest/internal/utils"
	"golang.org/x/sync/errgroup"
)

// regionOrchestrator is the slice of the Orchestrator the runner drives.
type regionOrchestrator interface {
	RunCategory(ctx context.Context, category string) (bool, error)
	Stats() models.RunStats
}

// Runner executes one category across multiple regions concurrently. Regions
// share nothing but the audit store, which serializes internally.
type Runner struct {
	cfg     *Config
	regions config.Regions
	store   *audit.Store
	guard   *crawlers.ResourceGuard

	newOrchestrator func(regionID string) regionOrchestrator
}

// NewRunner creates a multi-region runner.
func NewRunner(cfg *Config, regions config.Regions, store *audit.Store) *Runner {
	r := &Runner{
		cfg:     cfg,
		regions: regions,
		store:   store,
		guard:   crawlers.NewResourceGuard(),
	}
	r.newOrchestrator = func(regionID string) regionOrchestrator {
		return NewOrchestrator(r.cfg, regionID, r.regions[regionID], r.store, r.guard)
	}
	return r
}

// Run scrapes the category for every requested region and returns the run
// report. A region failure never aborts the others; the report records it.
func (r *Runner) Run(ctx context.Context, category string, regionIDs []string) (*models.RunReport, error) {
	if len(regionIDs) == 0 {
		regionIDs = r.regions.IDs()
	}
	for _, id := range regionIDs {
		if _, ok := r.regions[id]; !ok {
			return nil, fmt.Errorf("unknown region: %s", id)
		}
	}

	utils.Infof("🚀 starting run: category=%s regions=%s", category, strings.Join(regionIDs, ","))

	report := &models.RunReport{
		ID:        models.GenerateID(),
		Category:  category,
		StartTime: time.Now(),
		Regions:   make([]models.RegionResult, len(regionIDs)),
	}

	eg, gctx := errgroup.WithContext(ctx)
	for i, id := range regionIDs {
		i, id := i, id
		eg.Go(func() error {
			report.Regions[i] = r.runRegion(gctx, id, category)
			return nil
		})
	}
	// Region failures land in the report, never in the group error.
	_ = eg.Wait()

	report.EndTime = time.Now()
	for _, res := range report.Regions {
		report.TotalDocuments += res.DocumentsDownloaded
		report.TotalErrors += res.Errors
		if res.Success {
			report.SuccessfulRegions++
		}
	}

	if r.store != nil {
		if err := r.store.FinalizeSession(); err != nil {
			utils.Warnf("finalize audit session: %v", err)
		}
	}

	r.printSummary(report)
	return report, nil
}

// runRegion drives one region's orchestrator and folds the outcome into a
// RegionResult. Panics and errors are contained here.
func (r *Runner) runRegion(ctx context.Context, regionID, category string) (result models.RegionResult) {
	result = models.RegionResult{Region: regionID, Category: category}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start).Seconds()
		if rec := recover(); rec != nil {
			utils.Errorf("region %s panicked: %v", regionID, rec)
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("panic: %v", rec)
		}
	}()

	orch := r.newOrchestrator(regionID)
	success, err := orch.RunCategory(ctx, category)

	stats := orch.Stats()
	result.Success = success
	result.DocumentsProcessed = stats.DocumentsProcessed
	result.DocumentsDownloaded = stats.DocumentsDownloaded
	result.Errors = stats.Errors
	if err != nil {
		result.Success = false
		result.ErrorMessage = err.Error()
	}
	return result
}

// printSummary prints the end-of-run stats box.
func (r *Runner) printSummary(report *models.RunReport) {
	fmt.Println("\n==================================================")
	fmt.Println("📊 run summary")
	fmt.Println("==================================================")
	fmt.Printf("📁 category: %s\n", report.Category)
	for _, res := range report.Regions {
		mark := "✅"
		if !res.Success {
			mark = "❌"
		}
		fmt.Printf("%s %s: %d/%d downloaded, %d errors (%.1fs)\n",
			mark, res.Region, res.DocumentsDownloaded, res.DocumentsProcessed,
			res.Errors, res.Duration)
	}
	fmt.Printf("📦 total documents: %d\n", report.TotalDocuments)
	fmt.Printf("❌ total errors: %d\n", report.TotalErrors)
	fmt.Printf("⏱️  total time: %.1fs\n", report.EndTime.Sub(report.StartTime).Seconds())
	if r.store != nil {
		fmt.Println("--------------------------------------------------")
		fmt.Println("📚 cumulative (all sessions)")
		for _, res := range report.Regions {
			sum := r.store.RegionSummary(res.Region)
			fmt.Printf("   %s: %d total, %d successful, %d failed\n",
				res.Region, sum.Total, sum.Successful, sum.Failed)
		}
	}
	fmt.Println("==================================================")
}
