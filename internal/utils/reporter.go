package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minesafety/docharvest/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter writes run reports under a reports directory.
type Reporter struct {
	reportsDir string
}

// NewReporter creates a reporter rooted at outputDir/reports.
func NewReporter(outputDir string) *Reporter {
	return &Reporter{reportsDir: filepath.Join(outputDir, "reports")}
}

// WriteRunReport saves the run report as a timestamped JSON file and returns
// its path.
func (r *Reporter) WriteRunReport(report *models.RunReport) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	name := fmt.Sprintf("scrape_report_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(r.reportsDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}

	Infof("✅ report written: %s", path)
	return path, nil
}

// NewProgressBar builds the standard download progress bar.
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
