package models

import (
	"encoding/json"
	"time"
)

// RegionResult is one region's slice of a run report.
type RegionResult struct {
	Region              string  `json:"region"`
	Category            string  `json:"category"`
	Success             bool    `json:"success"`
	DocumentsProcessed  int     `json:"documents_processed"`
	DocumentsDownloaded int     `json:"documents_downloaded"`
	Errors              int     `json:"errors"`
	Duration            float64 `json:"duration"` // seconds
	ErrorMessage        string  `json:"error_message,omitempty"`
}

// RunReport is the JSON report written at the end of a multi-region run.
type RunReport struct {
	ID                string         `json:"id"`
	Category          string         `json:"category"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
	Regions           []RegionResult `json:"regions"`
	TotalDocuments    int            `json:"total_documents"`
	TotalErrors       int            `json:"total_errors"`
	SuccessfulRegions int            `json:"successful_regions"`
}

// ToJSON serializes the report.
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
