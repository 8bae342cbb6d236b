package main

import (
	"fmt"

	"github.com/minesafety/docharvest/internal/config"
	"github.com/minesafety/docharvest/internal/models"
)

// ValidateFlags checks the command-line flag combination before a run starts.
func ValidateFlags(targetURL, category string, minDocs, concurrency, timeoutMS int) error {
	if targetURL != "" {
		if err := models.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("invalid target URL: %w", err)
		}
	}

	if targetURL == "" {
		valid := false
		for _, c := range config.Categories {
			if c == category {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid category: %s (valid: legislation, safety_alerts, guidance, codes)", category)
		}
	}

	if minDocs < 0 {
		return fmt.Errorf("minimum document count cannot be negative: %d", minDocs)
	}
	if concurrency < 0 || concurrency > 100 {
		return fmt.Errorf("concurrency must be between 0 and 100: %d", concurrency)
	}
	if timeoutMS < 0 || timeoutMS > 600000 {
		return fmt.Errorf("timeout must be between 0 and 600000 ms: %d", timeoutMS)
	}

	return nil
}
