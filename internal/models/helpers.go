package models

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// ValidateURL checks that a URL is absolute http(s) with a host.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// GenerateID returns a fresh unique ID for outcomes and sessions.
func GenerateID() string {
	return uuid.New().String()
}
