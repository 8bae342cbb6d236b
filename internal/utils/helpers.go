package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/minesafety/docharvest/internal/models"
)

// ReadURLsFromFile loads a newline-separated URL list, skipping blank lines
// and # comments. Invalid URLs are warned about and dropped.
func ReadURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer file.Close()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := models.ValidateURL(line); err != nil {
			Warnf("skipping invalid URL (line %d): %s - %v", lineNum, line, err)
			continue
		}

		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no valid URLs in file")
	}

	Infof("loaded %d URLs from file", len(urls))
	return urls, nil
}
