// Package config holds the immutable region/selector tables. The tables are
// loaded once at startup and passed by reference into each orchestrator; there
// is no process-wide mutable state.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// DefaultRegionsFile is where the editable region table lives.
const DefaultRegionsFile = "configs/regions.yaml"

// Categories is the fixed set of document classes, in reporting order.
var Categories = []string{"legislation", "safety_alerts", "guidance", "codes"}

//go:embed regions_template.yaml
var regionsTemplate string

// SelectorSet holds the CSS selectors used to locate document links and the
// content containers a dynamic render waits for.
type SelectorSet struct {
	PDFLinks string `mapstructure:"pdf_links"`
	DocLinks string `mapstructure:"doc_links"`
	Content  string `mapstructure:"content"`
}

// LinkSelectors returns the document-link selectors in extraction order:
// PDF links first, then doc/docx links.
func (s SelectorSet) LinkSelectors() []string {
	return []string{s.PDFLinks, s.DocLinks}
}

// ContentSelectors splits the comma-separated content containers into the
// prioritized wait list used by the renderer.
func (s SelectorSet) ContentSelectors() []string {
	parts := strings.Split(s.Content, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RegionConfig is one jurisdiction's seed URLs and selectors.
type RegionConfig struct {
	Base          string            `mapstructure:"base"`
	Categories    map[string]string `mapstructure:"categories"`
	Selectors     SelectorSet       `mapstructure:"selectors"`
	BulletinLinks []string          `mapstructure:"bulletin_links"`
}

// Regions maps region ID (nsw, qld, wa) to its configuration.
type Regions map[string]RegionConfig

// IDs returns the configured region IDs in sorted order.
func (r Regions) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks that every region carries all categories and selectors.
func (r Regions) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("no regions configured")
	}
	for id, rc := range r {
		if rc.Base == "" {
			return fmt.Errorf("region %s: missing base URL", id)
		}
		for _, cat := range Categories {
			if rc.Categories[cat] == "" {
				return fmt.Errorf("region %s: missing %s URL", id, cat)
			}
		}
		if rc.Selectors.PDFLinks == "" || rc.Selectors.DocLinks == "" {
			return fmt.Errorf("region %s: missing document link selectors", id)
		}
		if rc.Selectors.Content == "" {
			return fmt.Errorf("region %s: missing content selectors", id)
		}
	}
	return nil
}

// EnsureRegionsFileExists writes the embedded template to path when no region
// file is present yet, so operators have something to edit.
func EnsureRegionsFileExists(path string) error {
	if path == "" {
		path = DefaultRegionsFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config dir [%s]: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(regionsTemplate), 0644); err != nil {
			return fmt.Errorf("write region template [%s]: %w", path, err)
		}
	}
	return nil
}

// LoadRegions reads the region tables from path, falling back to the embedded
// defaults when no file exists.
func LoadRegions(path string) (Regions, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return defaultRegions()
			}
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				return defaultRegions()
			}
			return nil, fmt.Errorf("read region config [%s]: %w", path, err)
		}
	} else {
		return defaultRegions()
	}

	var wrapper struct {
		Regions Regions `mapstructure:"regions"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return nil, fmt.Errorf("parse region config: %w", err)
	}
	if err := wrapper.Regions.Validate(); err != nil {
		return nil, fmt.Errorf("region config invalid: %w", err)
	}
	return wrapper.Regions, nil
}

// defaultRegions parses the embedded template.
func defaultRegions() (Regions, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(regionsTemplate)); err != nil {
		return nil, fmt.Errorf("parse embedded region defaults: %w", err)
	}
	var wrapper struct {
		Regions Regions `mapstructure:"regions"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return nil, fmt.Errorf("parse embedded region defaults: %w", err)
	}
	if err := wrapper.Regions.Validate(); err != nil {
		return nil, fmt.Errorf("embedded region defaults invalid: %w", err)
	}
	return wrapper.Regions, nil
}
