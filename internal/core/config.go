package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minesafety/docharvest/internal/utils"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Scraper ScraperConfig   `mapstructure:"scraper"`
	Render  RenderConfig    `mapstructure:"render"`
	Logging utils.LogConfig `mapstructure:"logging"`
	Output  OutputConfig    `mapstructure:"output"`
	Audit   AuditConfig     `mapstructure:"audit"`
}

// ScraperConfig controls fetching and downloading behavior.
type ScraperConfig struct {
	TimeoutMS             int    `mapstructure:"timeout_ms"`
	RetryAttempts         int    `mapstructure:"retry_attempts"`
	RetryDelaySec         int    `mapstructure:"retry_delay_sec"`
	MinimumDocuments      int    `mapstructure:"minimum_documents"`
	MaxConcurrentRequests int    `mapstructure:"max_concurrent_requests"`
	RequestDelayMS        int    `mapstructure:"request_delay_ms"`
	UserAgent             string `mapstructure:"user_agent"`
}

// RenderConfig controls the headless-browser fallback.
type RenderConfig struct {
	Headless                 bool     `mapstructure:"headless"`
	ViewportWidth            int      `mapstructure:"viewport_width"`
	ViewportHeight           int      `mapstructure:"viewport_height"`
	WaitSelectors            []string `mapstructure:"wait_selectors"`
	WaitTimeoutMS            int      `mapstructure:"wait_timeout_ms"`
	ContentSelectorTimeoutMS int      `mapstructure:"content_selector_timeout_ms"`
}

// OutputConfig controls where documents and reports land.
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// AuditConfig controls the persistent audit trail.
type AuditConfig struct {
	File string `mapstructure:"file"`
}

// Timeout returns the fetch timeout as a duration.
func (c ScraperConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RetryDelay returns the pause between retry attempts.
func (c ScraperConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySec) * time.Second
}

// RequestDelay returns the pacing between download request starts.
func (c ScraperConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// WaitTimeout returns the per-selector wait budget for rendered pages.
func (c RenderConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMS) * time.Millisecond
}

// ContentSelectorTimeout returns the per-selector content probe budget.
func (c RenderConfig) ContentSelectorTimeout() time.Duration {
	return time.Duration(c.ContentSelectorTimeoutMS) * time.Millisecond
}

// LoadConfig reads the configuration file, falling back to defaults when no
// file is present.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".docharvest"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file; defaults apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.timeout_ms", 20000)
	v.SetDefault("scraper.retry_attempts", 3)
	v.SetDefault("scraper.retry_delay_sec", 3)
	v.SetDefault("scraper.minimum_documents", 1)
	v.SetDefault("scraper.max_concurrent_requests", 5)
	v.SetDefault("scraper.request_delay_ms", 500)
	v.SetDefault("scraper.user_agent", "Mining-Safety-Document-Collector/1.0")

	v.SetDefault("render.headless", true)
	v.SetDefault("render.viewport_width", 1920)
	v.SetDefault("render.viewport_height", 1080)
	v.SetDefault("render.wait_selectors", []string{
		"a[href$='.pdf']",
		"a[href$='.doc']",
		"a[href$='.docx']",
	})
	v.SetDefault("render.wait_timeout_ms", 30000)
	v.SetDefault("render.content_selector_timeout_ms", 5000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("output.base_dir", filepath.Join("data", "raw"))

	v.SetDefault("audit.file", "")
}

// MergeCLIFlags applies command-line overrides; flags win over file values.
// headless carries its own set marker because false is a meaningful value
// that a zero-value guard cannot distinguish from "flag not passed".
func (c *Config) MergeCLIFlags(outputDir string, minDocs, concurrency, timeoutMS int, headlessSet, headless bool) {
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
	if minDocs > 0 {
		c.Scraper.MinimumDocuments = minDocs
	}
	if concurrency > 0 {
		c.Scraper.MaxConcurrentRequests = concurrency
	}
	if timeoutMS > 0 {
		c.Scraper.TimeoutMS = timeoutMS
	}
	if headlessSet {
		c.Render.Headless = headless
	}
}
