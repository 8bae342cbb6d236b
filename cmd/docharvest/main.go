package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minesafety/docharvest/internal/audit"
	"github.com/minesafety/docharvest/internal/config"
	"github.com/minesafety/docharvest/internal/core"
	"github.com/minesafety/docharvest/internal/crawlers"
	"github.com/minesafety/docharvest/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configFile  string
	regionsFile string
	verbose     bool
	logLevel    string

	category    string
	regionList  []string
	outputDir   string
	auditFile   string
	minDocs     int
	concurrency int
	timeoutMS   int
	headless    bool

	targetURL   string
	urlFile     string
	contentHint string
)

var rootCmd = &cobra.Command{
	Use:   "docharvest",
	Short: "Mining safety document collector",
	Long: `docharvest - regulatory and safety document collector for Australian
mining jurisdictions (NSW, QLD, WA)

Collects legislation, safety alerts, guidance material and codes of practice
from the state regulators:
  • static fetch with automatic headless-browser fallback
  • per-region concurrency with failure isolation
  • persistent audit trail across runs
  • ad-hoc single-URL mode for one-off acquisitions

Examples:
  # all regions, safety alerts
  docharvest --category safety_alerts

  # one region, legislation (also sweeps codes of practice)
  docharvest --category legislation --region nsw

  # one-off URL
  docharvest -u https://www.resourcesregulator.nsw.gov.au/safety/alerts.pdf

Version: ` + Version + `
Build time: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logConfig := appConfig.Logging
		if logConfig.Level == "" {
			logConfig = utils.DefaultLogConfig()
		}
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("received %v, shutting down", sig)
			cancel()
		}()

		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		appConfig.MergeCLIFlags(outputDir, minDocs, concurrency, timeoutMS, cmd.Flags().Changed("headless"), headless)

		if err := ValidateFlags(targetURL, category, minDocs, concurrency, timeoutMS); err != nil {
			return err
		}

		if err := config.EnsureRegionsFileExists(regionsFile); err != nil {
			utils.Warnf("could not seed region config: %v", err)
		}
		regions, err := config.LoadRegions(regionsFile)
		if err != nil {
			return fmt.Errorf("load regions: %w", err)
		}

		auditPath := auditFile
		if auditPath == "" {
			auditPath = appConfig.Audit.File
		}
		if auditPath == "" {
			auditPath = audit.DefaultAuditFile
		}
		store, err := audit.Open(auditPath)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}

		// Ad-hoc single-URL (or URL file) mode bypasses the region tables.
		if targetURL != "" || urlFile != "" {
			return runAdHoc(ctx, appConfig, regions, store)
		}

		runner := core.NewRunner(appConfig, regions, store)
		report, err := runner.Run(ctx, category, regionList)
		if err != nil {
			return err
		}

		reporter := utils.NewReporter(appConfig.Output.BaseDir)
		if path, werr := reporter.WriteRunReport(report); werr != nil {
			utils.Warnf("write run report: %v", werr)
		} else {
			utils.Infof("📋 report written: %s", path)
		}

		if report.SuccessfulRegions == 0 {
			utils.Error(nil, "no region met the minimum document count")
			os.Exit(1)
		}
		utils.Info("✨ run complete!")
		return nil
	},
}

// runAdHoc processes operator-supplied URLs outside the region tables. Each
// URL is classified and acquired independently; one failure never stops the
// rest.
func runAdHoc(ctx context.Context, appConfig *core.Config, regions config.Regions, store *audit.Store) error {
	urls := []string{}
	if targetURL != "" {
		urls = append(urls, targetURL)
	}
	if urlFile != "" {
		fromFile, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return fmt.Errorf("read URL file: %w", err)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no valid URLs to process")
	}

	// Ad-hoc targets still need selectors; any region's generic document
	// selectors serve, the tables are uniform on those.
	regionCfg := regions[regions.IDs()[0]]
	guard := crawlers.NewResourceGuard()

	failed := 0
	for _, u := range urls {
		orch := core.NewOrchestrator(appConfig, "adhoc", regionCfg, store, guard)
		if err := orch.ProcessAdHoc(ctx, u, contentHint); err != nil {
			failed++
		}
	}
	if err := store.FinalizeSession(); err != nil {
		utils.Warnf("finalize audit session: %v", err)
	}

	if failed == len(urls) {
		utils.Error(nil, "every ad-hoc URL failed")
		os.Exit(1)
	}
	utils.Infof("✨ ad-hoc run complete: %d/%d succeeded", len(urls)-failed, len(urls))
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docharvest %s\n", Version)
		fmt.Printf("build time: %s\n", BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&regionsFile, "regions", "", "region table path (default configs/regions.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	rootCmd.Flags().StringVar(&category, "category", "safety_alerts", "document category (legislation|safety_alerts|guidance|codes)")
	rootCmd.Flags().StringSliceVar(&regionList, "region", nil, "region IDs to scrape (default: all)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default data/raw)")
	rootCmd.Flags().StringVar(&auditFile, "audit-file", "", "audit log path (default scrape_log.json)")
	rootCmd.Flags().IntVar(&minDocs, "min-docs", 0, "minimum documents for a region to count as success")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent downloads")
	rootCmd.Flags().IntVar(&timeoutMS, "timeout", 0, "fetch timeout in milliseconds")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")

	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "single URL to acquire (bypasses region tables)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "file with URLs to acquire, one per line")
	rootCmd.Flags().StringVar(&contentHint, "content-hint", "", "content-type hint for ad-hoc classification")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
