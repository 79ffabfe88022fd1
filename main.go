package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/LeosDev13/idealista-scraper/config"
	"github.com/LeosDev13/idealista-scraper/fetch"
	"github.com/LeosDev13/idealista-scraper/scraper/idealista"
	"github.com/LeosDev13/idealista-scraper/scraper/locations"
	"github.com/LeosDev13/idealista-scraper/storage"
	"github.com/LeosDev13/idealista-scraper/utils"
)

func main() {
	enumerateLocations := flag.Bool("locations", false,
		"run the location enumeration crawler instead of the property crawl")
	logLevel := flag.String("log-level", "", "log level (debug|info|warn|error)")
	flag.Parse()

	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	logger.Info("=== Idealista Scraper starting ===")
	logger.Info("Config — store: %s | fetch: %s | concurrency: %d | pacing: %d-%dms",
		cfg.StoreBackend, cfg.FetchMode, cfg.MaxConcurrency, cfg.PacingMinMs, cfg.PacingMaxMs)

	if err := cfg.Validate(); err != nil {
		logger.Critical("Invalid configuration: %v", err)
		os.Exit(1)
	}

	profile, err := config.LoadSiteProfile(cfg.SiteProfilePath)
	if err != nil {
		logger.Critical("Failed to load site profile: %v", err)
		os.Exit(1)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Critical("Failed to open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var client fetch.Client
	if cfg.FetchMode == config.FetchBrowser {
		browser := fetch.NewBrowserClient(profile.UserAgent, cfg.ChromeBin, cfg.FetchTimeout())
		defer browser.Close()
		client = browser
	} else {
		client = fetch.NewHTTPClient(profile, cfg.FetchTimeout())
	}

	ctx := context.Background()

	if *enumerateLocations {
		crawler := locations.New(cfg, profile, client, store, logger)
		if err := crawler.Run(ctx); err != nil {
			logger.Error("Location enumeration failed: %v", err)
			os.Exit(1)
		}
		return
	}

	scraper := idealista.New(cfg, profile, client, store, logger)
	if err := scraper.Run(ctx); err != nil {
		logger.Error("Crawl failed: %v", err)
		os.Exit(1)
	}
	scraper.Summary().Print()
}

func openStore(cfg *config.Config, logger *utils.Logger) (storage.Gateway, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return storage.NewPostgresGateway(cfg.DSN(), logger)
	case config.StoreSQLite:
		return storage.NewSQLiteGateway(cfg.SQLitePath, logger)
	case config.StoreCSV:
		return storage.NewCSVGateway(cfg.CSVDir, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
