package scraper

import (
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"golang.org/x/sync/semaphore"

	"github.com/sonarmxdev/scrapingMLCoolify/config"
	"github.com/sonarmxdev/scrapingMLCoolify/extractor"
	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// chromiumCandidates are probed in order when no binary is configured.
var chromiumCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome-stable",
}

// Scraper manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	slots       *semaphore.Weighted
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	extractor   *extractor.Extractor
	httpFetcher *httpFetcher
	health      *healthBook
	activePages atomic.Int32
}

// NewScraper launches a headless browser and initialises the reusable page pool.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, ext *extractor.Extractor) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if bin := resolveBrowserBin(browserCfg.BrowserBin); bin != "" {
		l = l.Bin(bin)
	}

	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-accelerated-2d-canvas"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("no-zygote"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(browserCfg.MaxConcurrent)
	slog.Info("page pool created", "maxSessions", browserCfg.MaxConcurrent)

	return &Scraper{
		browser:     browser,
		pagePool:    pool,
		slots:       semaphore.NewWeighted(int64(browserCfg.MaxConcurrent)),
		browserCfg:  browserCfg,
		scraperCfg:  scraperCfg,
		extractor:   ext,
		httpFetcher: newHTTPFetcher(browserCfg.UserAgent),
		health:      newHealthBook(),
	}, nil
}

// resolveBrowserBin returns the configured binary, else the first system
// Chromium found. Empty means rod downloads its own build.
func resolveBrowserBin(configured string) string {
	if configured != "" {
		return configured
	}
	for _, candidate := range chromiumCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Stats returns a snapshot of session usage.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxSessions:    s.browserCfg.MaxConcurrent,
		ActiveSessions: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
