package scraper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sonarmxdev/scrapingMLCoolify/extractor"
	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// Scrape loads req.URL once and runs the extraction pipeline over it.
//
// Lifecycle for the browser mode:
//
//  1. Timeout guard     – hard deadline on the entire operation
//  2. Session slot      – wait for a free slot, bounded by the deadline
//  3. Acquire page      – borrow a tab from the pool (or create one)
//  4. DEFER: cleanup    – about:blank + return to pool
//  5. Emulation         – user agent and viewport
//  6. Hijack mount      – block heavy resource types (before navigation!)
//  7. Navigate          – bounded by the navigation timeout
//  8. Wait              – load, stable DOM, <body>, then a settle delay
//  9. Extract           – dismiss popups, locate state, DOM fallback
func (s *Scraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (models.RawPayload, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout(req.Timeout))
	defer cancel()

	mode := req.FetchMode
	if mode == "" {
		mode = s.scraperCfg.DefaultFetchMode
	}
	if mode == models.FetchModeHTTP {
		return s.scrapeHTTP(ctx, req.URL)
	}
	return s.scrapeBrowser(ctx, req.URL)
}

// requestTimeout applies the default and clamps to the configured maximum.
func (s *Scraper) requestTimeout(seconds int) time.Duration {
	timeout := time.Duration(seconds) * time.Second
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	return timeout
}

func (s *Scraper) scrapeBrowser(ctx context.Context, targetURL string) (payload models.RawPayload, err error) {
	// ── 2. Session slot ───────────────────────────────────────────────
	if acquireErr := s.slots.Acquire(ctx, 1); acquireErr != nil {
		return nil, categorizeError(acquireErr, "no browser session available")
	}
	defer s.slots.Release(1)

	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	// ── 3. Acquire page from pool ─────────────────────────────────────
	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 4. Cleanup uses the page without the request context so it
	// still runs after the deadline. Unhealthy tabs are closed and their
	// pool slot refilled on the next Get.
	defer func() {
		if s.health.record(page, !pageFault(err)) {
			slog.Info("retiring pooled page")
			_ = page.Close()
			s.pagePool.Put(nil)
			return
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		s.pagePool.Put(page)
	}()

	// ── 5. Emulation ──────────────────────────────────────────────────
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: s.browserCfg.UserAgent,
	}); err != nil {
		slog.Warn("set user agent failed", "error", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.browserCfg.ViewportWidth,
		Height:            s.browserCfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("set viewport failed", "error", err)
	}

	// ── 6. Mount hijack router ────────────────────────────────────────
	if router := setupHijack(page, s.scraperCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 7. Navigate ───────────────────────────────────────────────────
	nav := p.Timeout(s.scraperCfg.NavigationTimeout)
	navErr := nav.Navigate(targetURL)
	nav.CancelTimeout()
	if navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 8. Wait for load, a stable DOM and body, then settle ──────────
	// Navigate returns once the response commits, so the document may
	// still be parsing. WaitRequestIdle is avoided because it shares the
	// Fetch domain with the hijack router.
	stable := p.Timeout(s.scraperCfg.NavigationTimeout)
	waitForDocument(stable, targetURL)
	stable.CancelTimeout()

	waitBody := p.Timeout(s.scraperCfg.BodyTimeout)
	if _, err := waitBody.Element("body"); err != nil {
		slog.Debug("body did not appear, proceeding with current DOM", "url", targetURL, "error", err)
	}
	waitBody.CancelTimeout()
	sleep(ctx, s.scraperCfg.SettleDelay)

	// ── 9. Extract ────────────────────────────────────────────────────
	payload, err = s.extractor.Extract(ctx, newRodPage(p))
	if err != nil {
		return nil, categorizeError(err, "product extraction failed")
	}
	return payload, nil
}

// scrapeHTTP fetches static HTML and runs the pipeline over it. Scripts
// never execute, so only embeds present in the served markup are found.
func (s *Scraper) scrapeHTTP(ctx context.Context, targetURL string) (models.RawPayload, error) {
	body, err := s.httpFetcher.fetch(ctx, targetURL)
	if err != nil {
		return nil, categorizeError(err, "http fetch failed")
	}

	page, err := extractor.NewHTMLPage(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "failed to parse page HTML", err)
	}

	payload, err := s.extractor.Extract(ctx, page)
	if err != nil {
		return nil, categorizeError(err, "product extraction failed")
	}
	return payload, nil
}

// documentWaiter is the part of *rod.Page used to wait out page load.
type documentWaiter interface {
	WaitLoad() error
	WaitDOMStable(d time.Duration, diff float64) error
}

// waitForDocument waits for the load event and then for the DOM to stop
// changing. Both waits are best-effort.
func waitForDocument(w documentWaiter, targetURL string) {
	if err := w.WaitLoad(); err != nil {
		slog.Debug("load event did not fire, proceeding with current DOM", "url", targetURL, "error", err)
	}
	if err := w.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "url", targetURL, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// pageFault reports whether err reflects on the tab itself. A page that
// simply has no product data is not a fault.
func pageFault(err error) bool {
	return err != nil && !errors.Is(err, extractor.ErrNotFound)
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, extractor.ErrNotFound):
		return models.NewScrapeError(models.ErrCodeNotFound, "no product data found on page", err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
