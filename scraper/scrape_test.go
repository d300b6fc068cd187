package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sonarmxdev/scrapingMLCoolify/config"
	"github.com/sonarmxdev/scrapingMLCoolify/extractor"
	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// newHTTPOnlyScraper builds a Scraper without a browser; only the http
// fetch mode may be used with it.
func newHTTPOnlyScraper() *Scraper {
	return &Scraper{
		scraperCfg: config.ScraperConfig{
			DefaultTimeout: 5 * time.Second,
			MaxTimeout:     10 * time.Second,
		},
		extractor:   extractor.NewWith(extractor.NewDismisser(0, 0), extractor.NewLocator(0)),
		httpFetcher: newHTTPFetcher("test-agent"),
	}
}

func TestRequestTimeout_DefaultAndClamp(t *testing.T) {
	s := newHTTPOnlyScraper()

	if got := s.requestTimeout(0); got != 5*time.Second {
		t.Errorf("zero timeout should use default, got %v", got)
	}
	if got := s.requestTimeout(7); got != 7*time.Second {
		t.Errorf("in-range timeout changed: %v", got)
	}
	if got := s.requestTimeout(600); got != 10*time.Second {
		t.Errorf("timeout should clamp to max, got %v", got)
	}
}

func TestCategorizeError_Codes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("wrapped: %w", extractor.ErrNotFound), models.ErrCodeNotFound},
		{fmt.Errorf("%w: %w", extractor.ErrUpstream, context.DeadlineExceeded), models.ErrCodeTimeout},
		{context.Canceled, models.ErrCodeTimeout},
		{errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
	}
	for _, c := range cases {
		got := categorizeError(c.err, "msg")
		if got.Code != c.code {
			t.Errorf("categorizeError(%v) = %s, want %s", c.err, got.Code, c.code)
		}
		if !errors.Is(got, c.err) {
			t.Errorf("categorizeError(%v) lost the cause", c.err)
		}
	}
}

func TestBlockedSet_IgnoresUnknownNames(t *testing.T) {
	set := blockedSet([]string{"Image", "Font", "Bogus"})
	if len(set) != 2 {
		t.Fatalf("expected 2 blocked types, got %d", len(set))
	}
	if _, ok := set[proto.NetworkResourceTypeImage]; !ok {
		t.Error("Image should be blocked")
	}
	if len(blockedSet(nil)) != 0 {
		t.Error("empty config should block nothing")
	}
}

func TestResolveBrowserBin_ConfiguredWins(t *testing.T) {
	if got := resolveBrowserBin("/opt/chrome"); got != "/opt/chrome" {
		t.Errorf("configured binary ignored, got %q", got)
	}
}

func TestScrapeHTTP_StatePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("unexpected user agent %q", ua)
		}
		fmt.Fprint(w, `<html><body><script>window.__PRELOADED_STATE__ = {"initialState":{"id":"MLM77"}};</script></body></html>`)
	}))
	defer srv.Close()

	payload, err := newHTTPOnlyScraper().Scrape(context.Background(), &models.ScrapeRequest{
		URL:       srv.URL,
		FetchMode: models.FetchModeHTTP,
	})
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	state, ok := payload.(*models.StatePayload)
	if !ok {
		t.Fatalf("expected state payload, got %T", payload)
	}
	if state.Strategy != "script-scan" {
		t.Errorf("unexpected strategy %q", state.Strategy)
	}
}

func TestScrapeHTTP_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>sin producto</p></body></html>`)
	}))
	defer srv.Close()

	_, err := newHTTPOnlyScraper().Scrape(context.Background(), &models.ScrapeRequest{
		URL:       srv.URL,
		FetchMode: models.FetchModeHTTP,
	})
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeNotFound {
		t.Fatalf("expected %s, got %v", models.ErrCodeNotFound, err)
	}
}

func TestScrapeHTTP_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newHTTPOnlyScraper().Scrape(context.Background(), &models.ScrapeRequest{
		URL:       srv.URL,
		FetchMode: models.FetchModeHTTP,
	})
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeNavigation {
		t.Fatalf("expected %s, got %v", models.ErrCodeNavigation, err)
	}
}

func TestPageFault_NotFoundIsNotAFault(t *testing.T) {
	if pageFault(nil) {
		t.Error("nil error is not a fault")
	}
	if pageFault(categorizeError(extractor.ErrNotFound, "x")) {
		t.Error("missing product data should not count against the page")
	}
	if !pageFault(categorizeError(context.DeadlineExceeded, "x")) {
		t.Error("timeouts should count against the page")
	}
}

var _ documentWaiter = (*rod.Page)(nil)

type recordingWaiter struct {
	calls   []string
	loadErr error
}

func (w *recordingWaiter) WaitLoad() error {
	w.calls = append(w.calls, "load")
	return w.loadErr
}

func (w *recordingWaiter) WaitDOMStable(d time.Duration, diff float64) error {
	w.calls = append(w.calls, fmt.Sprintf("stable %v %v", d, diff))
	return nil
}

func TestWaitForDocument_LoadThenStable(t *testing.T) {
	w := &recordingWaiter{}
	waitForDocument(w, "https://example.com")

	want := []string{"load", "stable 300ms 0.1"}
	if fmt.Sprint(w.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", w.calls, want)
	}
}

func TestWaitForDocument_LoadFailureStillWaitsForStableDOM(t *testing.T) {
	w := &recordingWaiter{loadErr: errors.New("load timeout")}
	waitForDocument(w, "https://example.com")

	if len(w.calls) != 2 {
		t.Errorf("expected both waits after a failed load, got %v", w.calls)
	}
}
