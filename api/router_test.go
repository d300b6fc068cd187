package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ysmood/gson"

	"github.com/sonarmxdev/scrapingMLCoolify/config"
	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

type stubBackend struct{}

func (stubBackend) Scrape(context.Context, *models.ScrapeRequest) (models.RawPayload, error) {
	return &models.StatePayload{JSON: gson.New(map[string]any{"id": "MLM1"}), Strategy: "json-ld"}, nil
}

func (stubBackend) Stats() models.PoolStats { return models.PoolStats{MaxSessions: 1} }

func TestRouterRoutes(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		RateLimit: config.RateLimitConfig{Window: time.Hour, MaxRequests: 1},
	}
	r := NewRouter(stubBackend{}, cfg, time.Now())

	do := func(method, path, body string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/scrape", `{"url":"https://example.com/p"}`))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/scrape", `{"url":"https://example.com/p"}`))

	// only product-info is rate limited
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/scrape/product-info", `{"url":"https://example.com/p"}`))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "/scrape/product-info", `{"url":"https://example.com/p"}`))
}
