package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sonarmxdev/scrapingMLCoolify/models"
	"github.com/sonarmxdev/scrapingMLCoolify/normalizer"
)

// User-facing messages.
const (
	msgURLRequired      = "URL es requerida"
	msgNoData           = "No se pudo obtener datos de la página"
	msgScrapeOK         = "Scraping completado exitosamente"
	msgProductInfoOK    = "Información del producto obtenida exitosamente"
	msgProductInfoRawOK = "Información del producto obtenida sin normalizar"
)

// sourceDOM names payloads built from DOM fields rather than embedded state.
const sourceDOM = "dom"

// ProductScraper loads one product page and returns its raw payload.
type ProductScraper interface {
	Scrape(ctx context.Context, req *models.ScrapeRequest) (models.RawPayload, error)
}

// Scrape returns a handler for POST /scrape.
//
//  1. Parse & validate request, apply defaults.
//  2. Scrape → raw payload   (records scrape_ms)
//  3. Return the payload as-is.
func Scrape(sc ProductScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		req, ok := bindRequest(c)
		if !ok {
			return
		}

		scrapeStart := time.Now()
		payload, err := sc.Scrape(c.Request.Context(), req)
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		if err != nil {
			slog.Error("scrape failed", "url", req.URL, "error", err)
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: true,
			Data:    payload,
			Source:  sourceOf(payload),
			Message: msgScrapeOK,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			},
		})
	}
}

// ProductInfo returns a handler for POST /scrape/product-info.
//
//  1. Parse & validate request, apply defaults.
//  2. Scrape → raw payload         (records scrape_ms)
//  3. Normalize → product record   (records normalizing_ms)
//  4. A payload that cannot be normalized is returned raw with degraded=true.
func ProductInfo(sc ProductScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		req, ok := bindRequest(c)
		if !ok {
			return
		}

		scrapeStart := time.Now()
		payload, err := sc.Scrape(c.Request.Context(), req)
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		if err != nil {
			slog.Error("product info scrape failed", "url", req.URL, "error", err)
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		normStart := time.Now()
		res := normalizer.Normalize(payload)
		timing := models.TimingInfo{
			TotalMs:       time.Since(totalStart).Milliseconds(),
			ScrapeMs:      scrapeMs,
			NormalizingMs: time.Since(normStart).Milliseconds(),
		}

		if res.Degraded {
			slog.Warn("normalization degraded, returning raw payload", "url", req.URL, "error", res.Err)
			c.JSON(http.StatusOK, models.ScrapeResponse{
				Success:  true,
				Data:     res.Raw,
				Degraded: true,
				Source:   sourceOf(payload),
				Message:  msgProductInfoRawOK,
				Timing:   timing,
			})
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: true,
			Data:    res.Record,
			Source:  sourceOf(payload),
			Message: msgProductInfoOK,
			Timing:  timing,
		})
	}
}

// bindRequest parses the body, writing the 400 response itself on failure.
func bindRequest(c *gin.Context) (*models.ScrapeRequest, bool) {
	var req models.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, models.ScrapeResponse{
			Success: false,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: err.Error(),
			},
		})
		return nil, false
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, models.ScrapeResponse{
			Success: false,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: msgURLRequired,
			},
		})
		return nil, false
	}
	req.Defaults()
	return &req, true
}

func sourceOf(p models.RawPayload) string {
	if state, ok := p.(*models.StatePayload); ok {
		return state.Strategy
	}
	return sourceDOM
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	detail := scrapeErr.ToDetail()
	if scrapeErr.Code == models.ErrCodeNotFound {
		detail.Message = msgNoData
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   detail,
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes. A page
// without product data stays a 500, which existing clients expect.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
