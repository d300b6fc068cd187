package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// Version is reported by GET /health.
const Version = "1.0.0"

// StatsProvider reports browser session usage.
type StatsProvider interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /health.
//
// Reports session utilisation and degrades status when > 80% of sessions are active.
func Health(sp StatsProvider, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sp.Stats()

		status := "OK"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Message:   "Servidor de scraping funcionando",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Version:   Version,
		})
	}
}
