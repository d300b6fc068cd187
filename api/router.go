package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sonarmxdev/scrapingMLCoolify/api/handler"
	"github.com/sonarmxdev/scrapingMLCoolify/api/middleware"
	"github.com/sonarmxdev/scrapingMLCoolify/config"
)

// Backend is what the routes need from the scraper.
type Backend interface {
	handler.ProductScraper
	handler.StatsProvider
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:                Recovery → Logger
//	/scrape/product-info:  RateLimit
func NewRouter(b Backend, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(b, startTime))
	r.POST("/scrape", handler.Scrape(b))
	r.POST("/scrape/product-info", middleware.RateLimit(cfg.RateLimit), handler.ProductInfo(b))

	return r
}
