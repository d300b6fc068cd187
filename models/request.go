package models

// Fetch modes accepted by ScrapeRequest.FetchMode.
const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// ScrapeRequest is the payload for POST /scrape and POST /scrape/product-info.
type ScrapeRequest struct {
	// URL is the product page to scrape. Required; validated by the handler
	// so the response can carry the service's own message.
	URL string `json:"url" binding:"omitempty,url"`

	// Timeout is the maximum duration in seconds for the whole
	// navigate-and-extract operation. Default: 90. Max: 180.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=180"`

	// FetchMode selects how the page is loaded. Empty uses the server's
	// configured default.
	// "browser": headless Chrome, full pipeline.
	// "http": static HTML over a Chrome-fingerprinted TLS client; no
	// global bindings and no popup clicks are available in this mode.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=browser http"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 90
	}
}
