package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sonarmxdev/scrapingMLCoolify/config"
	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// Extractor sequences popup dismissal, state location and the DOM
// fallback over a single page. It holds no per-request state and is safe
// for concurrent use as long as each call gets its own Page.
type Extractor struct {
	dismisser *Dismisser
	locator   *Locator
	dom       DOMExtractor
}

// New builds an Extractor with the default strategy chains.
func New(cfg config.ExtractConfig) *Extractor {
	return &Extractor{
		dismisser: NewDismisser(cfg.PopupSettleDelay, cfg.PopupClickDelay),
		locator:   NewLocator(cfg.StateElementTimeout),
	}
}

// NewWith builds an Extractor from explicit parts.
func NewWith(d *Dismisser, l *Locator) *Extractor {
	return &Extractor{dismisser: d, locator: l}
}

// Extract runs the pipeline and returns a *models.StatePayload when the
// page embeds state, or a *models.ManualPayload built from DOM fields.
// It returns ErrNotFound when the DOM yields nothing usable and ErrUpstream
// when the page handle or ctx fails.
func (e *Extractor) Extract(ctx context.Context, page Page) (models.RawPayload, error) {
	if e.dismisser != nil {
		e.dismisser.Dismiss(ctx, page)
	}

	state, err := e.locator.Locate(ctx, page)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	slog.Info("no embedded state found, extracting from DOM")
	data, err := e.dom.Extract(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !data.Usable() {
		return nil, ErrNotFound
	}
	return models.NewManualPayload(data), nil
}
