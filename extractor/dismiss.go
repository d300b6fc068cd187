package extractor

import (
	"context"
	"log/slog"
	"time"
)

// popupSelectors cover cookie banners, onboarding/login prompts and modal
// close buttons, in the order they are dismissed.
var popupSelectors = []string{
	`button[data-testid="action:understood-button"]`,
	".cookie-consent-banner-opt-out__action--key-accept",
	".andes-modal__close-button",
	`[aria-label="Cerrar"]`,
	".modal-close",
	".onboarding-cp-button--dismiss",
}

// Dismisser clicks away interstitial dialogs before extraction.
type Dismisser struct {
	selectors   []string
	settleDelay time.Duration
	clickDelay  time.Duration
}

// NewDismisser returns a Dismisser over the default selector list.
func NewDismisser(settleDelay, clickDelay time.Duration) *Dismisser {
	return &Dismisser{
		selectors:   popupSelectors,
		settleDelay: settleDelay,
		clickDelay:  clickDelay,
	}
}

// Dismiss waits settleDelay, then clicks every match of every selector,
// pausing clickDelay after each click. It never fails.
func (d *Dismisser) Dismiss(ctx context.Context, page Page) {
	sleep(ctx, d.settleDelay)

	for _, sel := range d.selectors {
		if ctx.Err() != nil {
			return
		}
		els, err := page.Elements(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if err := el.Click(); err != nil {
				slog.Debug("popup click failed", "selector", sel, "error", err)
				continue
			}
			slog.Info("popup dismissed", "selector", sel)
			sleep(ctx, d.clickDelay)
		}
	}
}
