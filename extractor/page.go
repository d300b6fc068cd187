// Package extractor turns a loaded product page into a RawPayload: it
// dismisses popups, searches for an embedded state payload and, when none
// exists, reads a fixed set of fields straight from the DOM.
//
// The package never owns a browser. Callers hand it a Page that is already
// navigated and settled; scraper adapts rod pages, HTMLPage adapts static
// HTML.
package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/ysmood/gson"
)

var (
	// ErrStrategyFailed marks a single locator strategy or field probe that
	// could not resolve. It is always recovered inside the pipeline.
	ErrStrategyFailed = errors.New("extractor: strategy failed")

	// ErrNotFound means neither a state payload nor usable DOM fields exist.
	ErrNotFound = errors.New("extractor: no product data found")

	// ErrUpstream wraps failures of the page handle itself.
	ErrUpstream = errors.New("extractor: page handle failed")

	// ErrElementNotFound is returned by Page.WaitElement when nothing matched.
	ErrElementNotFound = errors.New("extractor: element not found")

	// ErrUnsupported is returned by Page implementations that cannot run
	// scripts or dispatch input events.
	ErrUnsupported = errors.New("extractor: operation not supported by page")
)

// Element is a single DOM node reachable through a Page.
type Element interface {
	// Text returns the node's textContent.
	Text() (string, error)

	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)

	// Click dispatches a left click on the node.
	Click() error
}

// Page is the loaded document the pipeline reads from.
type Page interface {
	// WaitElement waits up to timeout for the first node matching selector.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// Elements returns every node currently matching selector.
	Elements(ctx context.Context, selector string) ([]Element, error)

	// Global reads a binding from the page's global scope. The bool is
	// false when the binding is undefined or null.
	Global(ctx context.Context, name string) (gson.JSON, bool, error)

	// Title returns document.title.
	Title(ctx context.Context) (string, error)
}

// sleep waits for d or until ctx is done.
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
