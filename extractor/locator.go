package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sonarmxdev/scrapingMLCoolify/models"
	"github.com/ysmood/gson"
)

const stateMarker = "__PRELOADED_STATE__"

// statePatterns are the assignment-style embeds tried, in order, inside a
// script that mentions the marker.
var statePatterns = []string{
	"window.__PRELOADED_STATE__ =",
	"window.__PRELOADED_STATE__=",
	"__PRELOADED_STATE__ =",
	"__PRELOADED_STATE__=",
	`"__PRELOADED_STATE__":`,
}

// stateGlobals are read from the page's global scope in this order.
var stateGlobals = []string{"__PRELOADED_STATE__", "__INITIAL_STATE__", "__NEXT_DATA__"}

// structuredDataHints must appear in a JSON-LD block for it to be taken as
// product data rather than breadcrumbs or organisation info.
var structuredDataHints = []string{`"offers"`, `"price"`, `"sku"`, `"productID"`}

// structuredDataKeys are the same hints as object keys.
var structuredDataKeys = []string{"offers", "price", "sku", "productID"}

// stateAttributes carry serialized state on some page variants.
var stateAttributes = []string{"data-preloaded-state", "data-initial-state", "data-state"}

// Strategy is one independent way of finding the embedded state payload.
// A Probe must not leave side effects visible to later strategies.
type Strategy struct {
	Name  string
	Probe func(ctx context.Context, page Page) (gson.JSON, error)
}

// Locator tries its strategies in order and stops at the first success.
type Locator struct {
	strategies []Strategy
}

// NewLocator returns a Locator with the default strategy chain.
// elementTimeout bounds the wait for the state script element.
func NewLocator(elementTimeout time.Duration) *Locator {
	return NewLocatorWithStrategies(
		Strategy{Name: "script-id", Probe: scriptByID(elementTimeout)},
		Strategy{Name: "script-scan", Probe: scanScripts},
		Strategy{Name: "window-global", Probe: readGlobals},
		Strategy{Name: "json-ld", Probe: structuredData},
		Strategy{Name: "data-attribute", Probe: dataAttributes},
	)
}

// NewLocatorWithStrategies returns a Locator over an explicit chain.
func NewLocatorWithStrategies(strategies ...Strategy) *Locator {
	return &Locator{strategies: strategies}
}

// Locate returns the first payload found. When every strategy fails the
// result is (nil, nil): "not found" is not an error. Only a cancelled or
// expired ctx produces an error, wrapped in ErrUpstream.
func (l *Locator) Locate(ctx context.Context, page Page) (*models.StatePayload, error) {
	for _, s := range l.strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		state, err := runStrategy(ctx, page, s)
		if err == nil {
			slog.Info("state payload found", "strategy", s.Name)
			return &models.StatePayload{JSON: state, Strategy: s.Name}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, ctxErr)
		}
		slog.Debug("state strategy failed", "strategy", s.Name, "error", err)
	}
	return nil, nil
}

// runStrategy isolates a single probe so a panic inside it only fails
// that strategy.
func runStrategy(ctx context.Context, page Page, s Strategy) (state gson.JSON, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStrategyFailed, r)
		}
	}()
	return s.Probe(ctx, page)
}

func scriptByID(timeout time.Duration) func(context.Context, Page) (gson.JSON, error) {
	return func(ctx context.Context, page Page) (gson.JSON, error) {
		el, err := page.WaitElement(ctx, "script#"+stateMarker, timeout)
		if err != nil {
			return gson.JSON{}, fmt.Errorf("%w: %v", ErrStrategyFailed, err)
		}
		text, err := el.Text()
		if err != nil {
			return gson.JSON{}, fmt.Errorf("%w: %v", ErrStrategyFailed, err)
		}
		return ParseObject(text)
	}
}

func scanScripts(ctx context.Context, page Page) (gson.JSON, error) {
	scripts, err := page.Elements(ctx, "script")
	if err != nil {
		return gson.JSON{}, fmt.Errorf("%w: %v", ErrStrategyFailed, err)
	}
	for _, script := range scripts {
		content, err := script.Text()
		if err != nil || !strings.Contains(content, stateMarker) {
			continue
		}
		for _, pattern := range statePatterns {
			if raw, ok := objectAfter(content, pattern); ok {
				if state, err := ParseObject(raw); err == nil {
					return state, nil
				}
			}
		}
		if raw, ok := balancedObject(content, 0); ok {
			if state, err := ParseObject(raw); err == nil {
				return state, nil
			}
		}
	}
	return gson.JSON{}, fmt.Errorf("%w: no script embeds %s", ErrStrategyFailed, stateMarker)
}

func readGlobals(ctx context.Context, page Page) (gson.JSON, error) {
	for _, name := range stateGlobals {
		v, ok, err := page.Global(ctx, name)
		if err != nil {
			return gson.JSON{}, fmt.Errorf("%w: %v", ErrStrategyFailed, err)
		}
		if _, isObject := v.Val().(map[string]any); ok && isObject {
			return v, nil
		}
	}
	return gson.JSON{}, fmt.Errorf("%w: no state global bound", ErrStrategyFailed)
}

func structuredData(ctx context.Context, page Page) (gson.JSON, error) {
	scripts, err := page.Elements(ctx, `script[type="application/ld+json"]`)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("%w: %v", ErrStrategyFailed, err)
	}
	for _, script := range scripts {
		content, err := script.Text()
		if err != nil || !containsAny(content, structuredDataHints) {
			continue
		}
		v, err := parseJSON(content)
		if err != nil {
			return gson.JSON{}, err
		}
		if product, ok := productNode(v); ok {
			return gson.New(product), nil
		}
	}
	return gson.JSON{}, fmt.Errorf("%w: no product JSON-LD", ErrStrategyFailed)
}

// productNode picks the product object out of a JSON-LD document, which may
// be a single node, a list of nodes or an object with an @graph list.
// Nodes typed Product win over untyped nodes that only carry a hint key.
func productNode(v any) (map[string]any, bool) {
	var nodes []any
	switch x := v.(type) {
	case map[string]any:
		graph, isGraph := x["@graph"].([]any)
		if !isGraph || hasHintKey(x) {
			return x, true
		}
		nodes = graph
	case []any:
		nodes = x
	default:
		return nil, false
	}

	var fallback map[string]any
	for _, n := range nodes {
		obj, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if isProductType(obj["@type"]) {
			return obj, true
		}
		if fallback == nil && hasHintKey(obj) {
			fallback = obj
		}
	}
	return fallback, fallback != nil
}

func isProductType(t any) bool {
	switch x := t.(type) {
	case string:
		return x == "Product"
	case []any:
		for _, e := range x {
			if e == "Product" {
				return true
			}
		}
	}
	return false
}

func hasHintKey(obj map[string]any) bool {
	for _, key := range structuredDataKeys {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

func dataAttributes(ctx context.Context, page Page) (gson.JSON, error) {
	for _, attr := range stateAttributes {
		els, err := page.Elements(ctx, "["+attr+"]")
		if err != nil {
			continue
		}
		for _, el := range els {
			raw, ok, err := el.Attribute(attr)
			if err != nil || !ok {
				continue
			}
			if state, err := ParseObject(raw); err == nil {
				return state, nil
			}
		}
	}
	return gson.JSON{}, fmt.Errorf("%w: no state data attribute", ErrStrategyFailed)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
