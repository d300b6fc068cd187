package extractor

import (
	"context"
	"strings"

	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// titleSuffixes are stripped from document.title when it is the only
// title source left.
var titleSuffixes = []string{" - Mercado Libre", " | Mercado Libre"}

var (
	titleSelectors       = []string{"h1.ui-pdp-title", ".ui-pdp-title", "h1"}
	priceSelectors       = []string{".andes-money-amount__fraction", ".ui-pdp-price__part", ".price-tag-fraction", `[itemprop="price"]`}
	descriptionSelectors = []string{".ui-pdp-description__content", `[itemprop="description"]`, ".item-description"}
	sellerSelectors      = []string{".ui-pdp-seller__header__title", ".seller-info__name", `[data-testid="seller-name"]`}
	conditionSelectors   = []string{".ui-pdp-subtitle", ".item-condition"}
	locationSelectors    = []string{".ui-pdp-seller__location", ".ui-seller-info__status-info__subtitle"}
	availableSelectors   = []string{".ui-pdp-buybox__quantity__available", ".ui-pdp-stock-information__title", `[data-testid="quantity-available"]`}
	imageSelector        = ".ui-pdp-gallery__figure img, .gallery-image"
	imageAttributes      = []string{"src", "data-src", "data-zoom"}
)

// probe resolves one field from one candidate source. ok is false when
// the source is absent, empty or unreadable.
type probe func(ctx context.Context, page Page) (value string, ok bool)

// first evaluates probes left to right and returns the first hit.
func first(ctx context.Context, page Page, probes ...probe) (string, bool) {
	for _, p := range probes {
		if v, ok := p(ctx, page); ok {
			return v, true
		}
	}
	return "", false
}

// textOf reads the trimmed textContent of the first node matching selector.
func textOf(selector string) probe {
	return func(ctx context.Context, page Page) (string, bool) {
		els, err := page.Elements(ctx, selector)
		if err != nil || len(els) == 0 {
			return "", false
		}
		text, err := els[0].Text()
		if err != nil {
			return "", false
		}
		text = strings.TrimSpace(text)
		return text, text != ""
	}
}

// attrOf reads an attribute of the first node matching selector.
func attrOf(selector, name string) probe {
	return func(ctx context.Context, page Page) (string, bool) {
		els, err := page.Elements(ctx, selector)
		if err != nil || len(els) == 0 {
			return "", false
		}
		v, ok, err := els[0].Attribute(name)
		if err != nil || !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
}

// documentTitle reads document.title and strips the site-name suffix.
func documentTitle(ctx context.Context, page Page) (string, bool) {
	title, err := page.Title(ctx)
	if err != nil {
		return "", false
	}
	for _, suffix := range titleSuffixes {
		title = strings.TrimSuffix(title, suffix)
	}
	title = strings.TrimSpace(title)
	return title, title != ""
}

func textProbes(selectors []string) []probe {
	probes := make([]probe, len(selectors))
	for i, s := range selectors {
		probes[i] = textOf(s)
	}
	return probes
}

// DOMExtractor reads product fields from rendered nodes. It is used only
// when no embedded state payload exists.
type DOMExtractor struct{}

// Extract reads every field independently; a field whose selectors all
// miss gets nil or its fixed default. The only error is ctx expiring.
func (DOMExtractor) Extract(ctx context.Context, page Page) (models.PartialProductRecord, error) {
	rec := models.PartialProductRecord{
		Currency:  models.DefaultCurrency,
		Condition: models.DefaultCondition,
		Images:    []string{},
	}

	if v, ok := first(ctx, page, append(textProbes(titleSelectors), documentTitle)...); ok {
		rec.Title = &v
	}
	if v, ok := extractPrice(ctx, page); ok {
		rec.Price = &v
	}
	if v, ok := first(ctx, page,
		attrOf(`meta[itemprop="priceCurrency"]`, "content"),
		textOf(".andes-money-amount__currency-symbol"),
	); ok {
		rec.Currency = v
	}
	if v, ok := first(ctx, page, textProbes(descriptionSelectors)...); ok {
		rec.Description = &v
	}
	if v, ok := first(ctx, page, textProbes(sellerSelectors)...); ok {
		rec.Seller = &v
	}
	if v, ok := first(ctx, page, textProbes(conditionSelectors)...); ok {
		rec.Condition = v
	}
	if v, ok := first(ctx, page, textProbes(locationSelectors)...); ok {
		rec.Location = &v
	}
	rec.Images = extractImages(ctx, page)
	rec.Available = anyPresent(ctx, page, availableSelectors)

	if err := ctx.Err(); err != nil {
		return rec, err
	}
	return rec, nil
}

// extractPrice tries each price selector; a candidate whose text does not
// parse falls through to the next selector.
func extractPrice(ctx context.Context, page Page) (float64, bool) {
	for _, sel := range priceSelectors {
		candidates := []probe{textOf(sel)}
		if strings.HasPrefix(sel, "[itemprop") {
			candidates = []probe{attrOf(sel, "content"), textOf(sel)}
		}
		for _, p := range candidates {
			text, ok := p(ctx, page)
			if !ok {
				continue
			}
			if v, ok := ParsePrice(text); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func extractImages(ctx context.Context, page Page) []string {
	images := []string{}
	els, err := page.Elements(ctx, imageSelector)
	if err != nil {
		return images
	}

	seen := make(map[string]struct{}, len(els))
	for _, el := range els {
		for _, name := range imageAttributes {
			src, ok, err := el.Attribute(name)
			src = strings.TrimSpace(src)
			if err != nil || !ok || src == "" {
				continue
			}
			if strings.HasPrefix(src, "data:") {
				continue
			}
			if _, dup := seen[src]; !dup {
				seen[src] = struct{}{}
				images = append(images, src)
			}
			break
		}
	}
	return images
}

func anyPresent(ctx context.Context, page Page, selectors []string) bool {
	for _, sel := range selectors {
		if els, err := page.Elements(ctx, sel); err == nil && len(els) > 0 {
			return true
		}
	}
	return false
}
