// Package normalizer projects a raw extraction payload onto the canonical
// ProductRecord shape.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/ysmood/gson"

	"github.com/sonarmxdev/scrapingMLCoolify/models"
)

// ErrPayloadMalformed means a payload could not be projected and was passed
// through unchanged.
var ErrPayloadMalformed = errors.New("payload malformed")

// Result is the outcome of Normalize. Exactly one of Record and Raw is set:
// Raw is the untouched input when Degraded is true.
type Result struct {
	Record   *models.ProductRecord
	Raw      models.RawPayload
	Degraded bool
	Err      error
}

// Normalize projects p onto a ProductRecord. It never fails: a payload that
// cannot be projected comes back as a degraded passthrough.
func Normalize(p models.RawPayload) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = degraded(p, fmt.Errorf("%w: %v", ErrPayloadMalformed, rec))
		}
	}()

	switch v := p.(type) {
	case *models.ManualPayload:
		return Result{Record: fromManual(v)}
	case *models.StatePayload:
		t := newTree(v.JSON)
		if err := validate(t); err != nil {
			return degraded(p, err)
		}
		return Result{Record: projectState(t)}
	default:
		return degraded(p, fmt.Errorf("%w: unsupported payload %T", ErrPayloadMalformed, p))
	}
}

func degraded(p models.RawPayload, err error) Result {
	return Result{Raw: p, Degraded: true, Err: err}
}

// knownComponents are the component blocks read by the projection. When
// present they must be objects.
var knownComponents = []string{
	"price", "header", "available_quantity", "seller", "seller_data",
	"seller_experiment", "shipping_summary", "payment_methods", "gallery",
	"highlighted_specs_attrs", "technical_specifications", "specs",
}

func validate(t tree) error {
	if !isObject(t.root) {
		return fmt.Errorf("%w: root is not an object", ErrPayloadMalformed)
	}
	for _, prefix := range statePrefixes {
		if v, ok := t.root.Gets(prefix...); ok && v.Val() != nil && !isObject(v) {
			return fmt.Errorf("%w: %s is not an object", ErrPayloadMalformed, joinKeys(prefix))
		}
	}
	if !t.hasState {
		return nil
	}
	for _, key := range []string{"components", "track", "share"} {
		if v, ok := t.state.Gets(key); ok && v.Val() != nil && !isObject(v) {
			return fmt.Errorf("%w: initialState.%s is not an object", ErrPayloadMalformed, key)
		}
	}
	for _, key := range knownComponents {
		if v, ok := t.state.Gets("components", key); ok && v.Val() != nil && !isObject(v) {
			return fmt.Errorf("%w: components.%s is not an object", ErrPayloadMalformed, key)
		}
	}
	return nil
}

func joinKeys(keys []any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = cast.ToString(k)
	}
	return strings.Join(parts, ".")
}

func fromManual(p *models.ManualPayload) *models.ProductRecord {
	rec := models.NewProductRecord()
	d := p.ProductData

	if d.Title != nil && strings.TrimSpace(*d.Title) != "" {
		rec.Title = *d.Title
	}
	if d.Price != nil {
		rec.Price = *d.Price
	}
	if d.Currency != "" {
		rec.Currency = d.Currency
	}
	if d.Condition != "" {
		rec.Condition = d.Condition
	}
	if d.Seller != nil && strings.TrimSpace(*d.Seller) != "" {
		rec.Seller.Name = *d.Seller
	}
	for _, src := range d.Images {
		rec.Images = append(rec.Images, models.Image{URL: src})
	}
	return rec
}

// Candidate paths per field, in priority order.
var (
	eventData     = []any{"track", "melidata_event", "event_data"}
	customDims    = []any{"track", "analytics_event", "custom_dimensions"}
	absoluteState = [][]any{
		{"data", "pageState", "initialState"},
		{"initialState"},
		{"pageState", "initialState"},
		{},
	}

	idPaths = []path{
		s("id"),
		r("id"),
		s(append(eventData, "item_id")...),
		r("productID"),
		r("sku"),
	}
	titlePaths = []path{
		s("share", "title"),
		s("components", "header", "title"),
		r("share", "title"),
		r("name"),
	}
	pricePaths = []path{
		s("components", "price", "price", "value"),
		r("offers", "price"),
		r("offers", "lowPrice"),
		r("offers", 0, "price"),
		r("offers", 0, "lowPrice"),
	}
	currencyPaths = []path{
		s("components", "price", "price", "currency_id"),
		s(append(eventData, "currency_id")...),
		r("offers", "priceCurrency"),
		r("offers", 0, "priceCurrency"),
	}
	itemStatusPaths = buildItemStatusPaths()
	conditionPaths  = []path{
		s(append(eventData, "item_condition")...),
		s("condition"),
		r("condition"),
	}
	availablePaths = []path{
		s("components", "available_quantity", "quantity_selector", "available_quantity"),
		s("components", "available_quantity", "available_quantity"),
		s(append(eventData, "available_quantity")...),
	}
	availableTextPaths = []path{
		s("components", "available_quantity", "picker", "description"),
		s("components", "available_quantity", "quantity_selector", "description"),
		s("components", "available_quantity", "description"),
		s("components", "available_quantity", "title", "text"),
		s("components", "available_quantity", "picker", "title", "text"),
	}
	soldPaths      = []path{s(append(eventData, "sold_quantity")...)}
	permalinkPaths = []path{
		r("offers", "url"),
		r("offers", 0, "url"),
		s("schema", 0, "offers", "url"),
		s("share", "permalink"),
		r("share", "permalink"),
	}
	sellerIDPaths   = []path{s(append(eventData, "seller_id")...)}
	sellerNamePaths = []path{
		s("components", "seller_experiment", "title_value"),
		s("components", "seller_data", "title_value"),
		s("components", "seller", "title_value"),
		r("offers", "seller", "name"),
		r("offers", 0, "seller", "name"),
	}
	reputationPaths = []path{
		s("components", "seller_experiment", "seller_info", "power_seller_status", "title"),
		s("components", "seller_data", "seller_info", "power_seller_status", "title"),
		s("components", "seller", "seller_info", "power_seller_status", "title"),
	}
	freeShippingPaths = []path{s(append(eventData, "free_shipping")...)}
	promisePaths      = []path{
		s("components", "shipping_summary", "title", "values", "promise", "text"),
		s("components", "shipping_summary", "title", "text"),
	}
	paymentPaths = []path{
		s("components", "payment_methods", "payment_methods"),
		s("components", "payment_methods", "methods"),
	}
	picturePaths  = []path{s("components", "gallery", "pictures")}
	templatePaths = []path{
		s("components", "gallery", "picture_config", "template"),
		s("components", "gallery", "picture_config", "template_zoom"),
	}
	specPaths = []path{
		s("components", "highlighted_specs_attrs", "components"),
		s("components", "technical_specifications", "specs"),
		s("components", "specs", "attributes"),
		r("additionalProperty"),
	}
)

const defaultPictureTemplate = "https://http2.mlstatic.com/D_NQ_NP_{id}-O.webp"

// buildItemStatusPaths lists the tracking locations of the listing status
// under every known state root, melidata before analytics, followed by the
// generic fields.
func buildItemStatusPaths() []path {
	var out []path
	for _, prefix := range absoluteState {
		out = append(out, r(concat(prefix, eventData, "item_status")...))
		out = append(out, r(concat(prefix, customDims, "itemStatus")...))
	}
	return append(out,
		s(append(eventData, "item_status")...),
		s(append(customDims, "itemStatus")...),
		s("item_status"),
		r("item_status"),
		s("status"),
	)
}

func concat(prefix, middle []any, last any) []any {
	out := make([]any, 0, len(prefix)+len(middle)+1)
	out = append(out, prefix...)
	out = append(out, middle...)
	return append(out, last)
}

func projectState(t tree) *models.ProductRecord {
	rec := models.NewProductRecord()

	rec.ID = t.firstString(models.DefaultID, idPaths...)
	rec.Title = t.firstString(models.DefaultText, titlePaths...)
	rec.Price = t.firstFloat(0, pricePaths...)
	rec.Currency = t.firstString(models.DefaultCurrency, currencyPaths...)
	rec.ItemStatus = t.firstString(models.DefaultItemStatus, itemStatusPaths...)
	rec.Condition = t.firstString(models.DefaultCondition, conditionPaths...)
	rec.AvailableQuantity = availableQuantity(t)
	if n, ok := t.firstInt(soldPaths...); ok && n > 0 {
		rec.SoldQuantity = n
	}
	rec.Permalink = t.firstString("", permalinkPaths...)

	rec.Seller.ID = t.firstString(models.DefaultID, sellerIDPaths...)
	rec.Seller.Name = t.firstString(models.DefaultText, sellerNamePaths...)
	rec.Seller.Reputation = t.firstString("", reputationPaths...)

	rec.Shipping.Promise = t.firstString(models.DefaultText, promisePaths...)
	if free, ok := t.firstBool(freeShippingPaths...); ok {
		rec.Shipping.FreeShipping = free
	} else {
		rec.Shipping.FreeShipping = isFreeShipping(rec.Shipping.Promise)
	}

	rec.PaymentMethods = paymentMethods(t)
	rec.Images = images(t)
	for _, spec := range t.firstArray(specPaths...) {
		rec.Specifications = append(rec.Specifications, spec.Val())
	}
	return rec
}

var quantityPattern = regexp.MustCompile(`\d+(?:[.,]\d{3})*`)

// availableQuantity prefers a numeric field and falls back to the first
// integer in a description such as "(+50 disponibles)".
func availableQuantity(t tree) int {
	if n, ok := t.firstInt(availablePaths...); ok {
		return max(n, 0)
	}
	for _, p := range availableTextPaths {
		v, ok := t.get(p)
		if !ok {
			continue
		}
		m := quantityPattern.FindString(textValue(v))
		if m == "" {
			continue
		}
		digits := strings.NewReplacer(".", "", ",", "").Replace(m)
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
	}
	return 0
}

func isFreeShipping(promise string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(promise)), "envío gratis")
}

func paymentMethods(t tree) []models.PaymentMethod {
	out := []models.PaymentMethod{}
	for _, entry := range t.firstArray(paymentPaths...) {
		if !isObject(entry) {
			continue
		}
		m := models.PaymentMethod{Icons: []string{}}
		if v, ok := entry.Gets("title"); ok {
			m.Title = textValue(v)
		}
		if v, ok := entry.Gets("subtitle"); ok {
			m.Subtitle = textValue(v)
		}
		if v, ok := entry.Gets("icons"); ok {
			if _, isArr := v.Val().([]any); isArr {
				for _, icon := range v.Arr() {
					if name := iconName(icon); name != "" {
						m.Icons = append(m.Icons, name)
					}
				}
			}
		}
		if m.Title == "" && m.Subtitle == "" && len(m.Icons) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

func iconName(v gson.JSON) string {
	if str, ok := v.Val().(string); ok {
		return strings.TrimSpace(str)
	}
	for _, key := range []string{"id", "url", "src"} {
		if x, ok := v.Gets(key); ok && present(x) {
			return strings.TrimSpace(cast.ToString(x.Val()))
		}
	}
	return ""
}

func images(t tree) []models.Image {
	out := []models.Image{}
	template := t.firstString(defaultPictureTemplate, templatePaths...)

	for _, pic := range t.firstArray(picturePaths...) {
		var img models.Image
		switch x := pic.Val().(type) {
		case string:
			img.URL = strings.TrimSpace(x)
		case map[string]any:
			img.ID = stringAt(pic, "id")
			img.Alt = stringAt(pic, "alt")
			img.URL = stringAt(pic, "url")
			if img.URL == "" {
				img.URL = stringAt(pic, "secure_url")
			}
			if img.URL == "" && img.ID != "" {
				img.URL = strings.NewReplacer("{id}", img.ID, "{sanitizedTitle}", "").Replace(template)
			}
		}
		if img.URL != "" {
			out = append(out, img)
		}
	}
	if len(out) > 0 {
		return out
	}

	// structured data carries a bare image URL or a list of them
	if v, ok := t.get(r("image")); ok {
		switch x := v.Val().(type) {
		case string:
			out = append(out, models.Image{URL: strings.TrimSpace(x)})
		case []any:
			for _, item := range x {
				if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
					out = append(out, models.Image{URL: strings.TrimSpace(str)})
				}
			}
		}
	}
	return out
}

func stringAt(v gson.JSON, key string) string {
	x, ok := v.Gets(key)
	if !ok || !present(x) {
		return ""
	}
	return strings.TrimSpace(cast.ToString(x.Val()))
}
