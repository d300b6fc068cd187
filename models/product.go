package models

// Defaults applied when no source provides a value.
const (
	DefaultID         = "N/A"
	DefaultText       = "No disponible"
	DefaultCurrency   = "MXN"
	DefaultItemStatus = "unknown"
	DefaultCondition  = "Nuevo"
)

// ProductRecord is the canonical product shape returned by
// POST /scrape/product-info regardless of how the page was read.
type ProductRecord struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Price             float64         `json:"price"`
	Currency          string          `json:"currency"`
	ItemStatus        string          `json:"item_status"`
	Condition         string          `json:"condition"`
	AvailableQuantity int             `json:"available_quantity"`
	SoldQuantity      int             `json:"sold_quantity"`
	Permalink         string          `json:"permalink"`
	Seller            Seller          `json:"seller"`
	Shipping          Shipping        `json:"shipping"`
	PaymentMethods    []PaymentMethod `json:"payment_methods"`
	Images            []Image         `json:"images"`
	Specifications    []any           `json:"specifications"`
}

// Seller identifies the listing's seller.
type Seller struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Reputation string `json:"reputation,omitempty"`
}

// Shipping summarises the delivery promise shown on the page.
type Shipping struct {
	FreeShipping bool   `json:"free_shipping"`
	Promise      string `json:"promise"`
}

// PaymentMethod is one entry of the payment methods block.
type PaymentMethod struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Icons    []string `json:"icons"`
}

// Image is one gallery picture.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// NewProductRecord returns a record with every field at its default.
func NewProductRecord() *ProductRecord {
	return &ProductRecord{
		ID:             DefaultID,
		Title:          DefaultText,
		Currency:       DefaultCurrency,
		ItemStatus:     DefaultItemStatus,
		Condition:      DefaultCondition,
		Seller:         Seller{ID: DefaultID, Name: DefaultText},
		Shipping:       Shipping{Promise: DefaultText},
		PaymentMethods: []PaymentMethod{},
		Images:         []Image{},
		Specifications: []any{},
	}
}

// PartialProductRecord holds the fields read directly from the rendered
// DOM. Nil pointers mean no selector alternative produced a value.
type PartialProductRecord struct {
	Title       *string  `json:"title"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency"`
	Description *string  `json:"description"`
	Seller      *string  `json:"seller"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
	Available   bool     `json:"available"`
	Location    *string  `json:"location"`
}

// Usable reports whether the record carries anything worth returning.
func (p *PartialProductRecord) Usable() bool {
	return p.Title != nil || p.Price != nil || len(p.Images) > 0
}
