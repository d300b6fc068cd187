package models

import (
	"encoding/json"

	"github.com/ysmood/gson"
)

// PayloadKind tags the RawPayload variants.
type PayloadKind string

const (
	PayloadState  PayloadKind = "state"
	PayloadManual PayloadKind = "manual"
)

// ManualExtractionID is the id placed in the synthetic state of a
// DOM-built payload.
const ManualExtractionID = "manual-extraction"

// RawPayload is what the extraction pipeline hands upstream. It is either
// a *StatePayload or a *ManualPayload.
type RawPayload interface {
	Kind() PayloadKind
	json.Marshaler
}

// StatePayload is an embedded state tree found on the page. Its shape is
// controlled by the site, not by this service.
type StatePayload struct {
	JSON gson.JSON

	// Strategy names the locator strategy that found the payload.
	Strategy string
}

// Kind implements RawPayload.
func (p *StatePayload) Kind() PayloadKind { return PayloadState }

// MarshalJSON emits the state tree verbatim.
func (p *StatePayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.JSON.Val())
}

// ManualPayload wraps DOM-extracted fields when the page carried no
// embedded state.
type ManualPayload struct {
	ProductData    PartialProductRecord
	SyntheticState gson.JSON
}

// NewManualPayload builds the manual variant together with its minimal
// state-shaped wrapper.
func NewManualPayload(data PartialProductRecord) *ManualPayload {
	var price any
	if data.Price != nil {
		price = *data.Price
	}
	var title any
	if data.Title != nil {
		title = *data.Title
	}

	state := map[string]any{
		"pageState": map[string]any{
			"initialState": map[string]any{
				"id": ManualExtractionID,
				"components": map[string]any{
					"price": map[string]any{
						"price": map[string]any{
							"value":       price,
							"currency_id": data.Currency,
						},
					},
				},
				"share": map[string]any{
					"title": title,
				},
			},
		},
	}

	return &ManualPayload{ProductData: data, SyntheticState: gson.New(state)}
}

// Kind implements RawPayload.
func (p *ManualPayload) Kind() PayloadKind { return PayloadManual }

// MarshalJSON emits {pageState, manualExtraction, productData}, the shape
// clients of the raw endpoint already consume.
func (p *ManualPayload) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"manualExtraction": true,
		"productData":      p.ProductData,
	}
	if state, ok := p.SyntheticState.Val().(map[string]any); ok {
		for k, v := range state {
			out[k] = v
		}
	}
	return json.Marshal(out)
}
