package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func htmlPage(t *testing.T, doc string) *HTMLPage {
	t.Helper()
	p, err := NewHTMLPageFromString(doc)
	require.NoError(t, err)
	return p
}

func TestLocatorStrategies(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		strategy string
		key      []any
		want     any
	}{
		{
			name:     "script by id",
			doc:      `<html><body><script id="__PRELOADED_STATE__">{"pageState":{"initialState":{"id":"MLM1"}}}</script></body></html>`,
			strategy: "script-id",
			key:      []any{"pageState", "initialState", "id"},
			want:     "MLM1",
		},
		{
			name: "assignment in inline script",
			doc: `<html><body>
				<script>var unrelated = {"a":1};</script>
				<script>window.__PRELOADED_STATE__ = {"initialState":{"id":"MLM2","note":"a } brace"}};</script>
			</body></html>`,
			strategy: "script-scan",
			key:      []any{"initialState", "id"},
			want:     "MLM2",
		},
		{
			name:     "quoted key embed",
			doc:      `<html><body><script>self.boot({"__PRELOADED_STATE__":{"id":"MLM3"}})</script></body></html>`,
			strategy: "script-scan",
			key:      []any{"id"},
			want:     "MLM3",
		},
		{
			name: "product json-ld",
			doc: `<html><head>
				<script type="application/ld+json">{"@type":"BreadcrumbList","itemListElement":[]}</script>
				<script type="application/ld+json">{"@type":"Product","name":"Widget","offers":{"price":10}}</script>
			</head><body></body></html>`,
			strategy: "json-ld",
			key:      []any{"name"},
			want:     "Widget",
		},
		{
			name: "json-ld node list",
			doc: `<html><head>
				<script type="application/ld+json">[{"@type":"Organization","name":"Shop"},{"@type":"Product","name":"Widget","sku":"S1","offers":{"price":10}}]</script>
			</head><body></body></html>`,
			strategy: "json-ld",
			key:      []any{"sku"},
			want:     "S1",
		},
		{
			name: "json-ld graph",
			doc: `<html><head>
				<script type="application/ld+json">{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":["Product"],"name":"Widget","offers":{"price":10}}]}</script>
			</head><body></body></html>`,
			strategy: "json-ld",
			key:      []any{"name"},
			want:     "Widget",
		},
		{
			name:     "data attribute",
			doc:      `<html><body><div data-initial-state='{"id":"MLM5"}'></div></body></html>`,
			strategy: "data-attribute",
			key:      []any{"id"},
			want:     "MLM5",
		},
		{
			name: "invalid script falls through",
			doc: `<html><body>
				<script id="__PRELOADED_STATE__">{not json</script>
				<div data-state='{"id":"MLM6"}'></div>
			</body></html>`,
			strategy: "data-attribute",
			key:      []any{"id"},
			want:     "MLM6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLocator(0).Locate(context.Background(), htmlPage(t, tt.doc))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.strategy, got.Strategy)
			v, ok := got.JSON.Gets(tt.key...)
			require.True(t, ok)
			assert.Equal(t, tt.want, v.Val())
		})
	}
}

func TestLocatorStopsAtFirstStrategy(t *testing.T) {
	page := &fakePage{elements: map[string][]*fakeElement{
		"script#__PRELOADED_STATE__": {{text: `{"initialState":{"id":"MLM1"}}`}},
		"script":                     {{text: `window.__PRELOADED_STATE__ = {"id":"other"};`}},
	}}

	got, err := NewLocator(0).Locate(context.Background(), page)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "script-id", got.Strategy)
	assert.Equal(t, []string{"script#__PRELOADED_STATE__"}, page.queries)
	assert.NotContains(t, page.queries, "script")
	assert.NotContains(t, page.queries, `script[type="application/ld+json"]`)
}

func TestLocatorWindowGlobal(t *testing.T) {
	page := &fakePage{globals: map[string]any{
		"__INITIAL_STATE__": map[string]any{"id": "from-initial"},
		"__NEXT_DATA__":     map[string]any{"id": "from-next"},
	}}

	got, err := NewLocator(0).Locate(context.Background(), page)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "window-global", got.Strategy)
	id, _ := got.JSON.Gets("id")
	assert.Equal(t, "from-initial", id.Val())
}

func TestLocatorNotFound(t *testing.T) {
	got, err := NewLocator(0).Locate(context.Background(), htmlPage(t, `<html><body><h1>hi</h1></body></html>`))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocatorShortCircuit(t *testing.T) {
	var calls []string
	strategy := func(name string, ok bool) Strategy {
		return Strategy{Name: name, Probe: func(context.Context, Page) (gson.JSON, error) {
			calls = append(calls, name)
			if !ok {
				return gson.JSON{}, ErrStrategyFailed
			}
			return gson.New(map[string]any{"by": name}), nil
		}}
	}

	l := NewLocatorWithStrategies(
		strategy("one", false),
		strategy("two", true),
		strategy("three", true),
	)
	got, err := l.Locate(context.Background(), &fakePage{})
	require.NoError(t, err)
	assert.Equal(t, "two", got.Strategy)
	assert.Equal(t, []string{"one", "two"}, calls)
}

func TestLocatorRecoversPanics(t *testing.T) {
	l := NewLocatorWithStrategies(
		Strategy{Name: "boom", Probe: func(context.Context, Page) (gson.JSON, error) {
			var m map[string]any
			m["x"] = 1
			return gson.JSON{}, nil
		}},
		Strategy{Name: "ok", Probe: func(context.Context, Page) (gson.JSON, error) {
			return gson.New(map[string]any{}), nil
		}},
	)
	got, err := l.Locate(context.Background(), &fakePage{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Strategy)
}

func TestLocatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewLocator(0).Locate(ctx, &fakePage{})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocatorSkipsScalarGlobals(t *testing.T) {
	page := &fakePage{globals: map[string]any{
		"__PRELOADED_STATE__": "not an object",
		"__NEXT_DATA__":       map[string]any{"props": map[string]any{}},
	}}

	got, err := NewLocator(0).Locate(context.Background(), page)
	require.NoError(t, err)
	require.NotNil(t, got)
	_, ok := got.JSON.Gets("props")
	assert.True(t, ok)
}
