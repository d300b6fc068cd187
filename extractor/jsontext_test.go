package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalancedObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		from   int
		want   string
		wantOK bool
	}{
		{"simple", `x = {"a":1};`, 0, `{"a":1}`, true},
		{"nested", `{"a":{"b":{"c":2}}} trailing }`, 0, `{"a":{"b":{"c":2}}}`, true},
		{"brace inside string", `{"a":"}{"} rest`, 0, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"}\""}`, 0, `{"a":"say \"}\""}`, true},
		{"starts later", `{"skip":1} {"take":2}`, 10, `{"take":2}`, true},
		{"unbalanced", `{"a":{"b":1}`, 0, "", false},
		{"no brace", `no json here`, 0, "", false},
		{"out of range", `{}`, 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := balancedObject(tt.in, tt.from)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectAfter(t *testing.T) {
	script := `var x = {"noise":true}; window.__PRELOADED_STATE__ = {"pageState":{"id":"MLM1"}};`

	got, ok := objectAfter(script, "window.__PRELOADED_STATE__ =")
	require.True(t, ok)
	assert.Equal(t, `{"pageState":{"id":"MLM1"}}`, got)

	_, ok = objectAfter(script, "__MISSING__")
	assert.False(t, ok)
}

func TestParseObject(t *testing.T) {
	obj, err := ParseObject(` {"a":{"b":[1,2]}} `)
	require.NoError(t, err)
	v, ok := obj.Gets("a", "b", 1)
	require.True(t, ok)
	assert.Equal(t, 2, v.Int())

	for _, bad := range []string{"", "[1,2]", "null", `"str"`, "{broken"} {
		_, err := ParseObject(bad)
		assert.ErrorIs(t, err, ErrStrategyFailed, "input %q", bad)
	}
}
