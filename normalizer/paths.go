package normalizer

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/ysmood/gson"
)

type base int

const (
	fromRoot  base = iota // the payload itself
	fromState             // the resolved initialState sub-tree
)

// path is one candidate location of a field.
type path struct {
	base base
	keys []any
}

// r is a path rooted at the payload.
func r(keys ...any) path { return path{base: fromRoot, keys: keys} }

// s is a path rooted at the initialState sub-tree.
func s(keys ...any) path { return path{base: fromState, keys: keys} }

// statePrefixes locate the initialState sub-tree, first match wins.
var statePrefixes = [][]any{
	{"pageState", "initialState"},
	{"initialState"},
	{"data", "pageState", "initialState"},
}

// tree is a payload with its initialState sub-tree resolved once.
type tree struct {
	root     gson.JSON
	state    gson.JSON
	hasState bool
}

func newTree(root gson.JSON) tree {
	t := tree{root: root}
	for _, prefix := range statePrefixes {
		if v, ok := root.Gets(prefix...); ok && isObject(v) {
			t.state, t.hasState = v, true
			break
		}
	}
	return t
}

// get resolves p and reports whether it holds a defined, non-null,
// non-empty value. Missing links anywhere on the path are just absence.
func (t tree) get(p path) (gson.JSON, bool) {
	b := t.root
	if p.base == fromState {
		if !t.hasState {
			return gson.JSON{}, false
		}
		b = t.state
	}
	v, ok := b.Gets(p.keys...)
	if !ok || !present(v) {
		return gson.JSON{}, false
	}
	return v, true
}

func (t tree) firstString(fallback string, paths ...path) string {
	for _, p := range paths {
		v, ok := t.get(p)
		if !ok {
			continue
		}
		if str, err := cast.ToStringE(v.Val()); err == nil && strings.TrimSpace(str) != "" {
			return strings.TrimSpace(str)
		}
	}
	return fallback
}

func (t tree) firstFloat(fallback float64, paths ...path) float64 {
	for _, p := range paths {
		v, ok := t.get(p)
		if !ok {
			continue
		}
		if f, err := cast.ToFloat64E(v.Val()); err == nil {
			return f
		}
	}
	return fallback
}

func (t tree) firstInt(paths ...path) (int, bool) {
	for _, p := range paths {
		v, ok := t.get(p)
		if !ok {
			continue
		}
		if i, err := toInt(v.Val()); err == nil {
			return i, true
		}
	}
	return 0, false
}

// toInt reads numeric strings in base 10. cast alone would treat a leading
// zero as an octal prefix.
func toInt(v any) (int, error) {
	if str, ok := v.(string); ok {
		return strconv.Atoi(strings.TrimSpace(str))
	}
	return cast.ToIntE(v)
}

func (t tree) firstBool(paths ...path) (bool, bool) {
	for _, p := range paths {
		v, ok := t.get(p)
		if !ok {
			continue
		}
		if b, err := cast.ToBoolE(v.Val()); err == nil {
			return b, true
		}
	}
	return false, false
}

func (t tree) firstArray(paths ...path) []gson.JSON {
	for _, p := range paths {
		if v, ok := t.get(p); ok {
			if _, isArr := v.Val().([]any); isArr {
				return v.Arr()
			}
		}
	}
	return nil
}

func present(v gson.JSON) bool {
	switch x := v.Val().(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func isObject(v gson.JSON) bool {
	_, ok := v.Val().(map[string]any)
	return ok
}

// textValue reads a display string that is either a plain string or an
// object of the {"text": "..."} form the page components use.
func textValue(v gson.JSON) string {
	switch x := v.Val().(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		if t, ok := v.Gets("text"); ok {
			return strings.TrimSpace(cast.ToString(t.Val()))
		}
		return ""
	default:
		return strings.TrimSpace(cast.ToString(x))
	}
}
