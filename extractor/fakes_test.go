package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ysmood/gson"
)

// fakePage serves canned elements per selector and records clicks. It
// stands in for a browser page where script globals or clicks matter.
type fakePage struct {
	elements map[string][]*fakeElement
	globals  map[string]any
	title    string
	queries  []string
}

func (p *fakePage) WaitElement(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	els, _ := p.Elements(ctx, selector)
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return els[0], nil
}

func (p *fakePage) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.queries = append(p.queries, selector)
	out := []Element{}
	for _, el := range p.elements[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (p *fakePage) Global(ctx context.Context, name string) (gson.JSON, bool, error) {
	v, ok := p.globals[name]
	if !ok || v == nil {
		return gson.JSON{}, false, nil
	}
	return gson.New(v), true, nil
}

func (p *fakePage) Title(ctx context.Context) (string, error) {
	return p.title, nil
}

type fakeElement struct {
	text     string
	attrs    map[string]string
	clicks   int
	clickErr error
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	return nil
}

var errDetached = errors.New("node detached")
