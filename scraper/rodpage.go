package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/sonarmxdev/scrapingMLCoolify/extractor"
)

// clickTimeout bounds a single popup click; rod waits for the node to be
// interactable, which never happens for hidden dialogs.
const clickTimeout = 2 * time.Second

const readGlobalJS = `(name) => { const v = window[name]; return v === undefined ? null : v }`

// rodPage adapts a navigated rod page to extractor.Page.
type rodPage struct {
	page *rod.Page
}

func newRodPage(p *rod.Page) *rodPage {
	return &rodPage{page: p}
}

func (p *rodPage) WaitElement(ctx context.Context, selector string, timeout time.Duration) (extractor.Element, error) {
	tp := p.page.Context(ctx).Timeout(timeout)
	el, err := tp.Element(selector)
	tp.CancelTimeout()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s", extractor.ErrElementNotFound, selector)
		}
		return nil, err
	}
	return &rodElement{el: el.Context(ctx)}, nil
}

func (p *rodPage) Elements(ctx context.Context, selector string) ([]extractor.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]extractor.Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

func (p *rodPage) Global(ctx context.Context, name string) (gson.JSON, bool, error) {
	res, err := p.page.Context(ctx).Eval(readGlobalJS, name)
	if err != nil {
		return gson.JSON{}, false, err
	}
	if res.Value.Nil() {
		return gson.JSON{}, false, nil
	}
	return res.Value, true, nil
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.title`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	v, err := e.el.Property("textContent")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Click() error {
	el := e.el.Timeout(clickTimeout)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}
