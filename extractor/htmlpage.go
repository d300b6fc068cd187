package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ysmood/gson"
	"golang.org/x/net/html"
)

// HTMLPage is a Page over a static HTML document. It has no script
// runtime: Global always reports the binding as absent and Click fails
// with ErrUnsupported.
type HTMLPage struct {
	doc *goquery.Document
}

// NewHTMLPage parses r into a static page.
func NewHTMLPage(r io.Reader) (*HTMLPage, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("extractor: parse html: %w", err)
	}
	return &HTMLPage{doc: goquery.NewDocumentFromNode(root)}, nil
}

// NewHTMLPageFromString is NewHTMLPage over a string.
func NewHTMLPageFromString(s string) (*HTMLPage, error) {
	return NewHTMLPage(strings.NewReader(s))
}

func (p *HTMLPage) find(selector string) (*goquery.Selection, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("extractor: invalid selector %q: %w", selector, err)
	}
	return p.doc.FindMatcher(sel), nil
}

// WaitElement implements Page. Static documents never change, so the
// timeout is not used.
func (p *HTMLPage) WaitElement(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	if s.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &htmlElement{s: s.First()}, nil
}

// Elements implements Page.
func (p *HTMLPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, s.Length())
	s.Each(func(_ int, node *goquery.Selection) {
		out = append(out, &htmlElement{s: node})
	})
	return out, nil
}

// Global implements Page.
func (p *HTMLPage) Global(ctx context.Context, _ string) (gson.JSON, bool, error) {
	return gson.JSON{}, false, ErrUnsupported
}

// Title implements Page.
func (p *HTMLPage) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

type htmlElement struct {
	s *goquery.Selection
}

func (e *htmlElement) Text() (string, error) {
	return e.s.Text(), nil
}

func (e *htmlElement) Attribute(name string) (string, bool, error) {
	v, ok := e.s.Attr(name)
	return v, ok, nil
}

func (e *htmlElement) Click() error {
	return ErrUnsupported
}
