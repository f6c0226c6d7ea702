// Package query is the site-independent element lookup layer the site
// adapters extract through. Every lookup that finds nothing reports an
// ELEMENT_NOT_FOUND ScrapeError; callers decide whether that is fatal.
package query

import (
	"context"

	"github.com/use-agent/jobscout/browser"
	"github.com/use-agent/jobscout/models"
)

// Page wraps the session's current document.
type Page struct {
	S browser.Session
}

// New returns a Page over s.
func New(s browser.Session) *Page {
	return &Page{S: s}
}

// Text returns the rendered text of the first element matching selector.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	el, err := p.S.FindElement(ctx, selector)
	if err != nil {
		return "", err
	}
	return p.S.Text(ctx, el)
}

// InnerText returns the innerText of the first element matching selector,
// which keeps line structure that Text may flatten.
func (p *Page) InnerText(ctx context.Context, selector string) (string, error) {
	if _, err := p.S.FindElement(ctx, selector); err != nil {
		return "", err
	}
	return p.S.Eval(ctx, browser.InnerTextJS, selector)
}

// InnerHTML returns the markup inside the first element matching selector.
func (p *Page) InnerHTML(ctx context.Context, selector string) (string, error) {
	if _, err := p.S.FindElement(ctx, selector); err != nil {
		return "", err
	}
	return p.S.Eval(ctx, browser.InnerHTMLJS, selector)
}

// Attributes reads attr from every element matching selector, in document
// order. Elements without the attribute are skipped.
func (p *Page) Attributes(ctx context.Context, selector, attr string) ([]string, error) {
	els, err := p.S.FindElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, el := range els {
		v, ok, err := p.S.Attribute(ctx, el, attr)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Exists reports whether selector matches anything. Lookup failures other
// than absence are treated as absence.
func (p *Page) Exists(ctx context.Context, selector string) bool {
	_, err := p.S.FindElement(ctx, selector)
	return err == nil
}

// Click clicks the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.S.FindElement(ctx, selector)
	if err != nil {
		return err
	}
	return p.S.Click(ctx, el)
}

// Optional runs lookup and maps ELEMENT_NOT_FOUND to the empty string.
func Optional(s string, err error) (string, error) {
	if models.IsElementNotFound(err) {
		return "", nil
	}
	return s, err
}
