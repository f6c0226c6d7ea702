// Package browser is the browser-session collaborator: the handful of page
// operations the extraction pipeline needs, implemented over a live
// Chromium tab (RodSession) or over fetched, unrendered HTML (StaticSession).
//
// A Session is owned by exactly one pipeline and is not safe for
// concurrent use.
package browser

import (
	"context"
	"errors"

	"github.com/use-agent/jobscout/models"
)

// Element is an opaque handle to a DOM node. It is only valid for the
// Session that returned it, and only until that Session navigates again.
type Element any

// Session drives a single page.
type Session interface {
	// Navigate loads url and waits for the document to settle.
	Navigate(ctx context.Context, url string) error

	// Refresh reloads the current document.
	Refresh(ctx context.Context) error

	// URL returns the address of the current document.
	URL(ctx context.Context) (string, error)

	// FindElement returns the first element matching selector, or an
	// ELEMENT_NOT_FOUND ScrapeError when nothing matches.
	FindElement(ctx context.Context, selector string) (Element, error)

	// FindElements returns every element matching selector, possibly none.
	FindElements(ctx context.Context, selector string) ([]Element, error)

	// Attribute reads a DOM attribute. ok is false when it is absent.
	Attribute(ctx context.Context, el Element, name string) (value string, ok bool, err error)

	// Text returns the rendered text of el.
	Text(ctx context.Context, el Element) (string, error)

	// Eval runs a JavaScript function expression with args and returns its
	// result as a string.
	Eval(ctx context.Context, js string, args ...any) (string, error)

	// SetCookie sets a cookie for the current document's site.
	SetCookie(ctx context.Context, name, value string) error

	// Click clicks el.
	Click(ctx context.Context, el Element) error

	// Close releases the page.
	Close() error
}

// Scripts the page query layer evaluates. StaticSession understands
// exactly these two; a RodSession runs them in the page.
const (
	InnerTextJS = `(sel) => { const el = document.querySelector(sel); return el ? el.innerText : ""; }`
	InnerHTMLJS = `(sel) => { const el = document.querySelector(sel); return el ? el.innerHTML : ""; }`
)

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell navigation problems from timeouts and cancellation.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeCanceled, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
