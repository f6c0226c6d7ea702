package pipeline

import (
	"context"

	"github.com/use-agent/jobscout/query"
	"github.com/use-agent/jobscout/site"
)

// Paginator moves a results page forward using an adapter's controls.
type Paginator struct {
	adapter site.Adapter
	page    *query.Page
}

// NewPaginator returns a Paginator over page.
func NewPaginator(a site.Adapter, page *query.Page) *Paginator {
	return &Paginator{adapter: a, page: page}
}

// HasNext reports whether a next page is offered.
func (p *Paginator) HasNext(ctx context.Context) bool {
	return p.adapter.HasNextPage(ctx, p.page)
}

// AdvanceIfPossible goes to the next page when there is one. Without a
// next page it returns false and leaves the page untouched, so repeated
// calls on the last page are harmless.
func (p *Paginator) AdvanceIfPossible(ctx context.Context) (bool, error) {
	if !p.HasNext(ctx) {
		return false, nil
	}
	return true, p.adapter.GoToNextPage(ctx, p.page)
}
