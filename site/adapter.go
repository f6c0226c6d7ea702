// Package site holds the per-board knowledge the extraction pipeline is
// parameterised by: where job IDs live on a results page, how detail URLs
// are built, which elements carry the title, description and metadata,
// how pagination works, and which classifier reads the metadata.
package site

import (
	"context"
	"time"

	"github.com/use-agent/jobscout/classify"
	"github.com/use-agent/jobscout/query"
)

// Delay presets between detail-page visits. They space requests out to
// look less automated; they do not guarantee a board will not block.
const (
	CautiousDelay = 30 * time.Second
	QuickDelay    = 7500 * time.Millisecond
)

// Detail is what an adapter reads from a job detail page.
type Detail struct {
	Title           string
	Description     string
	DescriptionHTML string
	// Metadata is the raw classifier input; empty when the page has none.
	Metadata string
}

// Adapter is the capability set one job board provides to the pipeline.
// Implementations are immutable and safe to share between pipelines.
type Adapter interface {
	// Name is the registry key ("linkedin", "indeed").
	Name() string

	// IDSelector matches job cards on a results page.
	IDSelector() string
	// IDAttribute is the card attribute holding the job ID.
	IDAttribute() string

	// RootDomain is the scheme and host every URL is built on.
	RootDomain() string
	// DetailURL is root + detail path + id, exactly.
	DetailURL(id, root string) string
	// SearchURL builds a results URL. Inputs are not escaped.
	SearchURL(keywords, location string) string

	// ExtractDetail reads the current detail page. A missing title or
	// description is an ELEMENT_NOT_FOUND error; missing metadata is not.
	ExtractDetail(ctx context.Context, p *query.Page) (Detail, error)
	// Classify maps metadata text to attributes.
	Classify(metadata string) classify.Attributes

	// HasNextPage reports whether the results page offers a next page.
	// It never fails: anything unexpected reads as "no".
	HasNextPage(ctx context.Context, p *query.Page) bool
	// GoToNextPage advances the results page. A missing control is
	// logged and ignored; other failures are returned.
	GoToNextPage(ctx context.Context, p *query.Page) error

	// AuthCookieName is the session cookie that signs a user in.
	AuthCookieName() string
	// DetailDelay is the recommended pause between detail pages.
	DetailDelay() time.Duration
}

// Profile is the static part of an adapter.
type Profile struct {
	IDSelector  string
	IDAttribute string
	DetailPath  string
	Root        string
}

// DetailURL joins root, the detail path and id without any escaping.
func (p Profile) DetailURL(id, root string) string {
	return root + p.DetailPath + id
}
