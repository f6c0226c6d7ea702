package pipeline

import (
	"context"
	"time"
)

// Plan describes a whole scrape session for Run.
type Plan struct {
	// Cookie, when set, signs the session in via Initialise using the
	// adapter's AuthCookieName.
	Cookie string

	// Keywords and Location drive the search. Ignored when IDs is set.
	Keywords string
	Location string

	// IDs skips searching and scrapes these jobs.
	IDs []string

	// MaxPages caps results pages walked; zero or less means no limit.
	MaxPages int

	// Delay separates detail pages. Negative selects the adapter's preset.
	Delay time.Duration

	// PageDelay separates results pages.
	PageDelay time.Duration
}

// Run executes plan: sign in, search or queue the given IDs, then scrape
// everything pending. The report is returned even on error.
func (p *Pipeline) Run(ctx context.Context, plan Plan) (*Report, error) {
	if plan.Cookie != "" {
		if err := p.Initialise(ctx, p.adapter.AuthCookieName(), plan.Cookie); err != nil {
			return &Report{}, err
		}
	}

	if len(plan.IDs) > 0 {
		p.AddPending(plan.IDs...)
	} else {
		if err := p.Search(ctx, plan.Keywords, plan.Location); err != nil {
			return &Report{}, err
		}
		if _, err := p.CollectAcrossPages(ctx, plan.MaxPages, plan.PageDelay); err != nil {
			return &Report{}, err
		}
	}

	delay := plan.Delay
	if delay < 0 {
		delay = p.adapter.DetailDelay()
	}
	p.log.Info("scraping pending jobs", "count", len(p.results.pending), "delay", delay)
	return p.ScrapeAllPending(ctx, delay)
}
