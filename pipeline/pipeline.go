// Package pipeline drives one browser session through a job board: search,
// collect job IDs from results pages, then visit each detail page and turn
// it into a models.JobRecord using the board's site.Adapter.
//
// A Pipeline is strictly sequential and holds no locks. Run several
// pipelines, each with its own session, for parallelism.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/jobscout/browser"
	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
	"github.com/use-agent/jobscout/site"
)

// Description formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Pipeline extracts job records from one site through one session.
type Pipeline struct {
	adapter  site.Adapter
	session  browser.Session
	page     *query.Page
	results  ResultSet
	governor *Governor
	log      *slog.Logger
	format   string
	md       *cleaner.Markdown
	observer func(models.JobRecord)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithGovernor replaces the default jitter-free governor.
func WithGovernor(g *Governor) Option {
	return func(p *Pipeline) { p.governor = g }
}

// WithDescriptionFormat selects "text" (innerText, the default) or
// "markdown" (converted from the description HTML).
func WithDescriptionFormat(format string) Option {
	return func(p *Pipeline) { p.format = format }
}

// WithObserver registers fn to be called with every scraped record, on
// the pipeline's goroutine.
func WithObserver(fn func(models.JobRecord)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// New returns a pipeline for adapter over session. The pipeline does not
// own the session and never closes it.
func New(adapter site.Adapter, session browser.Session, opts ...Option) *Pipeline {
	p := &Pipeline{
		adapter:  adapter,
		session:  session,
		page:     query.New(session),
		governor: &Governor{},
		format:   FormatText,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.log = p.log.With("site", adapter.Name())
	if p.format == FormatMarkdown {
		p.md = cleaner.NewMarkdown()
	}
	return p
}

// Adapter returns the site adapter the pipeline drives.
func (p *Pipeline) Adapter() site.Adapter { return p.adapter }

// Authenticate sets the sign-in cookie on the current site.
func (p *Pipeline) Authenticate(ctx context.Context, name, value string) error {
	if err := p.session.SetCookie(ctx, name, value); err != nil {
		return fmt.Errorf("pipeline: authenticate: %w", err)
	}
	return nil
}

// Initialise opens the site root, sets the sign-in cookie and reloads so
// the site sees the signed-in session.
func (p *Pipeline) Initialise(ctx context.Context, name, value string) error {
	if err := p.session.Navigate(ctx, p.adapter.RootDomain()); err != nil {
		return fmt.Errorf("pipeline: open %s: %w", p.adapter.RootDomain(), err)
	}
	if err := p.Authenticate(ctx, name, value); err != nil {
		return err
	}
	if err := p.session.Refresh(ctx); err != nil {
		return fmt.Errorf("pipeline: refresh after sign-in: %w", err)
	}
	p.log.Info("session initialised", "cookie", name)
	return nil
}

// Search opens the results page for keywords and location.
func (p *Pipeline) Search(ctx context.Context, keywords, location string) error {
	u := p.adapter.SearchURL(keywords, location)
	if err := p.session.Navigate(ctx, u); err != nil {
		return fmt.Errorf("pipeline: search: %w", err)
	}
	p.log.Info("search opened", "keywords", keywords, "location", location)
	return nil
}

// CollectIDs reads the job IDs on the current results page and appends
// them to the pending list. Repeated calls accumulate, duplicates
// included. It returns only this call's IDs.
func (p *Pipeline) CollectIDs(ctx context.Context) ([]string, error) {
	ids, err := p.page.Attributes(ctx, p.adapter.IDSelector(), p.adapter.IDAttribute())
	if err != nil {
		return nil, fmt.Errorf("pipeline: collect ids: %w", err)
	}
	p.results.addPending(ids...)
	p.log.Debug("collected job ids", "count", len(ids), "pending", len(p.results.pending))
	return ids, nil
}

// AddPending queues ids without visiting a results page.
func (p *Pipeline) AddPending(ids ...string) {
	p.results.addPending(ids...)
}

// ScrapeOne visits the detail page for id and records it.
func (p *Pipeline) ScrapeOne(ctx context.Context, id string) (models.JobRecord, error) {
	u := p.adapter.DetailURL(id, p.adapter.RootDomain())
	if err := p.session.Navigate(ctx, u); err != nil {
		return models.JobRecord{}, fmt.Errorf("pipeline: job %s: %w", id, err)
	}

	d, err := p.adapter.ExtractDetail(ctx, p.page)
	if err != nil {
		return models.JobRecord{}, fmt.Errorf("pipeline: job %s: %w", id, err)
	}

	rec := models.NewJobRecord(id, cleaner.NormalizeText(d.Title), p.description(d))
	p.adapter.Classify(d.Metadata).Apply(&rec)

	p.results.add(rec)
	p.results.markDone(id)
	p.log.Info("job scraped", "id", id, "title", rec.Title(),
		"work", rec.WorkArrangement().String(), "type", rec.EmploymentType().String())

	if p.observer != nil {
		p.observer(rec)
	}
	return rec, nil
}

func (p *Pipeline) description(d site.Detail) string {
	if p.md != nil && d.DescriptionHTML != "" {
		out, err := p.md.Convert(d.DescriptionHTML, p.adapter.RootDomain())
		if err == nil {
			return out
		}
		p.log.Warn("markdown conversion failed, keeping text", "error", err)
	}
	return cleaner.TrimLines(d.Description)
}

// ScrapeMany scrapes ids in order, pausing delay between consecutive
// attempts. A job whose page lacks a required element is recorded as a
// failure and skipped; any other error stops the batch. The report is
// always returned, partial when err is non-nil.
func (p *Pipeline) ScrapeMany(ctx context.Context, ids []string, delay time.Duration) (*Report, error) {
	report := &Report{}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if i > 0 {
			if err := p.governor.Wait(ctx, delay); err != nil {
				return report, err
			}
		}

		report.Attempted++
		rec, err := p.ScrapeOne(ctx, id)
		switch {
		case err == nil:
			report.Scraped = append(report.Scraped, rec)
		case models.IsElementNotFound(err):
			p.log.Warn("job skipped", "id", id, "error", err)
			report.fail(id, err)
		default:
			p.log.Error("batch aborted", "id", id, "attempted", report.Attempted, "error", err)
			report.fail(id, err)
			return report, err
		}
	}
	return report, nil
}

// ScrapeAllPending runs ScrapeMany over a snapshot of the pending list.
func (p *Pipeline) ScrapeAllPending(ctx context.Context, delay time.Duration) (*Report, error) {
	return p.ScrapeMany(ctx, p.results.Pending(), delay)
}

// CollectAcrossPages collects IDs from the current results page and then
// from each following page, up to maxPages pages in total (zero or less
// means no limit). pageDelay separates page turns. It stops early when a
// page yields no IDs, which also guards against a next control that does
// not actually move.
func (p *Pipeline) CollectAcrossPages(ctx context.Context, maxPages int, pageDelay time.Duration) ([]string, error) {
	all, err := p.CollectIDs(ctx)
	if err != nil {
		return nil, err
	}

	pag := NewPaginator(p.adapter, p.page)
	for pages := 1; maxPages <= 0 || pages < maxPages; pages++ {
		if !pag.HasNext(ctx) {
			break
		}
		if err := p.governor.Wait(ctx, pageDelay); err != nil {
			return all, err
		}
		moved, err := pag.AdvanceIfPossible(ctx)
		if err != nil {
			return all, fmt.Errorf("pipeline: next page: %w", err)
		}
		if !moved {
			break
		}

		ids, err := p.CollectIDs(ctx)
		if err != nil {
			return all, err
		}
		if len(ids) == 0 {
			p.log.Info("results page has no jobs, stopping", "page", pages+1)
			break
		}
		all = append(all, ids...)
	}
	return all, nil
}

// Results returns a copy of the scraped records.
func (p *Pipeline) Results() []models.JobRecord { return p.results.Records() }

// PendingIDs returns a copy of the IDs not yet scraped.
func (p *Pipeline) PendingIDs() []string { return p.results.Pending() }
