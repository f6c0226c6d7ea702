package site

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/jobscout/classify"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
)

const (
	linkedInTitle       = "main h1"
	linkedInDescription = "#job-details"
	linkedInInsight     = "li.job-details-jobs-unified-top-card__job-insight.job-details-jobs-unified-top-card__job-insight--highlight"
	linkedInActivePage  = "[data-test-pagination-page-btn].active.selected"
)

// LinkedIn scrapes linkedin.com job posts. Search results need a signed-in
// session (li_at cookie).
type LinkedIn struct {
	profile Profile
	log     *slog.Logger
}

var _ Adapter = (*LinkedIn)(nil)

// NewLinkedIn returns the LinkedIn adapter.
func NewLinkedIn(log *slog.Logger) *LinkedIn {
	if log == nil {
		log = slog.Default()
	}
	return &LinkedIn{
		profile: Profile{
			IDSelector:  "[data-occludable-job-id]",
			IDAttribute: "data-occludable-job-id",
			DetailPath:  "/jobs/view/",
			Root:        "https://linkedin.com",
		},
		log: log.With("site", "linkedin"),
	}
}

func (l *LinkedIn) Name() string                     { return "linkedin" }
func (l *LinkedIn) IDSelector() string               { return l.profile.IDSelector }
func (l *LinkedIn) IDAttribute() string              { return l.profile.IDAttribute }
func (l *LinkedIn) RootDomain() string               { return l.profile.Root }
func (l *LinkedIn) DetailURL(id, root string) string { return l.profile.DetailURL(id, root) }
func (l *LinkedIn) AuthCookieName() string           { return "li_at" }
func (l *LinkedIn) DetailDelay() time.Duration       { return QuickDelay }

func (l *LinkedIn) SearchURL(keywords, location string) string {
	return l.profile.Root + "/jobs/search/?keywords=" + keywords + "&location=" + location
}

func (l *LinkedIn) ExtractDetail(ctx context.Context, p *query.Page) (Detail, error) {
	var d Detail
	var err error

	if d.Title, err = p.Text(ctx, linkedInTitle); err != nil {
		return Detail{}, err
	}
	if d.Description, err = p.InnerText(ctx, linkedInDescription); err != nil {
		return Detail{}, err
	}
	if d.DescriptionHTML, err = query.Optional(p.InnerHTML(ctx, linkedInDescription)); err != nil {
		return Detail{}, err
	}
	if d.Metadata, err = query.Optional(p.InnerText(ctx, linkedInInsight)); err != nil {
		return Detail{}, err
	}
	if d.Metadata == "" {
		l.log.Debug("no insight line on detail page")
	}
	return d, nil
}

func (l *LinkedIn) Classify(metadata string) classify.Attributes {
	return classify.LinkedIn(metadata)
}

// nextPageSelector finds the page button numbered one past the active one.
func (l *LinkedIn) nextPageSelector(ctx context.Context, p *query.Page) (string, error) {
	current, err := p.InnerText(ctx, linkedInActivePage)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(strings.TrimSpace(current))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeElementNotFound,
			fmt.Sprintf("active page button reads %q, not a number", current), err)
	}
	return fmt.Sprintf("[data-test-pagination-page-btn='%d']", n+1), nil
}

func (l *LinkedIn) HasNextPage(ctx context.Context, p *query.Page) bool {
	sel, err := l.nextPageSelector(ctx, p)
	if err != nil {
		return false
	}
	return p.Exists(ctx, sel)
}

func (l *LinkedIn) GoToNextPage(ctx context.Context, p *query.Page) error {
	sel, err := l.nextPageSelector(ctx, p)
	if err == nil {
		err = p.Click(ctx, sel)
	}
	if models.IsElementNotFound(err) {
		l.log.Info("no next page to go to", "reason", err.Error())
		return nil
	}
	return err
}
