package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/jobscout/classify"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
)

const (
	indeedTitle       = "h1"
	indeedDescription = "#jobDescriptionText"
	indeedJobType     = "#salaryInfoAndJobType"
	indeedNextPage    = `a[data-testid="pagination-page-next"]`
)

// Indeed scrapes one regional Indeed site.
type Indeed struct {
	country Country
	profile Profile
	log     *slog.Logger
}

var _ Adapter = (*Indeed)(nil)

// NewIndeed returns the adapter for country. Unknown countries use the
// Irish site.
func NewIndeed(country Country, log *slog.Logger) *Indeed {
	if log == nil {
		log = slog.Default()
	}
	if _, ok := countries[country]; !ok {
		country = DefaultCountry
	}
	return &Indeed{
		country: country,
		profile: Profile{
			IDSelector:  "li a[data-jk]",
			IDAttribute: "data-jk",
			DetailPath:  "/viewjob?jk=",
			Root:        country.RootDomain(),
		},
		log: log.With("site", "indeed", "country", string(country)),
	}
}

// Country is the regional site this adapter targets.
func (i *Indeed) Country() Country { return i.country }

func (i *Indeed) Name() string                     { return "indeed" }
func (i *Indeed) IDSelector() string               { return i.profile.IDSelector }
func (i *Indeed) IDAttribute() string              { return i.profile.IDAttribute }
func (i *Indeed) RootDomain() string               { return i.profile.Root }
func (i *Indeed) DetailURL(id, root string) string { return i.profile.DetailURL(id, root) }
func (i *Indeed) AuthCookieName() string           { return "PPID" }
func (i *Indeed) DetailDelay() time.Duration       { return CautiousDelay }

func (i *Indeed) SearchURL(keywords, location string) string {
	return i.profile.Root + "/jobs?q=" + keywords + "&l=" + location
}

func (i *Indeed) ExtractDetail(ctx context.Context, p *query.Page) (Detail, error) {
	var d Detail
	var err error

	if d.Title, err = p.InnerText(ctx, indeedTitle); err != nil {
		return Detail{}, err
	}
	if d.Description, err = p.InnerText(ctx, indeedDescription); err != nil {
		return Detail{}, err
	}
	if d.DescriptionHTML, err = query.Optional(p.InnerHTML(ctx, indeedDescription)); err != nil {
		return Detail{}, err
	}
	if d.Metadata, err = query.Optional(p.InnerText(ctx, indeedJobType)); err != nil {
		return Detail{}, err
	}
	if d.Metadata == "" {
		i.log.Debug("no salary or job type block on detail page")
	}
	return d, nil
}

func (i *Indeed) Classify(metadata string) classify.Attributes {
	return classify.Indeed(metadata)
}

func (i *Indeed) HasNextPage(ctx context.Context, p *query.Page) bool {
	return p.Exists(ctx, indeedNextPage)
}

func (i *Indeed) GoToNextPage(ctx context.Context, p *query.Page) error {
	err := p.Click(ctx, indeedNextPage)
	if models.IsElementNotFound(err) {
		i.log.Info("no next page to go to", "reason", err.Error())
		return nil
	}
	return err
}
