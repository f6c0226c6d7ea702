// Command jobscout-scrape runs one scrape session from the command line and
// writes the records as JSON.
//
//	jobscout-scrape -site linkedin -keywords "go engineer" -location Dublin -out jobs.json
//	jobscout-scrape -site indeed -country uk -ids pending.json -static -out jobs.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/jobscout/browser"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/export"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/pipeline"
	"github.com/use-agent/jobscout/site"
)

type options struct {
	site      string
	country   string
	keywords  string
	location  string
	idsFile   string
	cookie    string
	maxPages  int
	delay     time.Duration
	pageDelay time.Duration
	format    string
	out       string
	stream    string
	pending   string
	static    bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var o options
	flag.StringVar(&o.site, "site", cfg.Sites.Default, "job board: "+fmt.Sprint(site.Names()))
	flag.StringVar(&o.country, "country", cfg.Sites.IndeedCountry, "Indeed country code or name")
	flag.StringVar(&o.keywords, "keywords", "", "search keywords")
	flag.StringVar(&o.location, "location", "", "search location")
	flag.StringVar(&o.idsFile, "ids", "", "JSON file of job IDs to scrape instead of searching")
	flag.StringVar(&o.cookie, "cookie", "", "sign-in cookie value (li_at / PPID)")
	flag.IntVar(&o.maxPages, "max-pages", cfg.Scraper.MaxPages, "results pages to walk, 0 for all")
	flag.DurationVar(&o.delay, "delay", -1, "delay between detail pages, negative for the site preset")
	flag.DurationVar(&o.pageDelay, "page-delay", 0, "delay between results pages")
	flag.StringVar(&o.format, "format", cfg.Scraper.DescriptionFormat, "description format: text or markdown")
	flag.StringVar(&o.out, "out", "jobs.json", "output file for the scraped records")
	flag.StringVar(&o.stream, "stream", "", "also append each record to this JSON Lines file as it is scraped")
	flag.StringVar(&o.pending, "pending", "", "write unscraped IDs to this file")
	flag.BoolVar(&o.static, "static", false, "fetch pages over HTTP instead of driving Chromium")
	flag.Parse()

	initLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, o); err != nil {
		slog.Error("scrape failed", "error", err, "code", models.CodeOf(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, o options) error {
	adapter, err := site.New(o.site, o.country, slog.Default())
	if err != nil {
		return err
	}

	plan := pipeline.Plan{
		Cookie:    o.cookie,
		Keywords:  o.keywords,
		Location:  o.location,
		MaxPages:  o.maxPages,
		Delay:     o.delay,
		PageDelay: o.pageDelay,
	}
	if o.idsFile != "" {
		if plan.IDs, err = export.LoadIDs(o.idsFile); err != nil {
			return err
		}
		if len(plan.IDs) == 0 {
			return models.NewScrapeError(models.ErrCodeInvalidInput, "no ids in "+o.idsFile, nil)
		}
	} else if plan.Keywords == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "either -keywords or -ids is required", nil)
	}

	session, closeSession, err := openSession(ctx, cfg, o.static)
	if err != nil {
		return err
	}
	defer closeSession()

	opts := []pipeline.Option{
		pipeline.WithLogger(slog.Default()),
		pipeline.WithGovernor(pipeline.NewGovernor(cfg.Scraper.Jitter)),
		pipeline.WithDescriptionFormat(o.format),
	}
	if o.stream != "" {
		opts = append(opts, pipeline.WithObserver(func(rec models.JobRecord) {
			if err := export.AppendRecord(o.stream, rec); err != nil {
				slog.Warn("failed to stream record", "id", rec.ID(), "error", err)
			}
		}))
	}
	p := pipeline.New(adapter, session, opts...)

	report, runErr := p.Run(ctx, plan)

	// Partial results are written even when the run stopped early.
	if err := export.SaveRecords(o.out, p.Results()); err != nil {
		return err
	}
	if o.pending != "" {
		if err := export.SaveIDs(o.pending, p.PendingIDs()); err != nil {
			return err
		}
	}
	slog.Info("scrape finished",
		"site", adapter.Name(),
		"scraped", len(report.Scraped),
		"failures", len(report.Failures),
		"pending", len(p.PendingIDs()),
		"out", o.out,
	)
	return runErr
}

// openSession returns either an HTTP-backed static session or a page in a
// freshly launched browser.
func openSession(ctx context.Context, cfg *config.Config, static bool) (browser.Session, func(), error) {
	if static {
		f := browser.NewHTTPFetcher(cfg.Browser.DefaultProxy, cfg.Scraper.NavigationTimeout)
		s := browser.NewStaticSession(f, slog.Default())
		return s, func() { _ = s.Close() }, nil
	}

	launcher, err := browser.Launch(cfg.Browser, cfg.Scraper, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	s, err := launcher.NewSession(ctx)
	if err != nil {
		launcher.Close()
		return nil, nil, err
	}
	return s, func() {
		_ = s.Close()
		launcher.Close()
	}, nil
}

func initLogger(cfg config.LogConfig) {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
