package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/jobscout/browser"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/pipeline"
	"github.com/use-agent/jobscout/site"
	"github.com/use-agent/jobscout/webhook"
)

// SessionFactory opens a fresh browser session for one scrape session.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// Sessions runs scrape sessions in the background and keeps their state
// queryable until SessionTTL after they finish.
type Sessions struct {
	store      sync.Map // id -> *sessionEntry
	newSession SessionFactory
	cfg        *config.Config
	notifier   *webhook.Notifier
	sem        chan struct{}
	active     atomic.Int32
	log        *slog.Logger
	stop       chan struct{}
	closeOnce  sync.Once
}

type sessionEntry struct {
	mu     sync.Mutex
	view   models.Session
	cancel context.CancelFunc
}

func (e *sessionEntry) snapshot() models.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.view
	v.Records = slices.Clone(v.Records)
	v.Failures = slices.Clone(v.Failures)
	v.Pending = slices.Clone(v.Pending)
	if v.Records == nil {
		v.Records = []models.JobRecord{}
	}
	return v
}

// NewSessions creates the session store and starts its expiry loop.
func NewSessions(factory SessionFactory, cfg *config.Config, notifier *webhook.Notifier, log *slog.Logger) *Sessions {
	if log == nil {
		log = slog.Default()
	}
	maxSessions := cfg.Server.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1
	}
	s := &Sessions{
		newSession: factory,
		cfg:        cfg,
		notifier:   notifier,
		sem:        make(chan struct{}, maxSessions),
		log:        log,
		stop:       make(chan struct{}),
	}
	go s.expireLoop()
	return s
}

// expireLoop drops finished sessions older than SessionTTL.
func (s *Sessions) expireLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.expire(time.Now())
		}
	}
}

func (s *Sessions) expire(now time.Time) {
	cutoff := now.Add(-s.cfg.Server.SessionTTL).Unix()
	s.store.Range(func(key, value any) bool {
		v := value.(*sessionEntry).snapshot()
		if v.Done() && v.FinishedAt < cutoff {
			s.store.Delete(key)
		}
		return true
	})
}

// Active is the number of sessions currently holding a browser.
func (s *Sessions) Active() int { return int(s.active.Load()) }

// Max is the concurrency limit.
func (s *Sessions) Max() int { return cap(s.sem) }

// Close cancels running sessions and stops the expiry loop.
func (s *Sessions) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.store.Range(func(_, value any) bool {
			value.(*sessionEntry).cancel()
			return true
		})
	})
}

// Post returns a handler for POST /api/v1/sessions.
func (s *Sessions) Post() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		name := req.Site
		if name == "" {
			name = s.cfg.Sites.Default
		}
		country := req.Country
		if country == "" {
			country = s.cfg.Sites.IndeedCountry
		}
		adapter, err := site.New(name, country, s.log)
		if err != nil {
			respondError(c, err)
			return
		}

		id := uuid.NewString()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Scraper.SessionTimeout)
		entry := &sessionEntry{
			view: models.Session{
				ID:        id,
				Site:      adapter.Name(),
				Status:    models.SessionRunning,
				CreatedAt: time.Now().Unix(),
			},
			cancel: cancel,
		}
		s.store.Store(id, entry)

		go s.run(ctx, cancel, entry, adapter, req)

		c.JSON(http.StatusAccepted, models.SessionResponse{ID: id, Status: models.SessionRunning})
	}
}

// Get returns a handler for GET /api/v1/sessions/:id.
func (s *Sessions) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, ok := s.lookup(c.Param("id"))
		if !ok {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "session not found", nil))
			return
		}
		c.JSON(http.StatusOK, entry.snapshot())
	}
}

// Delete returns a handler for DELETE /api/v1/sessions/:id. Cancellation
// is cooperative: the session stops before its next page visit.
func (s *Sessions) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, ok := s.lookup(c.Param("id"))
		if !ok {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "session not found", nil))
			return
		}
		entry.cancel()
		v := entry.snapshot()
		c.JSON(http.StatusAccepted, models.SessionResponse{ID: v.ID, Status: v.Status})
	}
}

func (s *Sessions) lookup(id string) (*sessionEntry, bool) {
	val, ok := s.store.Load(id)
	if !ok {
		return nil, false
	}
	return val.(*sessionEntry), true
}

func (s *Sessions) run(ctx context.Context, cancel context.CancelFunc, entry *sessionEntry, adapter site.Adapter, req models.SessionRequest) {
	defer cancel()
	log := s.log.With("session_id", entry.view.ID, "site", adapter.Name())

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		s.finish(entry, req, nil, nil, ctx.Err())
		return
	}
	defer func() { <-s.sem }()

	s.active.Add(1)
	defer s.active.Add(-1)

	bs, err := s.newSession(ctx)
	if err != nil {
		log.Error("failed to open browser session", "error", err)
		s.finish(entry, req, nil, nil, err)
		return
	}
	defer bs.Close()

	format := req.DescriptionFormat
	if format == "" {
		format = s.cfg.Scraper.DescriptionFormat
	}
	p := pipeline.New(adapter, bs,
		pipeline.WithLogger(log),
		pipeline.WithGovernor(pipeline.NewGovernor(s.cfg.Scraper.Jitter)),
		pipeline.WithDescriptionFormat(format),
		pipeline.WithObserver(func(rec models.JobRecord) {
			entry.mu.Lock()
			entry.view.Records = append(entry.view.Records, rec)
			entry.view.Attempted = len(entry.view.Records) + len(entry.view.Failures)
			entry.mu.Unlock()
		}),
	)

	report, err := p.Run(ctx, s.plan(adapter, req))
	s.finish(entry, req, report, p.PendingIDs(), err)
}

func (s *Sessions) plan(adapter site.Adapter, req models.SessionRequest) pipeline.Plan {
	plan := pipeline.Plan{
		Cookie:    req.Cookie,
		Keywords:  req.Keywords,
		Location:  req.Location,
		IDs:       req.IDs,
		MaxPages:  req.MaxPages,
		Delay:     -1,
		PageDelay: time.Duration(req.PageDelayMs) * time.Millisecond,
	}
	if plan.Cookie == "" {
		switch adapter.Name() {
		case "linkedin":
			plan.Cookie = s.cfg.Sites.LinkedInCookie
		case "indeed":
			plan.Cookie = s.cfg.Sites.IndeedCookie
		}
	}
	if plan.MaxPages == 0 {
		plan.MaxPages = s.cfg.Scraper.MaxPages
	}
	if req.DelayMs != nil {
		plan.Delay = time.Duration(*req.DelayMs) * time.Millisecond
	}
	return plan
}

// finish records the outcome and fires the webhook, if any.
func (s *Sessions) finish(entry *sessionEntry, req models.SessionRequest, report *pipeline.Report, pending []string, err error) {
	entry.mu.Lock()
	if report != nil {
		entry.view.Records = report.Scraped
		entry.view.Failures = report.Failures
		entry.view.Attempted = report.Attempted
	}
	entry.view.Pending = pending
	entry.view.FinishedAt = time.Now().Unix()

	event := webhook.SessionCompleted
	switch {
	case err == nil:
		entry.view.Status = models.SessionCompleted
	case errors.Is(err, context.Canceled):
		entry.view.Status = models.SessionCanceled
		entry.view.Error = toScrapeError(err).ToDetail()
		event = webhook.SessionCanceled
	default:
		entry.view.Status = models.SessionFailed
		entry.view.Error = toScrapeError(err).ToDetail()
		event = webhook.SessionFailed
	}
	entry.mu.Unlock()

	v := entry.snapshot()
	s.log.Info("session finished",
		"session_id", v.ID,
		"status", v.Status,
		"scraped", len(v.Records),
		"failures", len(v.Failures),
		"pending", len(v.Pending),
	)

	if req.WebhookURL != "" && s.notifier != nil {
		s.notifier.SendAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(event, v.ID, v))
	}
}
