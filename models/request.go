package models

// SessionRequest is the payload for POST /api/v1/sessions.
type SessionRequest struct {
	// Site is the board to scrape ("linkedin", "indeed"). Default: the
	// server's configured default site.
	Site string `json:"site,omitempty"`

	// Country picks the Indeed regional site (code or English name).
	Country string `json:"country,omitempty"`

	// Keywords and Location drive the search. Required unless IDs is set.
	Keywords string `json:"keywords,omitempty"`
	Location string `json:"location,omitempty"`

	// IDs scrapes these jobs directly, skipping the search.
	IDs []string `json:"ids,omitempty" binding:"omitempty,max=500"`

	// Cookie is the sign-in cookie value (li_at for LinkedIn, PPID for
	// Indeed). Default: the server's configured cookie for the site.
	Cookie string `json:"cookie,omitempty"`

	// MaxPages caps results pages walked. 0 uses the server default.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=0,max=100"`

	// DelayMs separates detail pages. Omitted uses the site's preset.
	DelayMs *int `json:"delay_ms,omitempty" binding:"omitempty,min=0"`

	// PageDelayMs separates results pages.
	PageDelayMs int `json:"page_delay_ms,omitempty" binding:"omitempty,min=0"`

	// DescriptionFormat is "text" (default) or "markdown".
	DescriptionFormat string `json:"description_format,omitempty" binding:"omitempty,oneof=text markdown"`

	// WebhookURL receives session.completed / session.failed /
	// session.canceled events.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs webhook payloads (HMAC-SHA256).
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Validate checks constraints binding tags cannot express.
func (r *SessionRequest) Validate() error {
	if len(r.IDs) == 0 && r.Keywords == "" {
		return NewScrapeError(ErrCodeInvalidInput, "either keywords or ids is required", nil)
	}
	for _, id := range r.IDs {
		if id == "" {
			return NewScrapeError(ErrCodeInvalidInput, "ids must not contain empty strings", nil)
		}
	}
	return nil
}

// ClassifyRequest is the payload for POST /api/v1/classify.
type ClassifyRequest struct {
	// Site selects the rule set. Default: "linkedin".
	Site string `json:"site,omitempty"`

	// Text is the metadata line, e.g. "Remote · Full-time · Mid-Senior level".
	Text string `json:"text"`
}
