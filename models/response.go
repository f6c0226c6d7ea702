package models

// Session states.
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
	SessionCanceled  = "canceled"
)

// Session is the API view of one scrape session.
type Session struct {
	ID     string `json:"id"`
	Site   string `json:"site"`
	Status string `json:"status"`

	// Attempted counts detail pages tried so far, including failures.
	Attempted int `json:"attempted"`

	Records  []JobRecord     `json:"records"`
	Failures []RecordFailure `json:"failures,omitempty"`

	// Pending lists collected IDs that were not scraped. Set when the
	// session ends.
	Pending []string `json:"pending,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`

	CreatedAt  int64 `json:"created_at"`
	FinishedAt int64 `json:"finished_at,omitempty"`
}

// Done reports whether the session has reached a final state.
func (s *Session) Done() bool {
	return s.Status != SessionRunning
}

// SessionResponse acknowledges POST /api/v1/sessions.
type SessionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ClassifyResponse is the response for POST /api/v1/classify. Unset
// attributes are null.
type ClassifyResponse struct {
	WorkArrangement *string `json:"work_arrangement"`
	EmploymentType  *string `json:"employment_type"`
	ExperienceLevel *string `json:"experience_level"`
}

// SiteInfo describes one registered site adapter.
type SiteInfo struct {
	Name          string   `json:"name"`
	RootDomain    string   `json:"root_domain"`
	AuthCookie    string   `json:"auth_cookie"`
	DetailDelayMs int64    `json:"detail_delay_ms"`
	Countries     []string `json:"countries,omitempty"`
}

// SitesResponse is the response for GET /api/v1/sites.
type SitesResponse struct {
	Sites []SiteInfo `json:"sites"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    int    `json:"max_sessions"`
	Version        string `json:"version"`
}

// ErrorResponse wraps an error for API clients.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
