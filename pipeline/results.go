package pipeline

import (
	"slices"

	"github.com/use-agent/jobscout/models"
)

// ResultSet is the ordered output of a pipeline plus the IDs it has
// collected but not yet scraped. It belongs to one Pipeline and is not
// safe for concurrent use.
type ResultSet struct {
	records []models.JobRecord
	pending []string
}

func (r *ResultSet) add(rec models.JobRecord) {
	r.records = append(r.records, rec)
}

func (r *ResultSet) addPending(ids ...string) {
	r.pending = append(r.pending, ids...)
}

// markDone drops the first pending occurrence of id, if any.
func (r *ResultSet) markDone(id string) {
	if i := slices.Index(r.pending, id); i >= 0 {
		r.pending = slices.Delete(r.pending, i, i+1)
	}
}

// Records returns a copy of the scraped records in scrape order.
func (r *ResultSet) Records() []models.JobRecord {
	return slices.Clone(r.records)
}

// Pending returns a copy of the unscraped IDs in collection order.
func (r *ResultSet) Pending() []string {
	return slices.Clone(r.pending)
}

// Len is the number of scraped records.
func (r *ResultSet) Len() int { return len(r.records) }

// Report summarises one batch.
type Report struct {
	Scraped   []models.JobRecord     `json:"scraped"`
	Failures  []models.RecordFailure `json:"failures,omitempty"`
	Attempted int                    `json:"attempted"`
}

func (r *Report) fail(id string, err error) {
	f := models.RecordFailure{ID: id, Code: models.CodeOf(err), Message: err.Error()}
	r.Failures = append(r.Failures, f)
}
