package models

import (
	"encoding/json"
	"strings"
)

// WorkArrangement describes whether a role is remote, hybrid or on-site.
// The zero value means the job post did not say.
type WorkArrangement int

const (
	WorkArrangementUnset WorkArrangement = iota
	Remote
	Hybrid
	Onsite
)

var workArrangementNames = []string{"", "Remote", "Hybrid", "Onsite"}

func (w WorkArrangement) String() string {
	if w < 0 || int(w) >= len(workArrangementNames) {
		return ""
	}
	return workArrangementNames[w]
}

// ParseWorkArrangement matches raw against the member names, ignoring case.
// Unrecognised input yields WorkArrangementUnset.
func ParseWorkArrangement(raw string) WorkArrangement {
	return WorkArrangement(lookupName(workArrangementNames, raw))
}

// ExperienceLevel is the seniority requirement of a job post.
type ExperienceLevel int

const (
	ExperienceLevelUnset ExperienceLevel = iota
	Internship
	EntryLevel
	Associate
	MidSeniorLevel
	Director
	Executive
)

var experienceLevelNames = []string{"", "Internship", "EntryLevel", "Associate", "MidSeniorLevel", "Director", "Executive"}

func (e ExperienceLevel) String() string {
	if e < 0 || int(e) >= len(experienceLevelNames) {
		return ""
	}
	return experienceLevelNames[e]
}

// ParseExperienceLevel matches raw against the member names, ignoring case.
// Unrecognised input yields ExperienceLevelUnset.
func ParseExperienceLevel(raw string) ExperienceLevel {
	return ExperienceLevel(lookupName(experienceLevelNames, raw))
}

// EmploymentType is the contract type of a job post.
type EmploymentType int

const (
	EmploymentTypeUnset EmploymentType = iota
	Contract
	Temporary
	PartTime
	FullTime
)

var employmentTypeNames = []string{"", "Contract", "Temporary", "PartTime", "FullTime"}

func (t EmploymentType) String() string {
	if t < 0 || int(t) >= len(employmentTypeNames) {
		return ""
	}
	return employmentTypeNames[t]
}

// ParseEmploymentType matches raw against the member names, ignoring case.
// Unrecognised input yields EmploymentTypeUnset.
func ParseEmploymentType(raw string) EmploymentType {
	return EmploymentType(lookupName(employmentTypeNames, raw))
}

// lookupName returns the index of raw in names (case-insensitive), or 0.
// Index 0 is always the unset member and never matches.
func lookupName(names []string, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	for i := 1; i < len(names); i++ {
		if strings.EqualFold(names[i], raw) {
			return i
		}
	}
	return 0
}

// JobRecord is one scraped job post.
//
// ID, title and description are fixed at construction. The categorical
// fields may be set later; they only ever hold a known member or unset.
type JobRecord struct {
	id          string
	title       string
	description string

	workArrangement WorkArrangement
	experienceLevel ExperienceLevel
	employmentType  EmploymentType
}

// NewJobRecord builds a record with all categorical fields unset.
func NewJobRecord(id, title, description string) JobRecord {
	return JobRecord{id: id, title: title, description: description}
}

func (j JobRecord) ID() string          { return j.id }
func (j JobRecord) Title() string       { return j.title }
func (j JobRecord) Description() string { return j.description }

func (j JobRecord) WorkArrangement() WorkArrangement { return j.workArrangement }
func (j JobRecord) ExperienceLevel() ExperienceLevel { return j.experienceLevel }
func (j JobRecord) EmploymentType() EmploymentType   { return j.employmentType }

// SetWorkArrangement stores w, or unset when w is out of range.
func (j *JobRecord) SetWorkArrangement(w WorkArrangement) {
	j.workArrangement = ParseWorkArrangement(w.String())
}

// SetExperienceLevel stores e, or unset when e is out of range.
func (j *JobRecord) SetExperienceLevel(e ExperienceLevel) {
	j.experienceLevel = ParseExperienceLevel(e.String())
}

// SetEmploymentType stores t, or unset when t is out of range.
func (j *JobRecord) SetEmploymentType(t EmploymentType) {
	j.employmentType = ParseEmploymentType(t.String())
}

// SetWorkArrangementRaw normalises raw; unknown text clears the field.
func (j *JobRecord) SetWorkArrangementRaw(raw string) {
	j.workArrangement = ParseWorkArrangement(raw)
}

// SetExperienceLevelRaw normalises raw; unknown text clears the field.
func (j *JobRecord) SetExperienceLevelRaw(raw string) {
	j.experienceLevel = ParseExperienceLevel(raw)
}

// SetEmploymentTypeRaw normalises raw; unknown text clears the field.
func (j *JobRecord) SetEmploymentTypeRaw(raw string) {
	j.employmentType = ParseEmploymentType(raw)
}

// jobRecordJSON is the wire form. Unset enums are encoded as null.
type jobRecordJSON struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	WorkArrangement *string `json:"work_arrangement"`
	ExperienceLevel *string `json:"experience_level"`
	EmploymentType  *string `json:"employment_type"`
}

func (j JobRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(jobRecordJSON{
		ID:              j.id,
		Title:           j.title,
		Description:     j.description,
		WorkArrangement: nameOrNil(j.workArrangement.String()),
		ExperienceLevel: nameOrNil(j.experienceLevel.String()),
		EmploymentType:  nameOrNil(j.employmentType.String()),
	})
}

// UnmarshalJSON decodes the wire form, normalising enum values the same
// way the raw setters do.
func (j *JobRecord) UnmarshalJSON(data []byte) error {
	var w jobRecordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*j = NewJobRecord(w.ID, w.Title, w.Description)
	j.SetWorkArrangementRaw(deref(w.WorkArrangement))
	j.SetExperienceLevelRaw(deref(w.ExperienceLevel))
	j.SetEmploymentTypeRaw(deref(w.EmploymentType))
	return nil
}

func nameOrNil(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RecordFailure describes a job ID whose extraction failed during a batch.
type RecordFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
