// Package classify maps the free-text metadata line shown near a job
// post's header ("Remote · Full-time · Mid-Senior level") to categorical
// attributes.
//
// Matching is ordered substring containment per category, first match
// wins, and categories are independent. Text that matches nothing leaves
// the category unset.
package classify

import (
	"strings"

	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/models"
)

// Attributes is the classifier output. Zero values mean unset.
type Attributes struct {
	WorkArrangement models.WorkArrangement
	EmploymentType  models.EmploymentType
	ExperienceLevel models.ExperienceLevel
}

// Apply copies the attributes onto rec.
func (a Attributes) Apply(rec *models.JobRecord) {
	rec.SetWorkArrangement(a.WorkArrangement)
	rec.SetEmploymentType(a.EmploymentType)
	rec.SetExperienceLevel(a.ExperienceLevel)
}

// Func is a site-specific classifier.
type Func func(text string) Attributes

type rule[T any] struct {
	needle string
	value  T
}

func firstMatch[T any](text string, rules []rule[T]) T {
	for _, r := range rules {
		if strings.Contains(text, r.needle) {
			return r.value
		}
	}
	var unset T
	return unset
}

var (
	linkedInWork = []rule[models.WorkArrangement]{
		{"Remote", models.Remote},
		{"Hybrid", models.Hybrid},
		{"On-site", models.Onsite},
	}
	linkedInEmployment = []rule[models.EmploymentType]{
		{"Temporary", models.Temporary},
		{"Contract", models.Contract},
		{"Full-time", models.FullTime},
		{"Part-time", models.PartTime},
	}
	linkedInExperience = []rule[models.ExperienceLevel]{
		{"Internship", models.Internship},
		{"Entry level", models.EntryLevel},
		{"Associate", models.Associate},
		{"Mid-Senior level", models.MidSeniorLevel},
		{"Director", models.Director},
		{"Executive", models.Executive},
	}

	indeedWork = []rule[models.WorkArrangement]{
		{"Remote", models.Remote},
		{"Hybrid", models.Hybrid},
	}
	indeedEmployment = []rule[models.EmploymentType]{
		{"Full-time", models.FullTime},
		{"Part-time", models.PartTime},
		{"Contract", models.Contract},
		{"Temporary", models.Temporary},
	}
)

// LinkedIn classifies the insight line of a LinkedIn job detail page.
// All three categories are surfaced there.
func LinkedIn(text string) Attributes {
	text = cleaner.NormalizeText(text)
	return Attributes{
		WorkArrangement: firstMatch(text, linkedInWork),
		EmploymentType:  firstMatch(text, linkedInEmployment),
		ExperienceLevel: firstMatch(text, linkedInExperience),
	}
}

// Indeed classifies the salary/job-type block of an Indeed detail page.
// Indeed does not show seniority there, so ExperienceLevel is never set.
func Indeed(text string) Attributes {
	text = cleaner.NormalizeText(text)
	return Attributes{
		WorkArrangement: firstMatch(text, indeedWork),
		EmploymentType:  firstMatch(text, indeedEmployment),
	}
}
