package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/jobscout/models"
)

func TestLinkedIn(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Attributes
	}{
		{
			name: "hybrid full-time entry level",
			text: "Hybrid · Full-time · Entry level",
			want: Attributes{models.Hybrid, models.FullTime, models.EntryLevel},
		},
		{
			name: "remote mid-senior",
			text: "Remote · Full-time · Mid-Senior level",
			want: Attributes{models.Remote, models.FullTime, models.MidSeniorLevel},
		},
		{
			name: "on-site contract internship",
			text: "On-site Contract Internship",
			want: Attributes{models.Onsite, models.Contract, models.Internship},
		},
		{
			name: "temporary wins over contract",
			text: "Contract · Temporary",
			want: Attributes{EmploymentType: models.Temporary},
		},
		{
			name: "non-breaking space in level",
			text: "Part-time · Entry\u00a0level",
			want: Attributes{EmploymentType: models.PartTime, ExperienceLevel: models.EntryLevel},
		},
		{
			name: "director and executive",
			text: "Director",
			want: Attributes{ExperienceLevel: models.Director},
		},
		{
			name: "nothing recognised",
			text: "flexible hours, great team",
			want: Attributes{},
		},
		{
			name: "empty",
			text: "",
			want: Attributes{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LinkedIn(tt.text))
		})
	}
}

func TestRemoteAlwaysWins(t *testing.T) {
	for _, text := range []string{
		"Remote",
		"Hybrid Remote",
		"On-site or Remote",
		"Hybrid · On-site · Remote · Full-time",
	} {
		assert.Equal(t, models.Remote, LinkedIn(text).WorkArrangement, text)
		assert.Equal(t, models.Remote, Indeed(text).WorkArrangement, text)
	}
}

func TestIndeed(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Attributes
	}{
		{"hybrid full-time", "€50,000 a year - Full-time · Hybrid work", Attributes{WorkArrangement: models.Hybrid, EmploymentType: models.FullTime}},
		{"part-time only", "Part-time", Attributes{EmploymentType: models.PartTime}},
		{"no default to onsite", "£30,000 a year", Attributes{}},
		{"experience never set", "Remote · Entry level · Internship", Attributes{WorkArrangement: models.Remote}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indeed(tt.text))
		})
	}
}

func TestAttributesApply(t *testing.T) {
	rec := models.NewJobRecord("1", "t", "d")
	LinkedIn("Remote · Contract · Associate").Apply(&rec)

	assert.Equal(t, models.Remote, rec.WorkArrangement())
	assert.Equal(t, models.Contract, rec.EmploymentType())
	assert.Equal(t, models.Associate, rec.ExperienceLevel())
}
