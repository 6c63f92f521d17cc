package model

import (
	"strings"
	"time"
)

type JobType string

const (
	JobTypeIntern JobType = "Intern"
	JobTypeFTE    JobType = "FTE"
)

func (t JobType) Valid() bool {
	return t == JobTypeIntern || t == JobTypeFTE
}

// Degree is one programme a listing is open for.
type Degree string

const (
	DegreeBTech Degree = "BTech"
	DegreeIDD   Degree = "IDD"
	DegreeMTech Degree = "MTech"
)

var Degrees = []Degree{DegreeBTech, DegreeIDD, DegreeMTech}

func (d Degree) Valid() bool {
	for _, known := range Degrees {
		if d == known {
			return true
		}
	}
	return false
}

// Listing is one company's hiring announcement at one institute.
// Optional text fields use "" for absent.
type Listing struct {
	ID                string    `json:"id" db:"id"`
	CompanyName       string    `json:"company_name" db:"company_name"`
	Institute         string    `json:"institute" db:"institute"`
	JobType           JobType   `json:"job_type" db:"job_type"`
	Stipend           string    `json:"stipend" db:"stipend"`
	Role              string    `json:"role,omitempty" db:"role"`
	HRDetails         string    `json:"hr_details,omitempty" db:"hr_details"`
	Eligibility       []Degree  `json:"eligibility" db:"eligibility"`
	PPTDate           string    `json:"ppt_date,omitempty" db:"ppt_date"`
	OADate            string    `json:"oa_date,omitempty" db:"oa_date"`
	FinalHiringNumber *int      `json:"final_hiring_number,omitempty" db:"final_hiring_number"`
	ScreenshotURL     string    `json:"screenshot_url,omitempty" db:"screenshot_url"`
	CreatedBy         string    `json:"created_by" db:"created_by"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CompanyKey is the case-folded company name listings are grouped by.
func (l Listing) CompanyKey() string {
	return strings.ToLower(l.CompanyName)
}

// CompanyGroup aggregates all listings sharing a case-folded company name.
// It is derived and never persisted.
type CompanyGroup struct {
	CompanyName string    `json:"company_name"`
	Listings    []Listing `json:"listings"`
}

// Institutes returns the institutes of the group's listings in listing order.
func (g CompanyGroup) Institutes() []string {
	out := make([]string, 0, len(g.Listings))
	for _, l := range g.Listings {
		out = append(out, l.Institute)
	}
	return out
}

func JoinEligibility(degrees []Degree, sep string) string {
	parts := make([]string, len(degrees))
	for i, d := range degrees {
		parts[i] = string(d)
	}
	return strings.Join(parts, sep)
}

// ParseEligibility splits a comma separated degree list, dropping blanks.
// Unknown values are kept so validation can report them.
func ParseEligibility(s string) []Degree {
	var out []Degree
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, Degree(part))
	}
	return out
}
