// Package viewmodel derives the company-grouped, searchable, sortable
// projection of listings shown on the "all listings" page.
//
// State values are immutable snapshots: every operation returns a new
// State and never mutates slices reachable from its receiver.
package viewmodel

import (
	"sort"
	"strings"

	"placement-portal/internal/model"
	"placement-portal/pkg/errors"
)

type SortField string

const (
	SortNone        SortField = ""
	SortCompanyName SortField = "companyName"
	SortPPTDate     SortField = "pptDate"
	SortOADate      SortField = "oaDate"
	SortStipend     SortField = "stipend"
)

var SortFields = []SortField{SortCompanyName, SortPPTDate, SortOADate, SortStipend}

func (f SortField) Valid() bool {
	for _, known := range SortFields {
		if f == known {
			return true
		}
	}
	return false
}

// ParseSortField accepts the camelCase field names used by the UI and
// their snake_case JSON spellings.
func ParseSortField(s string) (SortField, error) {
	switch strings.TrimSpace(s) {
	case "companyName", "company_name":
		return SortCompanyName, nil
	case "pptDate", "ppt_date":
		return SortPPTDate, nil
	case "oaDate", "oa_date":
		return SortOADate, nil
	case "stipend":
		return SortStipend, nil
	}
	return SortNone, errors.ErrUnknownSortField
}

type SortDirection string

const (
	DirectionNone SortDirection = ""
	Ascending     SortDirection = "asc"
	Descending    SortDirection = "desc"
)

func (d SortDirection) flip() SortDirection {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

type State struct {
	All           []model.Listing
	Grouped       []model.CompanyGroup
	View          []model.CompanyGroup
	Query         string
	SortKey       SortField
	SortDirection SortDirection
}

// Empty reports the "no listings found" display state.
func (s State) Empty() bool {
	return len(s.View) == 0
}

// ListingCount is the number of listings across all groups in View.
func (s State) ListingCount() int {
	n := 0
	for _, g := range s.View {
		n += len(g.Listings)
	}
	return n
}

// Load replaces the record set, regroups it and re-applies the current
// query and sort. Query and sort state are kept.
func (s State) Load(records []model.Listing) State {
	next := s
	next.All = append([]model.Listing(nil), records...)
	next.Grouped = Group(next.All)
	next.View = derive(next.Grouped, next.Query, next.SortKey, next.SortDirection)
	return next
}

// SetQuery filters Grouped by case-folded company name prefix. The filter
// always starts from Grouped, so successive queries never compound.
func (s State) SetQuery(text string) State {
	next := s
	next.Query = strings.ToLower(text)
	next.View = derive(next.Grouped, next.Query, next.SortKey, next.SortDirection)
	return next
}

// ToggleSort flips the direction on every call, whether or not field is
// the active key, then stable-sorts the currently displayed View. Sorts
// therefore compound on the previous visible order.
func (s State) ToggleSort(field SortField) State {
	if !field.Valid() {
		return s
	}

	next := s
	next.SortKey = field
	next.SortDirection = s.SortDirection.flip()
	next.View = Sort(s.View, field, next.SortDirection)
	return next
}

func derive(grouped []model.CompanyGroup, query string, key SortField, dir SortDirection) []model.CompanyGroup {
	view := Filter(grouped, query)
	if key != SortNone && dir != DirectionNone {
		view = Sort(view, key, dir)
	}
	return view
}

// Group buckets listings by case-folded company name. Groups appear in
// the order their company is first seen; a group keeps the casing of its
// first listing and its listings keep arrival order.
func Group(records []model.Listing) []model.CompanyGroup {
	index := make(map[string]int)
	var groups []model.CompanyGroup

	for _, l := range records {
		key := l.CompanyKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.CompanyGroup{CompanyName: l.CompanyName})
		}
		groups[i].Listings = append(groups[i].Listings, l)
	}

	return groups
}

// Filter returns the groups whose case-folded name starts with query.
// query is expected to be lowercase already. An empty query keeps all groups.
func Filter(groups []model.CompanyGroup, query string) []model.CompanyGroup {
	out := make([]model.CompanyGroup, 0, len(groups))
	for _, g := range groups {
		if query == "" || strings.HasPrefix(strings.ToLower(g.CompanyName), query) {
			out = append(out, g)
		}
	}
	return out
}

// Sort returns a stably sorted copy of groups. Values compare as plain
// strings, so "9" sorts after "10" and missing values ("") sort first
// in ascending order.
func Sort(groups []model.CompanyGroup, field SortField, dir SortDirection) []model.CompanyGroup {
	out := append([]model.CompanyGroup(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := SortValue(out[i], field), SortValue(out[j], field)
		if dir == Descending {
			return a > b
		}
		return a < b
	})
	return out
}

// SortValue is the value a group is ordered by. Listing fields come from
// the group's first listing.
func SortValue(g model.CompanyGroup, field SortField) string {
	if field == SortCompanyName {
		return g.CompanyName
	}
	if len(g.Listings) == 0 {
		return ""
	}

	first := g.Listings[0]
	switch field {
	case SortPPTDate:
		return first.PPTDate
	case SortOADate:
		return first.OADate
	case SortStipend:
		return first.Stipend
	}
	return ""
}
