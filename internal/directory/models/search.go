package models

import "caredex/pkg/domain"

// SearchFilter narrows a provider listing. Zero values mean "no constraint".
type SearchFilter struct {
	Specialty string
	PlanID    domain.PlanID
	MinScore  *int
	Limit     int
}

// DefaultSearchLimit bounds unfiltered listings.
const DefaultSearchLimit = 50

// Normalize applies the default limit and bounds oversized requests.
func (f SearchFilter) Normalize() SearchFilter {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = DefaultSearchLimit
	}
	return f
}
