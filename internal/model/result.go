package model

import "time"

// Source identifies which retrieval adapter produced a candidate.
type Source string

const (
	SourceSemantic   Source = "semantic"
	SourceStructured Source = "structured"
)

// PropertySnapshot holds the attributes needed for display and dedup,
// captured at retrieval time.
type PropertySnapshot struct {
	PropertyID   int64      `json:"property_id" db:"property_id"`
	Title        string     `json:"title" db:"title"`
	Location     *string    `json:"location,omitempty" db:"location"`
	PropertyType *string    `json:"property_type,omitempty" db:"property_type"`
	Price        *float64   `json:"price,omitempty" db:"price"`
	Bedrooms     *int       `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms    *int       `json:"bathrooms,omitempty" db:"bathrooms"`
	AreaSqft     *float64   `json:"area_sqft,omitempty" db:"area_sqft"`
	ListedDate   *time.Time `json:"listed_date,omitempty" db:"listed_date"`
	URL          *string    `json:"url,omitempty" db:"url"`
}

// CandidateResult is a single source's raw hit before fusion. RawScore is
// only meaningful relative to other hits from the same source.
type CandidateResult struct {
	Source     Source           `json:"source"`
	PropertyID int64            `json:"property_id"`
	RawScore   float64          `json:"raw_score"`
	Property   PropertySnapshot `json:"property"`
}

// FusedResult is a deduplicated, cross-source-scored result. Never mutated
// after construction; re-ranking builds new values.
type FusedResult struct {
	PropertyID int64            `json:"property_id"`
	Score      float64          `json:"score"`
	Sources    []Source         `json:"sources"`
	Rank       int              `json:"rank"`
	Property   PropertySnapshot `json:"property"`
}

// HasSource reports whether the given source contributed to this result.
func (f *FusedResult) HasSource(s Source) bool {
	for _, src := range f.Sources {
		if src == s {
			return true
		}
	}
	return false
}
