// Package models defines the raw source records and the canonical news item.
package models

import "time"

// Status is a point-in-time triage label assigned at ingestion.
type Status string

// Status values.
const (
	StatusWatch    Status = "watch"
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// SourceType is the coarse kind of origin.
type SourceType string

// SourceType values.
const (
	SourceTypeCourt       SourceType = "court"
	SourceTypeRulemaking  SourceType = "rulemaking"
	SourceTypeAgency      SourceType = "agency"
	SourceTypeLegislature SourceType = "legislature"
	SourceTypeMedia       SourceType = "media"
)

// Human-readable source names carried on every item.
const (
	SourceFederalRegister = "Federal Register"
	SourceCourtListener   = "CourtListener"
	SourceRegulations     = "Regulations.gov"
	SourceOpenStates      = "OpenStates"
)

// Sources lists the source names in feed concatenation order.
var Sources = []string{
	SourceFederalRegister,
	SourceCourtListener,
	SourceRegulations,
	SourceOpenStates,
}

// NewsItem is the normalized, source-agnostic record produced by the pipeline.
// Items are never mutated after construction.
type NewsItem struct {
	Date       time.Time  `json:"date"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Source     string     `json:"source"`
	SourceType SourceType `json:"sourceType,omitempty"`
	Status     Status     `json:"status"`
	Summary    string     `json:"summary"`
	Link       string     `json:"link"`
	Agency     string     `json:"agency,omitempty"`
	Tags       []string   `json:"tags"`
}

// HasTag reports whether tag is one of the item's tags.
func (n NewsItem) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}

	return false
}
