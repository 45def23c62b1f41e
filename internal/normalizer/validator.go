package normalizer

import "blueduck/internal/models"

// Rejection reasons.
const (
	ReasonEmptyLink = "empty link"
)

// Rejection records an item removed from the feed.
type Rejection struct {
	ID     string
	Source string
	Reason string
}

// Validator enforces the final feed invariants.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Filter keeps items with a non-empty link and reports the rest. Order is preserved.
func (v *Validator) Filter(items []models.NewsItem) ([]models.NewsItem, []Rejection) {
	kept := make([]models.NewsItem, 0, len(items))

	var rejected []Rejection

	for _, item := range items {
		if item.Link == "" {
			rejected = append(rejected, Rejection{ID: item.ID, Source: item.Source, Reason: ReasonEmptyLink})
			continue
		}

		kept = append(kept, item)
	}

	return kept, rejected
}
