package normalizer

import (
	"sort"

	"blueduck/internal/logger"
	"blueduck/internal/models"
)

// Processor orders and filters the combined feed.
type Processor struct {
	validator *Validator
	logger    *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Discard()
	}

	return &Processor{
		validator: NewValidator(),
		logger:    log,
	}
}

// Process sorts items newest first and drops items without a link. The sort
// is stable, so items sharing a timestamp keep their input order. The input
// slice is not modified.
func (p *Processor) Process(items []models.NewsItem) []models.NewsItem {
	sorted := make([]models.NewsItem, len(items))
	copy(sorted, items)

	SortByDate(sorted)

	kept, rejected := p.validator.Filter(sorted)
	for _, r := range rejected {
		p.logger.Warn("dropping feed item", "id", r.ID, "source", r.Source, "reason", r.Reason)
	}

	return kept
}

// SortByDate sorts items in place by date, newest first, keeping ties in order.
func SortByDate(items []models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}
