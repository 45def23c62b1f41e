package normalizer

import "strings"

// Category labels.
const (
	CategoryWetlands    = "Wetlands"
	CategoryWaterfowl   = "Waterfowl"
	CategoryEndangered  = "Endangered Species"
	CategoryPublicLand  = "Public Land"
	CategoryPolicy      = "Policy"
	CategoryCourts      = "Courts"
	CategoryLegislature = "Legislature"
)

// Keyword-derived tags.
const (
	TagWetlands      = "wetlands"
	TagWaterfowl     = "waterfowl"
	TagESA           = "ESA"
	TagCleanWaterAct = "Clean Water Act"
	TagPublicLand    = "public land"
	TagHunting       = "hunting regs"
)

// Provenance tags lead every item's tag list.
const (
	TagPrimarySource = "primary source"
	TagLitigation    = "litigation"
	TagLegislation   = "legislation"
	TagDocket        = "docket"
)

// keywordRule maps lower-case substrings to a tag.
type keywordRule struct {
	tag      string
	keywords []string
}

// keywordTable is ordered; tags are emitted in this order.
var keywordTable = []keywordRule{
	{tag: TagWetlands, keywords: []string{"wetland"}},
	{tag: TagWaterfowl, keywords: []string{"waterfowl", "duck", "goose"}},
	{tag: TagESA, keywords: []string{"endangered species", "esa"}},
	{tag: TagCleanWaterAct, keywords: []string{"clean water act", "cwa"}},
	{tag: TagPublicLand, keywords: []string{"public land", "blm", "forest service"}},
	{tag: TagHunting, keywords: []string{"hunting"}},
}

// categoryPriority decides the category from the first matching tag.
// Clean Water Act and hunting tags never promote to a category.
var categoryPriority = []struct {
	tag      string
	category string
}{
	{TagWetlands, CategoryWetlands},
	{TagWaterfowl, CategoryWaterfowl},
	{TagESA, CategoryEndangered},
	{TagPublicLand, CategoryPublicLand},
}

// Classification is the result of keyword inference.
type Classification struct {
	Category string
	Tags     []string
}

// Categorize infers tags and a category from free text by substring
// matching. It is a pure function of text.
func Categorize(text string) Classification {
	t := strings.ToLower(text)

	tags := []string{}

	for _, rule := range keywordTable {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}

	category := CategoryPolicy

	for _, p := range categoryPriority {
		if containsTag(tags, p.tag) {
			category = p.category
			break
		}
	}

	return Classification{Category: category, Tags: tags}
}

// withDefault swaps the generic Policy category for a source-specific label.
func (c Classification) withDefault(label string) string {
	if c.Category == CategoryPolicy {
		return label
	}

	return c.Category
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}

	return false
}
