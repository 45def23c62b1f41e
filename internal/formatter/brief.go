package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"blueduck/internal/models"
	"blueduck/internal/normalizer"
)

// categoryOrder fixes the section order of the brief. Categories not listed
// here follow in alphabetical order.
var categoryOrder = []string{
	normalizer.CategoryWetlands,
	normalizer.CategoryWaterfowl,
	normalizer.CategoryEndangered,
	normalizer.CategoryPublicLand,
	normalizer.CategoryCourts,
	normalizer.CategoryLegislature,
	normalizer.CategoryPolicy,
}

// FormatBrief renders a markdown brief of items grouped by category. Items
// keep their feed order inside each section.
func FormatBrief(items []models.NewsItem, title string, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "_%s edition, generated %s_\n\n", now.UTC().Format("January 2006"), now.UTC().Format(dateLayout))

	if len(items) == 0 {
		sb.WriteString("No new items this period.\n")
		return sb.String()
	}

	sb.WriteString(sourceSummary(items))
	sb.WriteString("\n")

	groups := map[string][]models.NewsItem{}
	for _, item := range items {
		groups[item.Category] = append(groups[item.Category], item)
	}

	for _, category := range sectionOrder(groups) {
		fmt.Fprintf(&sb, "## %s\n\n", category)

		for _, item := range groups[category] {
			writeEntry(&sb, item)
		}
	}

	return sb.String()
}

func writeEntry(sb *strings.Builder, item models.NewsItem) {
	fmt.Fprintf(sb, "- **[%s](%s)**", escapeInline(item.Title), item.Link)

	meta := []string{item.Source, item.Date.UTC().Format(dateLayout), string(item.Status)}
	if item.Agency != "" {
		meta = append(meta, item.Agency)
	}

	fmt.Fprintf(sb, " (%s)\n", strings.Join(meta, ", "))

	if item.Summary != "" {
		fmt.Fprintf(sb, "  %s\n", escapeInline(item.Summary))
	}

	sb.WriteString("\n")
}

// sourceSummary renders an aligned table of item counts per source.
func sourceSummary(items []models.NewsItem) string {
	counts := map[string]int{}
	for _, item := range items {
		counts[item.Source]++
	}

	var sb strings.Builder

	sb.WriteString("| Source | Items |\n| --- | --- |\n")

	for _, name := range models.Sources {
		if n := counts[name]; n > 0 {
			fmt.Fprintf(&sb, "| %s | %d |\n", name, n)
			delete(counts, name)
		}
	}

	rest := make([]string, 0, len(counts))
	for name := range counts {
		rest = append(rest, name)
	}

	sort.Strings(rest)

	for _, name := range rest {
		fmt.Fprintf(&sb, "| %s | %d |\n", name, counts[name])
	}

	return AlignTables(sb.String())
}

func sectionOrder(groups map[string][]models.NewsItem) []string {
	order := make([]string, 0, len(groups))
	seen := map[string]bool{}

	for _, category := range categoryOrder {
		if _, ok := groups[category]; ok {
			order = append(order, category)
			seen[category] = true
		}
	}

	var rest []string

	for category := range groups {
		if !seen[category] {
			rest = append(rest, category)
		}
	}

	sort.Strings(rest)

	return append(order, rest...)
}

// escapeInline keeps titles from opening markdown link or emphasis syntax.
func escapeInline(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`).Replace(strings.Join(strings.Fields(s), " "))
}
