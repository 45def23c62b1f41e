// Package formatter renders the feed as markdown.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"blueduck/internal/models"
)

const (
	dateLayout    = "2006-01-02"
	maxTitleWidth = 90
)

// FormatTable renders items as a markdown table, one row per item in feed order.
func FormatTable(items []models.NewsItem) string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, []string{"Date", "Source", "Category", "Status", "Title"})

	for _, item := range items {
		rows = append(rows, []string{
			item.Date.UTC().Format(dateLayout),
			item.Source,
			item.Category,
			string(item.Status),
			runewidth.Truncate(item.Title, maxTitleWidth, "…"),
		})
	}

	return strings.Join(renderTable(rows), "\n") + "\n"
}

// AlignTables pads every markdown table in content so its columns line up by
// display width. Lines outside tables are left untouched.
func AlignTables(content string) string {
	lines := strings.Split(content, "\n")

	var out []string

	var tableBuffer []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Simple heuristic: a table row starts and ends with |
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			tableBuffer = append(tableBuffer, line)
			continue
		}

		if len(tableBuffer) > 0 {
			out = append(out, alignTable(tableBuffer)...)
			tableBuffer = nil
		}

		out = append(out, line)
	}

	if len(tableBuffer) > 0 {
		out = append(out, alignTable(tableBuffer)...)
	}

	return strings.Join(out, "\n")
}

// alignTable parses already rendered rows and renders them again aligned.
func alignTable(rows []string) []string {
	// A header needs a separator below it.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))

	for _, row := range rows {
		parts := strings.Split(row, "|")

		if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
			parts = parts[1:]
		}

		if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
			parts = parts[:len(parts)-1]
		}

		cells := make([]string, 0, len(parts))
		for _, p := range parts {
			cells = append(cells, strings.TrimSpace(p))
		}

		table = append(table, cells)
	}

	if !isSeparator(table[1]) {
		return rows
	}

	// The separator is regenerated from the column widths.
	return renderTable(append(table[:1:1], table[2:]...))
}

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" {
			return false
		}
	}

	return true
}

// renderTable renders a header row followed by body rows, padding each
// column to its widest cell. Pipes inside cells are escaped.
func renderTable(table [][]string) []string {
	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	cells := make([][]string, len(table))
	for i, row := range table {
		cells[i] = make([]string, colCount)
		for j := range row {
			cells[i][j] = escapeCell(row[j])
		}
	}

	// Minimum width fits the "---" separator.
	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = 3
	}

	for _, row := range cells {
		for j, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[j] {
				colWidths[j] = w
			}
		}
	}

	result := make([]string, 0, len(cells)+1)

	for i, row := range cells {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			sep := make([]string, colCount)
			for j := range sep {
				sep[j] = strings.Repeat("-", colWidths[j])
			}

			result = append(result, renderRow(sep, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, cell := range row {
		sb.WriteString(" ")
		sb.WriteString(cell)

		if padding := colWidths[j] - runewidth.StringWidth(cell); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

func escapeCell(cell string) string {
	cell = strings.Join(strings.Fields(cell), " ")

	if !strings.Contains(cell, "|") || strings.Contains(cell, `\|`) {
		return cell
	}

	return strings.ReplaceAll(cell, "|", `\|`)
}
