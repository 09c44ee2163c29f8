package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hirmes/hirmes/internal/results"
)

// NoResultsText is shown in place of a table for an empty result set.
const NoResultsText = "No results."

// TableOptions controls RenderTable.
type TableOptions struct {
	// Width fixes the table width; zero sizes to content.
	Width int
	// Rows limits and orders the rendered rows by index into the view. Nil
	// renders every row.
	Rows []int
	// Selected is the index into the view of the highlighted row, or -1.
	Selected int
	// MaxPath shortens the path column; zero leaves paths whole.
	MaxPath int
}

// RenderTable renders v as a bordered table.
func RenderTable(v results.View, s Styles, opts TableOptions) string {
	if v.Empty {
		return s.Dim.Render(NoResultsText)
	}

	order := opts.Rows
	if order == nil {
		order = make([]int, len(v.Rows))
		for i := range order {
			order[i] = i
		}
	}
	if len(order) == 0 {
		return s.Dim.Render(NoResultsText)
	}

	rows := make([][]string, 0, len(order))
	for _, i := range order {
		cells := v.Rows[i]
		if opts.MaxPath > 0 {
			cells = append([]string{truncatePath(cells[0], opts.MaxPath)}, cells[1:]...)
		}
		rows = append(rows, cells)
	}

	tagCol := -1
	if v.ShowTags {
		tagCol = len(v.Headers) - 1
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		BorderRow(true).
		Headers(v.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			if row >= 0 && row < len(order) && order[row] == opts.Selected {
				return s.Selected
			}
			if col == tagCol {
				return tagStyle(s, rows[row][col])
			}
			return s.Cell
		})
	if opts.Width > 0 {
		t = t.Width(opts.Width)
	}
	return t.Render()
}

func tagStyle(s Styles, text string) lipgloss.Style {
	switch text {
	case results.TagLoadingText:
		return s.Cell.Foreground(lipgloss.Color(ColorYellow))
	case results.TagErrorText:
		return s.Cell.Foreground(lipgloss.Color(ColorRed))
	case results.TagEmptyText:
		return s.Cell.Foreground(lipgloss.Color(ColorGray))
	}
	return s.Cell
}

// truncatePath shortens path to maxLen keeping the file name.
func truncatePath(path string, maxLen int) string {
	if path == "" || len(path) <= maxLen {
		return path
	}

	parts := strings.Split(path, "/")
	if len(parts) == 1 {
		if maxLen < 4 {
			return "..."
		}
		return "..." + path[len(path)-maxLen+3:]
	}

	filename := parts[len(parts)-1]
	if len(filename)+4 > maxLen {
		if maxLen < 4 {
			return "..."
		}
		return "..." + filename[len(filename)-maxLen+3:]
	}

	remaining := maxLen - len(filename) - 4 // 4 for ".../"
	prefix := strings.Join(parts[:len(parts)-1], "/")
	if remaining <= 0 {
		return ".../" + filename
	}
	return "..." + prefix[len(prefix)-remaining:] + "/" + filename
}
