package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each conversation occupies.
const linesPerItem = 2

// applyFilter narrows the list to conversations whose label, participants or
// chat identifier contain every word of the query, ignoring case.
func (m *model) applyFilter() {
	words := strings.Fields(strings.ToLower(m.query))
	m.results = m.results[:0:0]
	for _, it := range m.all {
		hay := strings.ToLower(it.conv.Label + " " + it.participants + " " + it.conv.Identifier)
		match := true
		for _, w := range words {
			if !strings.Contains(hay, w) {
				match = false
				break
			}
		}
		if match {
			m.results = append(m.results, it)
		}
	}
	m.cursor = 0
	m.listOffset = 0
	if len(m.results) == 0 {
		m.previewID = 0
		m.transcript = ""
		m.preview.SetContent("")
	}
}

// renderList renders the left panel with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No conversations")
	}

	var lines []string
	for i, it := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatItem(it, width, i == m.cursor)...)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatItem formats one conversation as two lines:
//
//	line 1: [>] label            count
//	line 2:    group  participants (dimmed)
func formatItem(it item, width int, selected bool) []string {
	count := strconv.Itoa(it.conv.MessageCount)
	labelMax := width - 2 - len(count) - 1
	if labelMax < 0 {
		labelMax = 0
	}
	label := runewidth.Truncate(it.conv.Label, labelMax, "…")
	pad := width - 2 - runewidth.StringWidth(label) - len(count)
	if pad < 1 {
		pad = 1
	}

	line1 := label + strings.Repeat(" ", pad) + styleCount.Render(count)
	if selected {
		line1 = styleListSelected.Render("> " + label) + strings.Repeat(" ", pad) + styleCount.Render(count)
	} else {
		line1 = "  " + line1
	}

	kind := styleKindDirect.Render("1:1  ")
	if it.conv.Group {
		kind = styleKindGroup.Render("group")
	}
	detail := strings.ReplaceAll(it.participants, "\n", " ")
	detailMax := width - 4 - 6
	if detailMax < 0 {
		detailMax = 0
	}
	detail = runewidth.Truncate(detail, detailMax, "…")
	line2 := fmt.Sprintf("    %s %s", kind, lipgloss.NewStyle().Foreground(colorDim).Render(detail))

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
