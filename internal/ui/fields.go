package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one labelled line of a [Fields] block.
type Field struct {
	Label string
	Value string
}

// Fields renders label/value pairs with the labels padded to a common width.
func Fields(fields ...Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.Label))
	}

	label := styles.label.Width(width + 2)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(f.Label), f.Value))
	}
	return strings.Join(lines, "\n")
}
