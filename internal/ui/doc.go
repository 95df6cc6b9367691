// Package ui styles terminal output of the discover CLI with [lipgloss].
//
// Output is plain text when the writer is not a terminal, so it is safe to pipe.
package ui
