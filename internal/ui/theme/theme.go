// Package theme holds the colors shared by every view.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Accent    = lipgloss.Color("#7D56F4")
	Text      = lipgloss.Color("#FFFFFF")
	Muted     = lipgloss.Color("#828282")
	Highlight = lipgloss.Color("#CCCCCC")
	Error     = lipgloss.Color("#FF0000")
	OK        = lipgloss.Color("#32CD32")
	Warn      = lipgloss.Color("#FFD700")
	Bar       = lipgloss.Color("#333333")
	Offline   = lipgloss.Color("#8B0000")
)

// Centered places content in the middle of a w by h area.
func Centered(w, h int, content string) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, content)
}
