package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	HeaderColor      tcell.Color
	OnlineColor      tcell.Color
	IdleColor        tcell.Color
	SelfColor        tcell.Color
	StatusBgColor    tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		HeaderColor:      tcell.ColorWhite,
		OnlineColor:      tcell.ColorLimeGreen,
		IdleColor:        tcell.ColorGray,
		SelfColor:        tcell.ColorFuchsia,
		StatusBgColor:    tcell.ColorDarkSlateGray,
	}
}

// Tag renders c as a tview color tag.
func Tag(c tcell.Color) string {
	return "[" + c.String() + "]"
}
