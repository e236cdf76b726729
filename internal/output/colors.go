package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Title   *color.Color
	Rule    *color.Color
	Value   *color.Color
	Success *color.Color
	Warn    *color.Color
	Error   *color.Color
	Muted   *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:   color.New(color.Bold),
		Rule:    color.New(color.FgCyan),
		Value:   color.New(color.FgCyan),
		Success: color.New(color.FgGreen),
		Warn:    color.New(color.FgYellow, color.Bold),
		Error:   color.New(color.FgRed, color.Bold),
		Muted:   color.New(color.Faint),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	// Disable all colors
	scheme.Title.DisableColor()
	scheme.Rule.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Warn.DisableColor()
	scheme.Error.DisableColor()
	scheme.Muted.DisableColor()

	return scheme
}

// SuccessIcon returns a checkmark symbol with appropriate color
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}
