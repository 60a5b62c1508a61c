// Package ui formats operator-facing output of the configurator shell.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Success marks completed operations.
	Success = Formatter{color.New(color.FgGreen), "", ""}
	// Error marks failures.
	Error = Formatter{color.New(color.FgRed), "", ""}
	// Warning marks problems the operator can fix.
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	// Info marks hints.
	Info = Formatter{color.New(color.FgCyan), "", ""}
	// Highlight marks field paths and values. Quoted without colour.
	Highlight = Formatter{color.New(color.FgYellow, color.Bold), "'", "'"}
	// Muted marks secondary text.
	Muted = Formatter{color.New(color.FgHiBlack), "", ""}
)
