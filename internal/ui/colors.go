// Package ui styles terminal output for the CLI commands. Styling is
// disabled under NO_COLOR or when stdout is not a terminal.
package ui

import (
	"os"

	"golang.org/x/term"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"

	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

var enabled = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}()

func style(codes, s string) string {
	if !enabled {
		return s
	}
	return codes + s + colorReset
}

// Bold styles section headings.
func Bold(s string) string { return style(colorBold, s) }

// Success styles a completed-action line.
func Success(s string) string { return style(colorGreen, s) }

// Info styles a secondary hint line.
func Info(s string) string { return style(colorDim+colorYellow, s) }

// Error styles a failure line.
func Error(s string) string { return style(colorRed, s) }
