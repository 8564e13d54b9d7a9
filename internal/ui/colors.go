// Package ui provides terminal output helpers for pacdeck.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Muted   = color.New(color.FgHiBlack)

	// Colors for specific elements
	PackageName    = color.New(color.FgWhite, color.Bold)
	PackageVersion = color.New(color.FgGreen)
	UpdateVersion  = color.New(color.FgYellow, color.Bold)
	Installed      = color.New(color.FgGreen)
	NotInstalled   = color.New(color.FgHiBlack)
	StreamErr      = color.New(color.FgRed)
)

// Out receives results and informational messages; ErrOut receives errors
// and warnings so structured output on stdout stays parseable.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

// UseColors represents whether colors should be used.
var UseColors = true

// UseUnicode represents whether unicode symbols should be used.
var UseUnicode = true

// Symbols for status indicators
var (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "!"
	SymbolInfo    = "→"
	SymbolPending = "○"
	SymbolArrow   = "→"
)

// Init initializes the UI settings based on configuration.
func Init(useColors, useUnicode bool) {
	UseColors = useColors
	UseUnicode = useUnicode

	if !useColors || os.Getenv("NO_COLOR") != "" {
		UseColors = false
		color.NoColor = true
	}

	if !useUnicode {
		SymbolSuccess = "[OK]"
		SymbolError = "[ERROR]"
		SymbolWarning = "[WARN]"
		SymbolInfo = "->"
		SymbolPending = "[ ]"
		SymbolArrow = "->"
	}
}

// message writes one symbol-prefixed line. Nothing is written for an empty
// symbol other than the formatted text.
func message(w io.Writer, c *color.Color, symbol, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if symbol != "" {
		text = symbol + " " + text
	}
	c.Fprintln(w, text)
}

// SuccessMsg prints a success message.
func SuccessMsg(format string, args ...any) {
	message(Out, Success, SymbolSuccess, format, args...)
}

// ErrorMsg prints an error message to ErrOut.
func ErrorMsg(format string, args ...any) {
	message(ErrOut, Error, SymbolError, format, args...)
}

// WarningMsg prints a warning message to ErrOut.
func WarningMsg(format string, args ...any) {
	message(ErrOut, Warning, SymbolWarning, format, args...)
}

// InfoMsg prints an info message.
func InfoMsg(format string, args ...any) {
	message(Out, Info, SymbolInfo, format, args...)
}

// HeaderMsg prints a header preceded by a blank line.
func HeaderMsg(format string, args ...any) {
	fmt.Fprintln(Out)
	message(Out, Header, "", format, args...)
}

// MutedMsg prints a dim message.
func MutedMsg(format string, args ...any) {
	message(Out, Muted, "", format, args...)
}

// Bold returns a bold string.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Cyan returns a cyan string.
func Cyan(s string) string {
	return color.CyanString(s)
}
