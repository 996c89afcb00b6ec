package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Terminal color sequences
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of the terminal attached to f, or
// fallback when f is not a terminal.
func TerminalWidth(f *os.File, fallback int) int {
	if !IsTerminal(f) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// Colorize wraps text in the given color when enabled.
func Colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return fmt.Sprintf("%s%s%s", color, text, ColorReset)
}

// GetDisplayWidth calculates the actual display width of a string, accounting for emojis
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// TruncateWidth cuts text to at most width terminal cells without splitting
// wide characters.
func TruncateWidth(text string, width int) string {
	return runewidth.Truncate(text, width, "")
}

// TruncateRunes shortens text longer than limit runes to keep runes followed
// by tail. Text of limit runes or fewer is returned unchanged.
func TruncateRunes(text string, limit, keep int, tail string) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	return string(runes[:keep]) + tail
}

// Rule returns a horizontal rule of width copies of ch.
func Rule(ch string, width int) string {
	return strings.Repeat(ch, width)
}
