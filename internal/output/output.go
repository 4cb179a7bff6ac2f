package output

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
)

var (
	globalPrinter *Printer
	globalMu      sync.RWMutex
)

func init() {
	globalPrinter = NewPrinter()
}

// SetGlobalPrinter replaces the global printer.
func SetGlobalPrinter(printer *Printer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalPrinter = printer
}

// GetGlobalPrinter returns the global printer.
func GetGlobalPrinter() *Printer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalPrinter
}

// ConfigureGlobal rebuilds the global printer with options.
func ConfigureGlobal(options ...Option) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalPrinter = NewPrinter(options...)
}

func current() *Printer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalPrinter
}

// Println writes a line with the global printer.
func Println(text string) {
	current().Println(text)
}

// Info writes informational text with the global printer.
func Info(text string) {
	current().Info(text)
}

// Success writes success text with the global printer.
func Success(text string) {
	current().Success(text)
}

// Warning writes warning text with the global printer.
func Warning(text string) {
	current().Warning(text)
}

// Error writes error text with the global printer.
func Error(text string) {
	current().Error(text)
}

// IsTerminal reports whether stdout is a character device.
func IsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == os.ModeCharDevice
}

// SupportsColor reports whether stdout is a terminal that renders color.
func SupportsColor() bool {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal() {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// NewConsolePrinter builds the interactive printer: themed and markdown-aware
// on color terminals, plain otherwise.
func NewConsolePrinter(options ...Option) *Printer {
	if !SupportsColor() {
		return NewPrinter(append([]Option{PlainText()}, options...)...)
	}
	theme := DetectTheme()
	opts := []Option{WithStyles(theme)}
	if md, err := NewMarkdownRenderer(theme.GetThemeType(), DefaultWrap); err == nil {
		opts = append(opts, WithMarkdown(md))
	}
	return NewPrinter(append(opts, options...)...)
}
