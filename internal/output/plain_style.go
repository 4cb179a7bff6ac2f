package output

import "fmt"

// PlainTextStyle renders text with an optional marker prefix.
type PlainTextStyle struct {
	prefix string
}

// NewPlainTextStyle creates a plain style with prefix.
func NewPlainTextStyle(prefix string) *PlainTextStyle {
	return &PlainTextStyle{prefix: prefix}
}

// Render returns text behind the prefix.
func (p *PlainTextStyle) Render(text string) string {
	if p.prefix != "" {
		return p.prefix + text
	}
	return text
}

// PlainStyleProvider marks semantic types with text prefixes instead of color.
type PlainStyleProvider struct {
	available bool
}

// NewPlainStyleProvider creates a plain style provider.
func NewPlainStyleProvider() *PlainStyleProvider {
	return &PlainStyleProvider{available: true}
}

// GetStyle returns the prefix style for semantic.
func (p *PlainStyleProvider) GetStyle(semantic string) TextStyle {
	switch semantic {
	case "success":
		return NewPlainTextStyle("✓ ")
	case "warning":
		return NewPlainTextStyle("⚠ ")
	case "error":
		return NewPlainTextStyle("✗ ")
	case "info":
		return NewPlainTextStyle("ℹ ")
	default:
		return NewPlainTextStyle("")
	}
}

// IsAvailable implements StyleProvider.
func (p *PlainStyleProvider) IsAvailable() bool {
	return p.available
}

// GetThemeType implements StyleProvider.
func (p *PlainStyleProvider) GetThemeType() string {
	return "auto"
}

func (p *PlainStyleProvider) String() string {
	return fmt.Sprintf("PlainStyleProvider{available: %t}", p.available)
}
