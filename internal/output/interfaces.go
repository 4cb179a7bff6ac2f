// Package output renders Specter responses and status messages to the console.
// Styling is injected through a StyleProvider so the printer itself stays plain.
package output

// StyleProvider supplies styles for semantic output types. Printers fall back
// to plain text when no provider is available.
type StyleProvider interface {
	// GetStyle returns the style for a semantic type such as "info" or "title".
	GetStyle(semantic string) TextStyle

	// IsAvailable reports whether the provider can style output.
	IsAvailable() bool

	// GetThemeType returns "dark", "light" or "auto" for markdown rendering.
	GetThemeType() string
}

// TextStyle renders text with styling. lipgloss.Style satisfies it.
type TextStyle interface {
	Render(text string) string
}

// Mode selects how a printer renders.
type Mode int

const (
	// ModeAuto styles output when a provider is available.
	ModeAuto Mode = iota

	// ModeStyled forces styled output.
	ModeStyled

	// ModePlain forces plain text.
	ModePlain

	// ModeJSON writes one JSON object per message.
	ModeJSON
)

// SemanticType is the meaning of a piece of output.
type SemanticType string

const (
	// SemanticPlain is unstyled text.
	SemanticPlain SemanticType = "plain"
	// SemanticInfo is informational text.
	SemanticInfo SemanticType = "info"
	// SemanticSuccess marks completed work.
	SemanticSuccess SemanticType = "success"
	// SemanticWarning marks degraded behaviour.
	SemanticWarning SemanticType = "warning"
	// SemanticError marks failures.
	SemanticError SemanticType = "error"

	// SemanticTitle is a heading such as the startup banner.
	SemanticTitle SemanticType = "title"
	// SemanticMuted is secondary text such as hints.
	SemanticMuted SemanticType = "muted"
	// SemanticResponse is an assistant reply.
	SemanticResponse SemanticType = "response"
)
