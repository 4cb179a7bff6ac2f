package output

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the markdown word-wrap width.
const DefaultWrap = 80

var markdownPattern = regexp.MustCompile("(?m)^(#{1,6} |```)|\\*\\*[^*\\n]+\\*\\*|`[^`\\n]+`")

// MarkdownRenderer renders conversational replies, which models often write
// in markdown, for the terminal.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a glamour renderer for themeType ("dark",
// "light" or "auto") and falls back to the dark style.
func NewMarkdownRenderer(themeType string, width int) (*MarkdownRenderer, error) {
	if width <= 0 {
		width = DefaultWrap
	}

	var renderer *glamour.TermRenderer
	var err error
	if themeType == "dark" || themeType == "light" {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath(themeType),
			glamour.WithWordWrap(width),
		)
	}
	if renderer == nil || err != nil {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
			glamour.WithEnvironmentConfig(),
		)
	}
	if err != nil {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
	}
	return &MarkdownRenderer{renderer: renderer}, nil
}

// Render converts markdown to ANSI text without surrounding blank lines.
func (m *MarkdownRenderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("markdown content cannot be empty")
	}
	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.Trim(rendered, "\n"), nil
}

// LooksLikeMarkdown reports whether text uses headings, code or bold markers.
// Numbered lists alone do not count: module reports use them and are laid out
// by hand.
func LooksLikeMarkdown(text string) bool {
	return markdownPattern.MatchString(text)
}
