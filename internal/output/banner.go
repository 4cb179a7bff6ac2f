package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Banner frames a title and body lines in a rounded box. Plain printers get
// the same layout drawn without color.
func (p *Printer) Banner(title string, lines ...string) {
	titleStyle := NewPlainStyleProvider().GetStyle(string(SemanticTitle))
	if p.IsStylable() {
		titleStyle = p.styleProvider.GetStyle(string(SemanticTitle))
	}

	body := append([]string{titleStyle.Render(title), ""}, lines...)
	width := 0
	for _, line := range body {
		if w := ansi.StringWidth(line); w > width {
			width = w
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2).
		Width(width + 4)
	if p.IsStylable() {
		box = box.BorderForeground(lipgloss.Color("#7D56F4"))
	}
	p.Println(box.Render(strings.Join(body, "\n")))
}

// StripANSI removes escape sequences, for tests and plain logs.
func StripANSI(text string) string {
	return ansi.Strip(text)
}
