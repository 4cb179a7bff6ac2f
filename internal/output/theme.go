package output

import (
	"fmt"
	"os"
	"strings"

	"specter/internal/data/embedded"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// styleConfig is one semantic entry of a theme file. Colors are either a
// string or a {light, dark} pair.
type styleConfig struct {
	Foreground interface{} `yaml:"foreground,omitempty"`
	Background interface{} `yaml:"background,omitempty"`
	Bold       bool        `yaml:"bold,omitempty"`
	Italic     bool        `yaml:"italic,omitempty"`
	Underline  bool        `yaml:"underline,omitempty"`
}

type themeFile struct {
	Name   string                 `yaml:"name"`
	Styles map[string]styleConfig `yaml:"styles"`
}

// Theme is a named set of lipgloss styles. It implements StyleProvider.
type Theme struct {
	Name      string
	styles    map[string]lipgloss.Style
	themeType string
}

// ParseTheme builds a theme from YAML.
func ParseTheme(data []byte) (*Theme, error) {
	var file themeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	if file.Name == "" {
		return nil, fmt.Errorf("theme file has no name")
	}

	theme := &Theme{Name: file.Name, styles: make(map[string]lipgloss.Style, len(file.Styles)), themeType: "auto"}
	for semantic, cfg := range file.Styles {
		theme.styles[semantic] = createStyle(cfg)
	}
	return theme, nil
}

// LoadTheme returns an embedded theme: "default" or "plain". Unknown names
// yield the plain theme.
func LoadTheme(name string) *Theme {
	data := embedded.PlainThemeData
	if strings.EqualFold(strings.TrimSpace(name), "default") {
		data = embedded.DefaultThemeData
	}
	theme, err := ParseTheme(data)
	if err != nil {
		return &Theme{Name: "plain", styles: map[string]lipgloss.Style{}, themeType: "auto"}
	}
	return theme
}

// DetectTheme picks the default theme when the terminal renders color and the
// plain theme otherwise. The theme type follows the terminal background.
func DetectTheme() *Theme {
	if os.Getenv("NO_COLOR") != "" || lipgloss.ColorProfile() == termenv.Ascii {
		return LoadTheme("plain")
	}
	theme := LoadTheme("default")
	theme.themeType = "light"
	if termenv.HasDarkBackground() {
		theme.themeType = "dark"
	}
	return theme
}

// GetStyle returns the style for semantic, or an empty style.
func (t *Theme) GetStyle(semantic string) TextStyle {
	if style, ok := t.styles[semantic]; ok {
		return lipglossTextStyle{style}
	}
	return lipglossTextStyle{lipgloss.NewStyle()}
}

// lipglossTextStyle adapts lipgloss.Style's variadic Render to TextStyle.
type lipglossTextStyle struct {
	lipgloss.Style
}

// Render implements TextStyle.
func (s lipglossTextStyle) Render(text string) string {
	return s.Style.Render(text)
}

// IsAvailable reports true; plain themes simply render text unchanged.
func (t *Theme) IsAvailable() bool {
	return true
}

// GetThemeType returns "dark", "light" or "auto".
func (t *Theme) GetThemeType() string {
	return t.themeType
}

func createStyle(cfg styleConfig) lipgloss.Style {
	style := lipgloss.NewStyle()
	if color := parseColor(cfg.Foreground); color != nil {
		style = style.Foreground(color)
	}
	if color := parseColor(cfg.Background); color != nil {
		style = style.Background(color)
	}
	if cfg.Bold {
		style = style.Bold(true)
	}
	if cfg.Italic {
		style = style.Italic(true)
	}
	if cfg.Underline {
		style = style.Underline(true)
	}
	return style
}

func parseColor(value interface{}) lipgloss.TerminalColor {
	switch v := value.(type) {
	case string:
		return lipgloss.Color(v)
	case map[string]interface{}:
		light, hasLight := v["light"].(string)
		dark, hasDark := v["dark"].(string)
		if hasLight && hasDark {
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
	}
	return nil
}
