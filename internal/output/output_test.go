package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterBasicOutput(t *testing.T) {
	buffer := NewCaptureBuffer()
	printer := NewPrinter(WithWriter(buffer), TestMode())

	printer.Print("hello")
	printer.Println("world")
	printer.Printf("number: %d", 42)

	assert.Equal(t, "helloworld\nnumber: 42", buffer.String())
}

func TestPrinterSemanticOutput(t *testing.T) {
	buffer := NewCaptureBuffer()
	printer := NewPrinter(WithWriter(buffer), TestMode())

	printer.Info("information")
	printer.Success("completed")
	printer.Warning("careful")
	printer.Error("failed")
	printer.Title("Specter")
	printer.Muted("hint")
	printer.Response("🎵 Playing: Song by Artist")

	assert.Equal(t, []string{
		"ℹ information",
		"✓ completed",
		"⚠ careful",
		"✗ failed",
		"Specter",
		"hint",
		"🎵 Playing: Song by Artist",
	}, buffer.Lines())
}

func TestPrinterStyleProviders(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		options   []Option
		want      string
	}{
		{"styled", true, nil, "[info]test message[/info]\n"},
		{"unavailable provider", false, nil, "ℹ test message\n"},
		{"plain forced", true, []Option{PlainText()}, "ℹ test message\n"},
		{"styled mode", true, []Option{WithMode(ModeStyled)}, "[info]test message[/info]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewMockStyleProvider()
			provider.SetAvailable(tt.available)
			buffer := NewCaptureBuffer()
			opts := append([]Option{WithWriter(buffer), WithStyles(provider)}, tt.options...)
			printer := NewPrinter(opts...)

			printer.Info("test message")
			assert.Equal(t, tt.want, buffer.String())
		})
	}
}

func TestPrinterJSONMode(t *testing.T) {
	buffer := NewCaptureBuffer()
	printer := NewPrinter(WithWriter(buffer), JSON())

	printer.Info("test message")
	printer.Response("hello")

	assert.Equal(t, []string{
		`{"message":"test message","type":"info"}`,
		`{"message":"hello","type":"response"}`,
	}, buffer.Lines())
}

func TestPrinterSilentAndPrefix(t *testing.T) {
	silent := NewCaptureBuffer()
	NewPrinter(WithWriter(silent), Silent()).Error("nothing")
	assert.Empty(t, silent.String())

	prefixed := NewCaptureBuffer()
	NewPrinter(WithWriter(prefixed), WithPrefix("⏰ "), TestMode()).Info("message")
	assert.Equal(t, "⏰ ℹ message\n", prefixed.String())
}

func TestPrinterRendersMarkdownResponses(t *testing.T) {
	md, err := NewMarkdownRenderer("dark", 60)
	require.NoError(t, err)

	buffer := NewCaptureBuffer()
	printer := NewPrinter(WithWriter(buffer), WithStyles(NewMockStyleProvider()), WithMarkdown(md))

	printer.Response("Here is **bold** advice")
	out := StripANSI(buffer.String())
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "[response]")

	buffer.Reset()
	printer.Response("1. report line")
	assert.Equal(t, "[response]1. report line[/response]\n", buffer.String())
}

func TestLooksLikeMarkdown(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"# Heading", true},
		{"use `go test`", true},
		{"this is **important**", true},
		{"```\ncode\n```", true},
		{"Found 2 files:\n\n1. a.txt\n   Location: /tmp", false},
		{"🌤️ Weather in Paris: 21°C", false},
		{"5 * 3 = 15", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeMarkdown(tt.text), tt.text)
	}
}

func TestMarkdownRendererRejectsEmpty(t *testing.T) {
	md, err := NewMarkdownRenderer("light", 0)
	require.NoError(t, err)
	_, err = md.Render("  ")
	assert.Error(t, err)
}

func TestThemes(t *testing.T) {
	theme := LoadTheme("default")
	assert.Equal(t, "default", theme.Name)
	assert.True(t, theme.IsAvailable())
	assert.Equal(t, "auto", theme.GetThemeType())
	assert.Equal(t, "text", StripANSI(theme.GetStyle("title").Render("text")))
	assert.Equal(t, "x", theme.GetStyle("unknown").Render("x"))

	plain := LoadTheme("missing")
	assert.Equal(t, "plain", plain.Name)
	assert.Equal(t, "text", plain.GetStyle("error").Render("text"))
}

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme([]byte(`
name: custom
styles:
  info:
    foreground:
      light: "#000000"
      dark: "#FFFFFF"
    bold: true
`))
	require.NoError(t, err)
	assert.Equal(t, "custom", theme.Name)
	assert.Equal(t, "hi", StripANSI(theme.GetStyle("info").Render("hi")))

	_, err = ParseTheme([]byte("styles: {}"))
	assert.Error(t, err)
	_, err = ParseTheme([]byte("name: [broken"))
	assert.Error(t, err)
}

func TestBanner(t *testing.T) {
	out := CaptureOutput(func(p *Printer) {
		p.Banner("Specter", "Modules: 8/10", "Type 'help'")
	})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.Contains(t, lines[1], "Specter")
	assert.Contains(t, lines[3], "Modules: 8/10")
	assert.True(t, strings.HasPrefix(lines[5], "╰"))
}

func TestGlobalFunctions(t *testing.T) {
	original := GetGlobalPrinter()
	defer SetGlobalPrinter(original)

	buffer := NewCaptureBuffer()
	ConfigureGlobal(WithWriter(buffer), TestMode())

	Println("world")
	Info("info message")
	Success("success message")
	Warning("warn")
	Error("boom")

	assert.Equal(t, []string{"world", "ℹ info message", "✓ success message", "⚠ warn", "✗ boom"}, buffer.Lines())
}

func TestCaptureBuffer(t *testing.T) {
	buffer := NewCaptureBuffer()
	assert.Empty(t, buffer.Lines())

	_, err := buffer.Write([]byte("line1\nline2\nline3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"line1", "line2", "line3"}, buffer.Lines())
	assert.True(t, buffer.Contains("line2"))
	assert.False(t, buffer.Contains("nonexistent"))

	buffer.Reset()
	assert.Empty(t, buffer.String())
}

func BenchmarkPrinterPlainOutput(b *testing.B) {
	buffer := &bytes.Buffer{}
	printer := NewPrinter(WithWriter(buffer), PlainText())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		printer.Info("benchmark message")
		buffer.Reset()
	}
}
