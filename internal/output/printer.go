package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Printer writes semantic output in plain, styled or JSON form. It is safe for
// concurrent use, so reminder notices and replies never interleave mid-line.
type Printer struct {
	styleProvider StyleProvider
	markdown      *MarkdownRenderer
	writer        io.Writer
	mode          Mode
	forcePlain    bool
	testMode      bool
	silent        bool
	prefix        string

	mu sync.Mutex
}

// NewPrinter creates a printer writing to os.Stdout.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{
		writer: os.Stdout,
		mode:   ModeAuto,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Print writes text as is.
func (p *Printer) Print(text string) {
	p.output(SemanticPlain, text, false)
}

// Printf writes formatted text.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.output(SemanticPlain, fmt.Sprintf(format, args...), false)
}

// Println writes text and a newline.
func (p *Printer) Println(text string) {
	p.output(SemanticPlain, text, true)
}

// Info writes informational text.
func (p *Printer) Info(text string) {
	p.output(SemanticInfo, text, true)
}

// Success writes success text.
func (p *Printer) Success(text string) {
	p.output(SemanticSuccess, text, true)
}

// Warning writes warning text.
func (p *Printer) Warning(text string) {
	p.output(SemanticWarning, text, true)
}

// Error writes error text.
func (p *Printer) Error(text string) {
	p.output(SemanticError, text, true)
}

// Title writes a heading.
func (p *Printer) Title(text string) {
	p.output(SemanticTitle, text, true)
}

// Muted writes secondary text.
func (p *Printer) Muted(text string) {
	p.output(SemanticMuted, text, true)
}

// Response writes an assistant reply, rendering markdown when styled.
func (p *Printer) Response(text string) {
	p.output(SemanticResponse, text, true)
}

func (p *Printer) output(semantic SemanticType, text string, addNewline bool) {
	if p.silent {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var finalText string
	switch p.mode {
	case ModeJSON:
		finalText = p.renderJSON(semantic, text)
	case ModePlain, ModeAuto:
		finalText = p.renderText(semantic, text, addNewline)
	case ModeStyled:
		finalText = p.renderStyled(semantic, text, addNewline)
	}

	if p.prefix != "" {
		finalText = p.prefix + finalText
	}

	_, _ = fmt.Fprint(p.writer, finalText)
}

func (p *Printer) renderText(semantic SemanticType, text string, addNewline bool) string {
	var result string
	if p.IsStylable() {
		result = p.renderWith(p.styleProvider, semantic, text)
	} else {
		result = NewPlainStyleProvider().GetStyle(string(semantic)).Render(text)
	}
	if addNewline && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

func (p *Printer) renderStyled(semantic SemanticType, text string, addNewline bool) string {
	if p.styleProvider == nil || !p.styleProvider.IsAvailable() {
		return p.renderText(semantic, text, addNewline)
	}
	result := p.renderWith(p.styleProvider, semantic, text)
	if addNewline && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

func (p *Printer) renderWith(provider StyleProvider, semantic SemanticType, text string) string {
	if semantic == SemanticResponse && p.markdown != nil && LooksLikeMarkdown(text) {
		if rendered, err := p.markdown.Render(text); err == nil {
			return rendered
		}
	}
	return provider.GetStyle(string(semantic)).Render(text)
}

func (p *Printer) renderJSON(semantic SemanticType, text string) string {
	data, err := json.Marshal(map[string]interface{}{
		"type":    semantic,
		"message": text,
	})
	if err != nil {
		return text + "\n"
	}
	return string(data) + "\n"
}

// SetWriter changes the output writer.
func (p *Printer) SetWriter(writer io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = writer
}

// SetMode changes the output mode.
func (p *Printer) SetMode(mode Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
}

// SetStyleProvider changes the style provider. nil disables styling.
func (p *Printer) SetStyleProvider(provider StyleProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styleProvider = provider
}

// IsStylable reports whether the printer applies styles.
func (p *Printer) IsStylable() bool {
	return !p.forcePlain && p.styleProvider != nil && p.styleProvider.IsAvailable()
}

// String describes the printer for debugging.
func (p *Printer) String() string {
	hasStyles := "no"
	if p.IsStylable() {
		hasStyles = "yes"
	}
	return fmt.Sprintf("Printer{mode: %v, styles: %s, writer: %T}", p.mode, hasStyles, p.writer)
}
