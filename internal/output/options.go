package output

import "io"

// Option configures a Printer.
type Option func(*Printer)

// WithStyles styles output with provider. Unavailable providers are ignored.
func WithStyles(provider StyleProvider) Option {
	return func(p *Printer) {
		if provider != nil && provider.IsAvailable() {
			p.styleProvider = provider
		}
	}
}

// WithWriter redirects output. The default is os.Stdout.
func WithWriter(writer io.Writer) Option {
	return func(p *Printer) {
		if writer != nil {
			p.writer = writer
		}
	}
}

// WithMode sets the output mode.
func WithMode(mode Mode) Option {
	return func(p *Printer) {
		p.mode = mode
	}
}

// WithMarkdown renders responses through renderer when output is styled.
func WithMarkdown(renderer *MarkdownRenderer) Option {
	return func(p *Printer) {
		p.markdown = renderer
	}
}

// PlainText ignores any StyleProvider.
func PlainText() Option {
	return func(p *Printer) {
		p.mode = ModePlain
		p.forcePlain = true
	}
}

// JSON writes structured output for scripting.
func JSON() Option {
	return func(p *Printer) {
		p.mode = ModeJSON
	}
}

// TestMode produces deterministic plain output regardless of the terminal.
func TestMode() Option {
	return func(p *Printer) {
		p.testMode = true
		p.mode = ModePlain
		p.forcePlain = true
	}
}

// Silent suppresses all output.
func Silent() Option {
	return func(p *Printer) {
		p.silent = true
	}
}

// WithPrefix prepends prefix to every message.
func WithPrefix(prefix string) Option {
	return func(p *Printer) {
		p.prefix = prefix
	}
}
