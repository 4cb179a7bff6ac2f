package output

import (
	"bytes"
	"strings"
	"sync"
)

// CaptureBuffer is a concurrency-safe writer for capturing output in tests.
type CaptureBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCaptureBuffer creates an empty capture buffer.
func NewCaptureBuffer() *CaptureBuffer {
	return &CaptureBuffer{}
}

// Write implements io.Writer.
func (c *CaptureBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns everything captured so far.
func (c *CaptureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Lines splits the captured output into lines without the trailing newline.
func (c *CaptureBuffer) Lines() []string {
	content := c.String()
	if content == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// Reset clears the buffer.
func (c *CaptureBuffer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}

// Contains reports whether the captured output contains text.
func (c *CaptureBuffer) Contains(text string) bool {
	return strings.Contains(c.String(), text)
}

// CaptureOutput runs fn with a test-mode printer and returns what it wrote.
func CaptureOutput(fn func(*Printer)) string {
	buffer := NewCaptureBuffer()
	fn(NewPrinter(WithWriter(buffer), TestMode()))
	return buffer.String()
}

// MockStyleProvider wraps text in [semantic]...[/semantic] markers.
type MockStyleProvider struct {
	available bool
	styles    map[string]TextStyle
}

// NewMockStyleProvider creates an available mock provider.
func NewMockStyleProvider() *MockStyleProvider {
	return &MockStyleProvider{available: true, styles: make(map[string]TextStyle)}
}

// SetStyle overrides the style for semantic.
func (m *MockStyleProvider) SetStyle(semantic string, style TextStyle) {
	m.styles[semantic] = style
}

// SetAvailable toggles availability.
func (m *MockStyleProvider) SetAvailable(available bool) {
	m.available = available
}

// GetStyle implements StyleProvider.
func (m *MockStyleProvider) GetStyle(semantic string) TextStyle {
	if style, ok := m.styles[semantic]; ok {
		return style
	}
	return &MockTextStyle{semantic: semantic}
}

// IsAvailable implements StyleProvider.
func (m *MockStyleProvider) IsAvailable() bool {
	return m.available
}

// GetThemeType implements StyleProvider.
func (m *MockStyleProvider) GetThemeType() string {
	return "dark"
}

// MockTextStyle renders semantic markers around text.
type MockTextStyle struct {
	semantic string
}

// Render implements TextStyle.
func (m *MockTextStyle) Render(text string) string {
	return "[" + m.semantic + "]" + text + "[/" + m.semantic + "]"
}
