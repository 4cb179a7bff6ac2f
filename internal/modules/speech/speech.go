// Package speech reads responses out loud through an external text-to-speech
// program. A single worker drains a bounded queue one utterance at a time.
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"specter/internal/config"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

// DefaultQueueSize bounds pending utterances.
const DefaultQueueSize = 16

// SayFunc speaks one utterance and returns when it finishes or ctx is cancelled.
type SayFunc func(ctx context.Context, text string) error

// Options configures a Module. When Say is nil the voice is resolved from Config.
type Options struct {
	Config    config.SpeechConfig
	Say       SayFunc
	QueueSize int
	GOOS      string
	LookPath  func(string) (string, error)
}

// utterance is queued text stamped with the stop generation it was queued in.
type utterance struct {
	text string
	gen  uint64
}

// Module is the speech capability.
type Module struct {
	say   SayFunc
	queue chan utterance
	log   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu      sync.Mutex
	current context.CancelFunc
	gen     uint64 // bumped by Stop; older utterances are skipped
}

// New resolves a voice and starts the worker.
func New(opts Options) (*Module, error) {
	say := opts.Say
	if say == nil {
		goos, lookPath := opts.GOOS, opts.LookPath
		if goos == "" {
			goos = runtime.GOOS
		}
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		voice, err := ResolveVoice(opts.Config, goos, lookPath)
		if err != nil {
			return nil, err
		}
		say = voice.Say
	}
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Module{
		say:    say,
		queue:  make(chan utterance, size),
		log:    logger.NewStyledLogger("Speech"),
		ctx:    ctx,
		cancel: cancel,
	}
	m.wg.Add(1)
	go m.run()
	return m, nil
}

// Slot returns the speech slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotSpeech
}

// Handle speaks the text of a command, or stops speaking.
func (m *Module) Handle(_ context.Context, command string) (string, error) {
	lower := strings.ToLower(command)
	if containsAny(lower, "stop speaking", "stop talking", "be quiet", "shut up", "silence") {
		return m.stopReply(), nil
	}
	return m.speakReply(ExtractText(command)), nil
}

// Invoke serves speak and stop_speaking.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	switch fn {
	case spectertypes.FuncSpeak:
		if text := strings.TrimSpace(params["text"]); text != "" {
			return m.speakReply(text), nil
		}
		return m.speakReply(ExtractText(params["command"])), nil
	case spectertypes.FuncStopSpeaking:
		return m.stopReply(), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

func (m *Module) speakReply(text string) string {
	if Speakable(text) == "" {
		return "What should I say?"
	}
	if !m.Speak(text) {
		return "Speech queue is full, try again shortly."
	}
	return "🗣️ Speaking: " + text
}

func (m *Module) stopReply() string {
	m.Stop()
	return "🔇 Stopped speaking"
}

// Speak queues text without blocking. It reports false when the queue is
// full, the module is closed, or nothing speakable remains.
func (m *Module) Speak(text string) bool {
	text = Speakable(text)
	if text == "" || m.ctx.Err() != nil {
		return false
	}
	select {
	case m.queue <- m.stamp(text):
		return true
	default:
		m.log.Warn("Speech queue full, dropping utterance")
		return false
	}
}

// Stop discards queued utterances and interrupts the current one. It returns
// how many queued utterances were dropped.
func (m *Module) Stop() int {
	dropped := 0
drain:
	for {
		select {
		case <-m.queue:
			dropped++
		default:
			break drain
		}
	}
	m.mu.Lock()
	m.gen++
	if m.current != nil {
		m.current()
	}
	m.mu.Unlock()
	return dropped
}

func (m *Module) stamp(text string) utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return utterance{text: text, gen: m.gen}
}

// Pending returns the number of queued utterances.
func (m *Module) Pending() int {
	return len(m.queue)
}

// Close stops the worker and waits for it to exit.
func (m *Module) Close() error {
	m.once.Do(func() {
		m.cancel()
		m.wg.Wait()
	})
	return nil
}

func (m *Module) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case u := <-m.queue:
			m.utter(u)
		}
	}
}

// utter speaks u unless a Stop happened after it was queued, including one
// that landed between the worker dequeuing it and getting here.
func (m *Module) utter(u utterance) {
	ctx, cancel := context.WithCancel(m.ctx)
	defer cancel()

	m.mu.Lock()
	if u.gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.current = cancel
	m.mu.Unlock()

	err := m.say(ctx, u.text)

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		m.log.Warn("Text-to-speech failed", "error", err)
	}
}

// ExtractText removes the speak verb from a command.
func ExtractText(command string) string {
	text := strings.TrimSpace(command)
	lower := strings.ToLower(text)
	for _, prefix := range []string{"please ", "read out loud ", "read aloud ", "read out ", "speak ", "say ", "read "} {
		if strings.HasPrefix(lower+" ", prefix) {
			text = strings.TrimSpace((text + " ")[len(prefix):])
			lower = strings.ToLower(text)
		}
	}
	for _, suffix := range []string{" out loud", " aloud"} {
		if strings.HasSuffix(lower, suffix) {
			text = strings.TrimSpace(text[:len(text)-len(suffix)])
			lower = strings.ToLower(text)
		}
	}
	return strings.Trim(text, "\"'")
}

// Speakable drops emoji and markdown markers and collapses whitespace.
func Speakable(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune("*_`#>|", r):
			return -1
		case unicode.IsSymbol(r) || r == '\uFE0F' || r == '\u200D':
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
