// Package conversation implements the chat fallback: persona modes, a bounded
// prompt context over an append-only history, and a static phrase table used
// when no text-generation service is configured or it fails.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"specter/internal/logger"
	"specter/internal/storage"
	"specter/internal/testutils"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

// ContextTurns is how many recent turns are sent with each request.
const ContextTurns = 15

// HistoryFile is the history file name inside the data directory.
const HistoryFile = "conversation_history.json"

// Options configures an Engine.
type Options struct {
	Generator spectertypes.TextGenerator // nil means static replies only
	Store     *storage.JSONFile
	UserName  string
	Timeout   time.Duration
	Stamper   testutils.Stamper
}

// Engine is the conversation capability. It is safe for use from one goroutine at a time
// plus concurrent readers of Mode and History.
type Engine struct {
	mu       sync.Mutex
	opts     Options
	personas *Personas
	mode     spectertypes.Mode
	history  []spectertypes.Message
	log      *log.Logger
}

// NewEngine loads persisted history and persona templates.
// A corrupt history file is logged and replaced by an empty history.
func NewEngine(opts Options) (*Engine, error) {
	personas, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	if opts.UserName == "" {
		opts.UserName = "User"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	e := &Engine{
		opts:     opts,
		personas: personas,
		mode:     spectertypes.ModeFriend,
		log:      logger.NewStyledLogger("Conversation"),
	}

	if opts.Store != nil {
		var history []spectertypes.Message
		if err := opts.Store.Load(&history); err != nil {
			e.log.Error("Failed to load conversation history", "error", err)
		} else {
			e.history = history
			e.log.Debug("Conversation history loaded", "messages", len(history))
		}
	}
	return e, nil
}

// Slot returns the conversation slot.
func (e *Engine) Slot() spectertypes.Slot {
	return spectertypes.SlotConversation
}

// Handle chats in the current mode.
func (e *Engine) Handle(ctx context.Context, command string) (string, error) {
	return e.Chat(ctx, command), nil
}

// Invoke serves change_mode and clear_history.
func (e *Engine) Invoke(_ context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	switch fn {
	case spectertypes.FuncChangeMode:
		if name := params["mode"]; name != "" {
			return e.ChangeMode(name), nil
		}
		return e.ChangeMode(modeFromCommand(params["command"])), nil
	case spectertypes.FuncClearHistory:
		return e.ClearHistory(), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// Chat answers message in the current mode.
func (e *Engine) Chat(ctx context.Context, message string) string {
	e.mu.Lock()
	mode := e.mode
	e.mu.Unlock()
	return e.ChatAs(ctx, mode, message)
}

// ChatAs answers message in mode and makes mode current.
func (e *Engine) ChatAs(ctx context.Context, mode spectertypes.Mode, message string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := spectertypes.ParseMode(string(mode)); ok {
		e.mode = mode
	}

	prior := e.recentLocked()
	e.appendLocked(spectertypes.RoleUser, message)

	response := e.generateLocked(ctx, prior, message)

	e.appendLocked(spectertypes.RoleAssistant, response)
	e.persistLocked()
	return response
}

func (e *Engine) generateLocked(ctx context.Context, prior []spectertypes.Message, message string) string {
	if e.opts.Generator == nil {
		return StaticReply(message, e.opts.UserName)
	}

	messages := make([]spectertypes.Message, 0, len(prior)+1)
	messages = append(messages, prior...)
	messages = append(messages, spectertypes.Message{Role: spectertypes.RoleUser, Content: message})

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	reply, err := e.opts.Generator.Generate(ctx, spectertypes.GenerateRequest{
		System:      e.personas.SystemPrompt(e.mode, e.opts.UserName, e.opts.Stamper.Now()),
		Messages:    messages,
		MaxTokens:   200,
		Temperature: 0.7,
	})
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		e.log.Warn("Chat generation failed, using static reply", "provider", e.opts.Generator.ProviderName(), "error", err)
		return StaticReply(message, e.opts.UserName)
	}
	return reply
}

// recentLocked returns up to ContextTurns turns before the new message.
func (e *Engine) recentLocked() []spectertypes.Message {
	start := len(e.history) - ContextTurns
	if start < 0 {
		start = 0
	}
	out := make([]spectertypes.Message, len(e.history)-start)
	copy(out, e.history[start:])
	return out
}

func (e *Engine) appendLocked(role spectertypes.Role, content string) {
	e.history = append(e.history, spectertypes.Message{
		ID:        e.opts.Stamper.NewID(),
		Role:      role,
		Content:   content,
		Timestamp: e.opts.Stamper.Now(),
	})
}

// persistLocked writes the full history. Failures are logged; the next write retries.
func (e *Engine) persistLocked() {
	if e.opts.Store == nil {
		return
	}
	history := e.history
	if history == nil {
		history = []spectertypes.Message{}
	}
	if err := e.opts.Store.Save(history); err != nil {
		e.log.Error("Failed to save conversation history", "error", err)
	}
}

// ChangeMode switches persona. Invalid names leave the mode unchanged.
func (e *Engine) ChangeMode(name string) string {
	mode, ok := spectertypes.ParseMode(name)
	if !ok {
		names := make([]string, 0, 3)
		for _, m := range spectertypes.Modes() {
			names = append(names, string(m))
		}
		return "Available modes: " + strings.Join(names, ", ")
	}

	e.mu.Lock()
	e.mode = mode
	e.mu.Unlock()
	return fmt.Sprintf("Switched to %s mode. How can I help you?", mode)
}

// Mode returns the current persona.
func (e *Engine) Mode() spectertypes.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// ClearHistory empties and persists the history. Calling it repeatedly is harmless.
func (e *Engine) ClearHistory() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = nil
	e.persistLocked()
	return "Conversation history cleared!"
}

// History returns a copy of every turn in chronological order.
func (e *Engine) History() []spectertypes.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]spectertypes.Message, len(e.history))
	copy(out, e.history)
	return out
}

// Summary describes the recent conversation.
func (e *Engine) Summary() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return "No conversation history available."
	}
	recent := len(e.history)
	if recent > 10 {
		recent = 10
	}
	return fmt.Sprintf("Recent conversation: %d messages in %s mode.", recent, e.mode)
}

// modeFromCommand finds a mode name anywhere in a command like "switch to therapist mode".
func modeFromCommand(command string) string {
	for _, word := range strings.Fields(strings.ToLower(command)) {
		if m, ok := spectertypes.ParseMode(strings.Trim(word, ".,!?")); ok {
			return string(m)
		}
	}
	return command
}
