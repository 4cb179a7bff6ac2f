// Package spectertypes defines conversation turns, persona modes and the text-generation contract.
package spectertypes

import (
	"context"
	"strings"
	"time"
)

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one conversation turn. Insertion order is chronological order.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Mode selects the persona used for chat prompts. It never affects routing.
type Mode string

const (
	ModeFriend    Mode = "friend"
	ModeTherapist Mode = "therapist"
	ModeWorkmate  Mode = "workmate"
)

// Modes returns the valid persona modes in display order.
func Modes() []Mode {
	return []Mode{ModeFriend, ModeTherapist, ModeWorkmate}
}

// ParseMode resolves a user-supplied mode name, ignoring case and surrounding space.
func ParseMode(name string) (Mode, bool) {
	candidate := Mode(strings.ToLower(strings.TrimSpace(name)))
	for _, m := range Modes() {
		if m == candidate {
			return m, true
		}
	}
	return "", false
}

// GenerateRequest is a single text-generation call.
type GenerateRequest struct {
	System      string    // system instruction
	Messages    []Message // prior turns followed by the new user message
	MaxTokens   int       // 0 means provider default
	Temperature float64   // negative means provider default
}

// TextGenerator abstracts the remote text-generation service (OpenAI, Anthropic, Gemini, Groq).
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	ProviderName() string
}
