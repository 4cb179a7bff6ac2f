package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"specter/internal/capability"
	"specter/internal/logger"
	"specter/internal/modules/email"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

// Clipboard receives text for the copy command.
type Clipboard interface {
	Write(text string) error
}

// Speaker reads responses aloud.
type Speaker interface {
	Speak(text string) bool
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Clipboard Clipboard // defaults to the system clipboard
	Speaker   Speaker   // nil unless responses should be spoken
}

// Session turns input lines into responses. Reserved words are handled here;
// everything else goes to the router.
type Session struct {
	assistant *Assistant
	clipboard Clipboard
	speaker   Speaker
	last      string
	log       *log.Logger
}

// NewSession creates a session over a built assistant.
func NewSession(a *Assistant, opts SessionOptions) *Session {
	if opts.Clipboard == nil {
		opts.Clipboard = systemClipboard{}
	}
	return &Session{
		assistant: a,
		clipboard: opts.Clipboard,
		speaker:   opts.Speaker,
		log:       logger.NewStyledLogger("Shell"),
	}
}

// Process returns the response to one line and whether the session should end.
func (s *Session) Process(ctx context.Context, line string) (string, bool) {
	command := strings.TrimSpace(line)
	if command == "" {
		return "", false
	}
	lower := strings.ToLower(command)

	var response string
	switch {
	case isQuit(lower):
		return fmt.Sprintf("Goodbye, %s! 👋", s.assistant.Config.UserName), true
	case lower == "help":
		response = s.Help()
	case lower == "status":
		response = s.Status()
	case lower == "install":
		response = s.Install()
	case lower == "copy":
		return s.copyLast(), false
	case strings.HasPrefix(lower, "mode "):
		response = s.changeMode(strings.TrimSpace(command[len("mode "):]))
	case lower == "clear history":
		response = s.clearHistory()
	default:
		s.log.Debug("Routing command", "command", logger.Redact(command))
		response = s.assistant.Router.Route(ctx, command)
	}

	s.last = response
	if s.speaker != nil && response != "" {
		s.speaker.Speak(response)
	}
	return response, false
}

func isQuit(lower string) bool {
	switch lower {
	case "quit", "exit", "bye", "goodbye":
		return true
	}
	return false
}

// Status lists each slot as ✅ or ❌ and the active fraction.
func (s *Session) Status() string {
	return "📊 Module Status:\n" + strings.Join(s.assistant.Registry.StatusLines(), "\n")
}

// Help lists commands for every available module plus the shell commands.
func (s *Session) Help() string {
	var b strings.Builder
	b.WriteString("🤖 Specter Commands:\n")

	var missing []string
	for _, e := range s.assistant.Registry.Entries() {
		if !e.Available() {
			missing = append(missing, e.Label)
			continue
		}
		entry, ok := s.assistant.Catalog.Entry(e.Slot)
		if !ok || len(entry.Help) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", entry.Section)
		for _, line := range entry.Help {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	b.WriteString("\nGENERAL:\n")
	for _, line := range s.assistant.Catalog.General {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\nNot available: %s (type 'install' for setup help)\n", strings.Join(missing, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Install explains how to enable every unavailable module.
func (s *Session) Install() string {
	var b strings.Builder
	emailMissing := false

	for _, e := range s.assistant.Registry.Entries() {
		if e.Available() {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("🔧 Installation Help\n")
		}
		fmt.Fprintf(&b, "\n%s (%s):\n", e.Label, e.Reason)
		entry, _ := s.assistant.Catalog.Entry(e.Slot)
		for _, remedy := range entry.Remedy {
			fmt.Fprintf(&b, "  • %s\n", remedy)
		}
		if e.Slot == spectertypes.SlotEmail && e.Reason == email.ErrMissingCredentials.Error() {
			emailMissing = true
		}
	}

	if b.Len() == 0 {
		return "✅ All modules are installed and configured."
	}
	if emailMissing {
		b.WriteString("\n" + email.SetupInstructions() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// DueReminders returns a notice for every reminder that has come due.
func (s *Session) DueReminders() []string {
	cal := s.assistant.Calendar
	if cal == nil {
		return nil
	}
	due, err := cal.DueReminders()
	if err != nil {
		s.log.Error("Failed to check reminders", "error", err)
		return nil
	}
	notices := make([]string, 0, len(due))
	for _, r := range due {
		notices = append(notices, "⏰ Reminder: "+r.Message)
	}
	return notices
}

func (s *Session) copyLast() string {
	if s.last == "" {
		return "Nothing to copy yet."
	}
	if err := s.clipboard.Write(s.last); err != nil {
		s.log.Warn("Clipboard write failed", "error", err)
		return "Could not copy to clipboard: " + err.Error()
	}
	return "📋 Copied the last response to the clipboard."
}

func (s *Session) changeMode(name string) string {
	if s.assistant.Conversation == nil {
		return s.conversationUnavailable()
	}
	return s.assistant.Conversation.ChangeMode(strings.ToLower(name))
}

func (s *Session) clearHistory() string {
	if s.assistant.Conversation == nil {
		return s.conversationUnavailable()
	}
	return s.assistant.Conversation.ClearHistory()
}

func (s *Session) conversationUnavailable() string {
	_, err := s.assistant.Registry.Lookup(spectertypes.SlotConversation)
	var unavailable *capability.UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Message()
	}
	return "Conversation not available"
}
