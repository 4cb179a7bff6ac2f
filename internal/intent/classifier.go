// Package intent classifies free-text commands into capability calls or chat
// using a text-generation service and a strict reply grammar.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"specter/internal/extract"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

// ErrClassificationUnavailable means the service could not be reached, timed out,
// or replied with an unparseable shape. Callers fall back to keyword rules.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// DefaultTimeout bounds each remote call when none is configured.
const DefaultTimeout = 20 * time.Second

const (
	markerFunction = "FUNCTION:"
	markerReason   = "REASON:"
	markerChat     = "CHAT:"
)

const extractionPrompt = `Extract the email fields from the user's request.
Reply with a single JSON object and nothing else:
{"recipient": string or null, "subject": string or null, "message": string or null}
The recipient must be an email address exactly as written by the user.`

// Classifier maps commands to intents.
type Classifier struct {
	generator spectertypes.TextGenerator
	timeout   time.Duration
	prompt    string
	log       *log.Logger
}

// NewClassifier creates a classifier backed by generator. A non-positive timeout uses DefaultTimeout.
func NewClassifier(generator spectertypes.TextGenerator, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Classifier{
		generator: generator,
		timeout:   timeout,
		prompt:    BuildPrompt(),
		log:       logger.NewStyledLogger("Intent"),
	}
}

// BuildPrompt renders the fixed instruction naming every known function.
func BuildPrompt() string {
	var b strings.Builder
	b.WriteString("You are the command classifier of a desktop assistant.\n")
	b.WriteString("Decide whether the user's message asks for one of these functions:\n\n")
	for _, spec := range spectertypes.Functions() {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
	}
	b.WriteString("\nIf it does, reply exactly:\n")
	b.WriteString(markerFunction + " <function_name>\n" + markerReason + " <short reason>\n")
	b.WriteString("\nOtherwise reply exactly:\n")
	b.WriteString(markerChat + " <a short conversational reply>\n")
	b.WriteString("\nUse only the function names listed above. Do not add any other text.")
	return b.String()
}

// Classify returns the intent for command. The only error it returns wraps
// ErrClassificationUnavailable.
func (c *Classifier) Classify(ctx context.Context, command string) (result spectertypes.Intent, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Classifier panic recovered", "panic", r)
			result, err = spectertypes.Intent{}, fmt.Errorf("%w: %v", ErrClassificationUnavailable, r)
		}
	}()

	if extract.LooksLikeEmailComposition(command) {
		if fields, ok := c.extractEmail(ctx, command); ok {
			c.log.Debug("Email composition detected", "recipient", fields.Recipient)
			return spectertypes.FunctionCallIntent(
				spectertypes.FuncSendEmail.String(), "email composition with recipient", fields.Params()), nil
		}
	}

	reply, err := c.generate(ctx, c.prompt, command, 100)
	if err != nil {
		c.log.Warn("Classification failed", "error", err)
		return spectertypes.Intent{}, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}

	intent, err := ParseReply(reply)
	if err != nil {
		c.log.Warn("Unparseable classifier reply", "reply", reply)
		return spectertypes.Intent{}, err
	}
	c.log.Debug("Command classified", "kind", intent.Kind, "function", intent.Function)
	return intent, nil
}

// ParseReply applies the reply grammar:
//
//	FUNCTION: <name>
//	REASON: <text>
//
// or "CHAT: <text>". Any other shape is chat. A FUNCTION marker with no name is unparseable.
func ParseReply(reply string) (spectertypes.Intent, error) {
	trimmed := strings.TrimSpace(reply)
	lines := strings.Split(trimmed, "\n")
	first := strings.TrimSpace(lines[0])

	switch {
	case hasMarker(first, markerFunction):
		fields := strings.Fields(first[len(markerFunction):])
		if len(fields) == 0 {
			return spectertypes.Intent{}, fmt.Errorf("%w: function marker without a name", ErrClassificationUnavailable)
		}
		name := strings.ToLower(strings.Trim(fields[0], "`'\".,;"))
		if name == "" {
			return spectertypes.Intent{}, fmt.Errorf("%w: function marker without a name", ErrClassificationUnavailable)
		}

		var reason string
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			if hasMarker(line, markerReason) {
				reason = strings.TrimSpace(line[len(markerReason):])
				break
			}
		}
		return spectertypes.FunctionCallIntent(name, reason, nil), nil

	case hasMarker(first, markerChat):
		return spectertypes.ChatIntent(strings.TrimSpace(trimmed[len(markerChat):])), nil

	default:
		return spectertypes.ChatIntent(trimmed), nil
	}
}

func hasMarker(line, marker string) bool {
	return len(line) >= len(marker) && strings.EqualFold(line[:len(marker)], marker)
}

// extractEmail asks the service for structured fields, then falls back to local patterns.
func (c *Classifier) extractEmail(ctx context.Context, command string) (extract.EmailFields, bool) {
	reply, err := c.generate(ctx, extractionPrompt, command, 300)
	if err == nil {
		fields, parseErr := extract.ParseEmailJSON(reply)
		if parseErr == nil {
			return fields, true
		}
		err = parseErr
	}
	c.log.Warn("Remote email extraction failed, using local patterns", "error", err)
	return extract.ExtractEmailLocal(command)
}

func (c *Classifier) generate(ctx context.Context, system, command string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.generator.Generate(ctx, spectertypes.GenerateRequest{
		System:      system,
		Messages:    []spectertypes.Message{{Role: spectertypes.RoleUser, Content: command}},
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
}
