package llm

import (
	"context"
	"fmt"
	"strings"

	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	apiKey  string
	model   string
	options []option.RequestOption
	client  *anthropic.Client
}

// NewAnthropicClient creates an Anthropic client with lazy initialization.
func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) *AnthropicClient {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &AnthropicClient{apiKey: apiKey, model: model, options: opts}
}

// ProviderName returns "anthropic".
func (c *AnthropicClient) ProviderName() string {
	return "anthropic"
}

func (c *AnthropicClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("anthropic API key not configured")
	}

	options := append([]option.RequestOption{option.WithAPIKey(c.apiKey)}, c.options...)
	client := anthropic.NewClient(options...)
	c.client = &client

	logger.Debug("LLM client initialized", "provider", "anthropic", "model", c.model)
	return nil
}

// Generate sends one Messages request. System turns are folded into the system prompt.
func (c *AnthropicClient) Generate(ctx context.Context, req spectertypes.GenerateRequest) (string, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return "", err
	}

	system := []string{}
	if req.System != "" {
		system = append(system, req.System)
	}
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case spectertypes.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case spectertypes.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case spectertypes.RoleSystem:
			system = append(system, msg.Content)
		}
	}

	maxTokens := int64(1024)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if req.Temperature >= 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	logger.Debug("Sending messages request", "provider", "anthropic", "message_count", len(messages))
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	if content.Len() == 0 {
		return "", fmt.Errorf("anthropic returned empty content")
	}
	return content.String(), nil
}
