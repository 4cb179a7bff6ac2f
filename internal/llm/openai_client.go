// Package llm provides the text-generation clients behind the intent classifier,
// the conversation engine and the system analysis report.
package llm

import (
	"context"
	"fmt"

	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

// OpenAIClient talks to OpenAI, or to any OpenAI-compatible endpoint such as Groq.
// The SDK client is created on the first request.
type OpenAIClient struct {
	provider string
	apiKey   string
	model    string
	options  []option.RequestOption
	client   *openai.Client
}

// NewOpenAIClient creates an OpenAI client. Extra options are passed to the SDK.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{provider: "openai", apiKey: apiKey, model: model, options: opts}
}

// NewGroqClient creates a client for Groq's OpenAI-compatible API.
func NewGroqClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	opts = append([]option.RequestOption{option.WithBaseURL(GroqBaseURL)}, opts...)
	return &OpenAIClient{provider: "groq", apiKey: apiKey, model: model, options: opts}
}

// ProviderName returns "openai" or "groq".
func (c *OpenAIClient) ProviderName() string {
	return c.provider
}

// Model returns the model identifier sent with each request.
func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("%s API key not configured", c.provider)
	}

	options := append([]option.RequestOption{option.WithAPIKey(c.apiKey)}, c.options...)
	client := openai.NewClient(options...)
	c.client = &client

	logger.Debug("LLM client initialized", "provider", c.provider, "model", c.model)
	return nil
}

// Generate sends one chat completion request.
func (c *OpenAIClient) Generate(ctx context.Context, req spectertypes.GenerateRequest) (string, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case spectertypes.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case spectertypes.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case spectertypes.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature >= 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	logger.Debug("Sending chat completion", "provider", c.provider, "message_count", len(messages))
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.provider)
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%s returned empty content", c.provider)
	}
	return content, nil
}
