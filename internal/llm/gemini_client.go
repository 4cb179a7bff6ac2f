package llm

import (
	"context"
	"fmt"
	"strings"

	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"google.golang.org/genai"
)

// GeminiClient talks to Google Gemini through the genai SDK.
type GeminiClient struct {
	apiKey string
	model  string
	client *genai.Client
}

// NewGeminiClient creates a Gemini client with lazy initialization.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{apiKey: apiKey, model: model}
}

// ProviderName returns "gemini".
func (c *GeminiClient) ProviderName() string {
	return "gemini"
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("google API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	logger.Debug("LLM client initialized", "provider", "gemini", "model", c.model)
	return nil
}

// Generate sends one GenerateContent request.
func (c *GeminiClient) Generate(ctx context.Context, req spectertypes.GenerateRequest) (string, error) {
	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return "", err
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, geminiContents(req.Messages), geminiConfig(req))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var content strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			content.WriteString(part.Text)
		}
	}
	if content.Len() == 0 {
		return "", fmt.Errorf("gemini returned empty content")
	}
	return content.String(), nil
}

// geminiContents maps turns to Gemini roles; assistant turns become "model".
func geminiContents(messages []spectertypes.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case spectertypes.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case spectertypes.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case spectertypes.RoleSystem:
			contents = append(contents, genai.NewContentFromText("System: "+msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("", genai.RoleUser))
	}
	return contents
}

func geminiConfig(req spectertypes.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature >= 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	return config
}
