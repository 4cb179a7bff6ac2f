package llm

import (
	"errors"
	"fmt"

	"specter/internal/config"
	"specter/internal/logger"
	"specter/pkg/spectertypes"
)

// ErrNotConfigured means no provider has an API key.
var ErrNotConfigured = errors.New("no text-generation provider configured")

// providerOrder is the auto-selection order when no provider is named.
var providerOrder = []string{"openai", "anthropic", "gemini", "groq"}

// Providers returns the supported provider names.
func Providers() []string {
	out := make([]string, len(providerOrder))
	copy(out, providerOrder)
	return out
}

// NewGenerator picks a provider from cfg. An explicit provider must have its key;
// otherwise the first provider with a key wins.
func NewGenerator(cfg config.LLMConfig) (spectertypes.TextGenerator, error) {
	if cfg.Provider != "" {
		key, err := apiKeyFor(cfg, cfg.Provider)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, fmt.Errorf("%s API key not set: %w", cfg.Provider, ErrNotConfigured)
		}
		return newClient(cfg.Provider, key, cfg.Model), nil
	}

	for _, provider := range providerOrder {
		key, _ := apiKeyFor(cfg, provider)
		if key != "" {
			logger.Debug("Selected text-generation provider", "provider", provider)
			return newClient(provider, key, cfg.Model), nil
		}
	}
	return nil, ErrNotConfigured
}

func apiKeyFor(cfg config.LLMConfig, provider string) (string, error) {
	switch provider {
	case "openai":
		return cfg.OpenAIAPIKey, nil
	case "anthropic":
		return cfg.AnthropicAPIKey, nil
	case "gemini":
		return cfg.GoogleAPIKey, nil
	case "groq":
		return cfg.GroqAPIKey, nil
	default:
		return "", fmt.Errorf("unsupported provider '%s'. Supported providers: openai, anthropic, gemini, groq", provider)
	}
}

func newClient(provider, key, model string) spectertypes.TextGenerator {
	switch provider {
	case "anthropic":
		return NewAnthropicClient(key, model)
	case "gemini":
		return NewGeminiClient(key, model)
	case "groq":
		return NewGroqClient(key, model)
	default:
		return NewOpenAIClient(key, model)
	}
}
