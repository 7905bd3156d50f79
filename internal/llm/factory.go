package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/staarai/internal/store"
	"go.uber.org/zap"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout and logging middleware.
// eventRepo may be nil, in which case calls are logged but not persisted.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → timeout → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	return WithTimeout(logged, cfg.Timeout), nil
}

// NewProviderFromEnv is NewProvider with ConfigFromEnv.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, log *zap.Logger) (Provider, error) {
	return NewProvider(ctx, ConfigFromEnv(), eventRepo, log)
}
