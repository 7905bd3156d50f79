package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string

	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig

	// Timeout bounds a single completion call. Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for proxies or compatible APIs.
	OrgID   string // Optional.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "openai/gpt-4o-mini"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "openai/gpt-4o-mini",
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from STAAR_* environment variables. When no
// STAAR_LLM_PROVIDER is set, the standard vendor key variables are probed
// via DiscoverConfig. Unset values fall back to defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if _, ok := os.LookupEnv("STAAR_LLM_PROVIDER"); !ok {
		if discovered, found := DiscoverConfig(); found {
			cfg = discovered
		}
	}

	if p := os.Getenv("STAAR_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := firstEnv("STAAR_OPENAI_API_KEY", "OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := firstEnv("STAAR_OPENAI_MODEL", "OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := firstEnv("STAAR_OPENAI_BASE_URL", "OPENAI_BASE_URL", "OPENAI_API_BASE"); u != "" {
		cfg.OpenAI.BaseURL = u
	}
	if o := firstEnv("STAAR_OPENAI_ORG", "OPENAI_ORG"); o != "" {
		cfg.OpenAI.OrgID = o
	}

	if k := firstEnv("STAAR_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("STAAR_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := firstEnv("STAAR_GEMINI_API_KEY", "GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("STAAR_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if k := firstEnv("STAAR_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if m := os.Getenv("STAAR_OPENROUTER_MODEL"); m != "" {
		cfg.OpenRouter.Model = m
	}

	if t := os.Getenv("STAAR_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (OpenAI → Anthropic → Gemini → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
// A missing key is reported as *ErrProviderUnavailable naming the variable.
func (c Config) Validate() error {
	missing := func(setting string) error {
		return &ErrProviderUnavailable{
			Setting: setting,
			Err:     fmt.Errorf("%s is required for the %s provider", setting, c.Provider),
		}
	}

	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return missing("STAAR_OPENAI_API_KEY")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return missing("STAAR_ANTHROPIC_API_KEY")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return missing("STAAR_GEMINI_API_KEY")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return missing("STAAR_OPENROUTER_API_KEY")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
