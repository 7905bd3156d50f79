package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/pipeline"
	"github.com/abhisek/staarai/internal/render"
	"github.com/abhisek/staarai/internal/store"
	"github.com/abhisek/staarai/internal/teks"
)

// buildProvider creates the configured completion provider. With fallback
// enabled, a missing credential yields a provider that always reports
// itself unavailable so generation can substitute template content.
func buildProvider(ctx context.Context, events store.EventRepo) (llm.Provider, error) {
	p, err := llm.NewProvider(ctx, appCfg.LLM, events, logger)
	if err == nil {
		logger.Info("LLM provider ready",
			zap.String("provider", appCfg.LLM.Provider),
			zap.String("model", p.ModelID()))
		return p, nil
	}
	if appCfg.AllowFallback && llm.IsUnavailable(err) {
		logger.Warn("LLM provider unavailable, documents will use fallback content", zap.Error(err))
		return llm.Unavailable(err, configuredModel(appCfg.LLM)), nil
	}
	return nil, err
}

// configuredModel returns the model name of the selected provider.
func configuredModel(cfg llm.Config) string {
	switch cfg.Provider {
	case "openai":
		return cfg.OpenAI.Model
	case "anthropic":
		return cfg.Anthropic.Model
	case "gemini":
		return cfg.Gemini.Model
	case "openrouter":
		return cfg.OpenRouter.Model
	}
	return cfg.Provider
}

// configuredKey returns the credential of the selected provider.
func configuredKey(cfg llm.Config) string {
	switch cfg.Provider {
	case "openai":
		return cfg.OpenAI.APIKey
	case "anthropic":
		return cfg.Anthropic.APIKey
	case "gemini":
		return cfg.Gemini.APIKey
	case "openrouter":
		return cfg.OpenRouter.APIKey
	}
	return ""
}

func loadCatalog() (*teks.Catalog, error) {
	c, err := teks.Open(appCfg.CatalogCSV)
	if err != nil {
		return nil, fmt.Errorf("load standards catalog: %w", err)
	}
	logger.Debug("standards catalog loaded",
		zap.Int("standards", c.Len()),
		zap.String("csv", appCfg.CatalogCSV))
	return c, nil
}

func buildPipeline(provider llm.Provider, events store.EventRepo) *pipeline.Pipeline {
	return pipeline.New(provider, render.New(appCfg.OutputDir), events, pipeline.Options{
		AllowFallback:        appCfg.AllowFallback,
		LegacySymmetricItems: appCfg.LegacySymmetricItems,
	}, logger)
}
