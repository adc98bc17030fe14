package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jura-stack/jura/internal/config"
	"github.com/jura-stack/jura/internal/embed"
)

// newEmbeddingProvider selects an embed.Provider from configuration,
// grounded on the teacher's cmd/akashi newEmbeddingProvider: "auto" tries
// Ollama first (on-premises, no per-call cost), then OpenAI, else noop.
func newEmbeddingProvider(cfg config.Config, logger *slog.Logger) embed.Provider {
	dims := cfg.EmbeddingDimensions

	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY required when JURA_EMBEDDING_PROVIDER=openai")
			return embed.NewNoopProvider(dims)
		}
		logger.Info("embedding provider: openai", "model", cfg.EmbeddingModel, "dimensions", dims)
		p, err := embed.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
		if err != nil {
			logger.Error("openai provider init failed", "error", err)
			return embed.NewNoopProvider(dims)
		}
		return p

	case "ollama":
		logger.Info("embedding provider: ollama", "url", cfg.OllamaURL, "model", cfg.OllamaModel, "dimensions", dims)
		return embed.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, dims, logger)

	case "noop":
		logger.Info("embedding provider: noop (semantic search disabled)")
		return embed.NewNoopProvider(dims)

	case "auto":
		fallthrough
	default:
		if ollamaReachable(cfg.OllamaURL) {
			logger.Info("embedding provider: ollama (auto-detected)", "url", cfg.OllamaURL, "model", cfg.OllamaModel, "dimensions", dims)
			return embed.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, dims, logger)
		}
		if cfg.OpenAIAPIKey != "" {
			logger.Info("embedding provider: openai (auto-detected)", "model", cfg.EmbeddingModel, "dimensions", dims)
			p, err := embed.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
			if err != nil {
				logger.Error("openai provider init failed", "error", err)
				return embed.NewNoopProvider(dims)
			}
			return p
		}
		logger.Warn("no embedding provider available, using noop (semantic search disabled)")
		return embed.NewNoopProvider(dims)
	}
}

// ollamaReachable checks whether an Ollama server answers within 2s.
func ollamaReachable(baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
