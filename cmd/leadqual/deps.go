package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/adapter/config"
	"github.com/Nyukimin/leadqual/internal/adapter/httpapi"
	"github.com/Nyukimin/leadqual/internal/application/qualification"
	"github.com/Nyukimin/leadqual/internal/domain/llm"
	"github.com/Nyukimin/leadqual/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/leadqual/internal/infrastructure/llm/gemini"
	"github.com/Nyukimin/leadqual/internal/infrastructure/llm/openai"
	"github.com/Nyukimin/leadqual/internal/infrastructure/metrics"
	"github.com/Nyukimin/leadqual/internal/infrastructure/persistence/leadbook"
	"github.com/Nyukimin/leadqual/internal/infrastructure/routing"
)

// Dependencies はアプリケーション依存関係
type Dependencies struct {
	service *qualification.Service
	metrics *metrics.Metrics
}

// buildDependencies は依存関係を構築
func buildDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	// 1. LLM Provider
	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("llm provider enabled", zap.String("provider", provider.Name()))

	// 2. Routing
	router := routing.NewIntentRouter(cfg.Routing.Models())

	// 3. Lead book
	repo := leadbook.NewJSONRepository(cfg.Store.Path)

	// 4. Metrics
	m := metrics.New()

	// 5. Application service
	svc := qualification.NewService(router, provider, repo, qualification.Options{
		ProspectingModel: cfg.Routing.ProspectingModel,
		Recorder:         m,
		Logger:           logger,
	})

	logger.Debug("dependency injection complete")

	return &Dependencies{service: svc, metrics: m}, nil
}

// newProvider は設定のプロバイダーに応じたLLMProviderを作成
func newProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.LLMProvider, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		p, err := gemini.NewGeminiProvider(ctx, gemini.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.Routing.StandardModel,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderOpenAI:
		return openai.NewOpenAIProvider(openai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.Routing.StandardModel,
		}, logger), nil
	case config.ProviderAnthropic:
		return claude.NewClaudeProvider(claude.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.Routing.StandardModel,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
}

// handler はHTTPハンドラーを組み立てる
func (d *Dependencies) handler(logger *zap.Logger) http.Handler {
	return httpapi.NewRouter(httpapi.NewHandler(d.service, logger), d.metrics, logger)
}
