package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Nyukimin/leadqual/internal/domain/extract"
	"github.com/Nyukimin/leadqual/internal/domain/llm"
	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

const defaultModel = "gemini-2.5-flash"

// Config はGeminiプロバイダーの設定
type Config struct {
	APIKey  string
	BaseURL string // テスト・プロキシ用
	Model   string // リクエストでモデル未指定時に使う
}

// GeminiProvider はGoogle GenAI SDKを使うLLMProvider実装
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiProvider は新しいGeminiProviderを作成
func NewGeminiProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Generate はLLM生成を実行
func (p *GeminiProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, model, convertMessages(req.Messages), buildConfig(req))
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("failed to encode gemini response: %w", err)
	}

	out := llm.GenerateResponse{
		Text:                extract.ExtractText(raw),
		Raw:                 raw,
		GroundingReferences: extract.GroundingReferences(raw),
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}

	p.logger.Debug("gemini generate completed",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_len", len(out.Text)),
		zap.Int("grounding_sources", len(out.GroundingReferences)),
	)

	return out, nil
}

// Name はプロバイダー名を返す
func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini-%s", p.model)
}

// convertMessages はドメインメッセージをGenAIのContentに変換
func convertMessages(msgs []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := genai.RoleUser
		if msg.Role == llm.RoleModel || msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	return contents
}

// buildConfig はツール・思考予算・位置バイアスをGenerateContentConfigに写す
func buildConfig(req llm.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	for _, capability := range req.Tools {
		switch capability {
		case routing.CapabilityGoogleSearch:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case routing.CapabilityGoogleMaps:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
		}
	}

	if req.Retrieval != nil {
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(req.Retrieval.LatLng.Latitude),
					Longitude: genai.Ptr(req.Retrieval.LatLng.Longitude),
				},
			},
		}
	}

	if gc := req.GenerationConfig; gc != nil {
		if gc.Temperature != nil {
			cfg.Temperature = genai.Ptr(float32(*gc.Temperature))
		}
		if gc.MaxOutputTokens != nil {
			cfg.MaxOutputTokens = int32(*gc.MaxOutputTokens)
		}
		if gc.ThinkingBudget != nil {
			cfg.ThinkingConfig = &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr(int32(*gc.ThinkingBudget)),
			}
		}
	}

	return cfg
}
