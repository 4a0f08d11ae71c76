package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/domain/llm"
)

const defaultModel = "gpt-4o-mini"

// Config はOpenAI互換APIの設定（DeepSeek・Ollama等もBaseURLで指定）
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIProvider はOpenAI APIプロバイダーの実装
type OpenAIProvider struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider は新しいOpenAIProviderを作成
func NewOpenAIProvider(cfg Config, logger *zap.Logger) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Generate はLLM生成を実行。検索・地図ツールは未対応のため無視する
func (p *OpenAIProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: convertMessages(req),
	}

	if gc := req.GenerationConfig; gc != nil {
		if gc.Temperature != nil {
			params.Temperature = openai.Float(*gc.Temperature)
		}
		if gc.MaxOutputTokens != nil {
			params.MaxCompletionTokens = openai.Int(int64(*gc.MaxOutputTokens))
		}
		if gc.ThinkingBudget != nil {
			params.ReasoningEffort = shared.ReasoningEffortHigh
		}
	}

	if len(req.Tools) > 0 {
		p.logger.Debug("openai provider ignores retrieval tools", zap.Int("tools", len(req.Tools)))
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.GenerateResponse{}, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	out := llm.GenerateResponse{
		Text:         choice.Message.Content,
		Raw:          json.RawMessage(resp.RawJSON()),
		FinishReason: string(choice.FinishReason),
	}

	p.logger.Debug("openai chat completed",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return out, nil
}

// Name はプロバイダー名を返す
func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("openai-%s", p.model)
}

// convertMessages はドメインメッセージをOpenAI APIフォーマットに変換
func convertMessages(req llm.GenerateRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	// システムプロンプトを最初に追加
	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleModel, "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return messages
}
