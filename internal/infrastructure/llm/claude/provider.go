package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/domain/llm"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 8192
)

// Config はAnthropic APIの設定
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ClaudeProvider はClaude APIプロバイダーの実装
type ClaudeProvider struct {
	client anthropic.Client
	model  string
	logger *zap.Logger
}

// NewClaudeProvider は新しいClaudeProviderを作成
func NewClaudeProvider(cfg Config, logger *zap.Logger) *ClaudeProvider {
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

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Generate はLLM生成を実行。検索・地図ツールは未対応のため無視する
func (p *ClaudeProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages:  convertMessages(req.Messages),
	}

	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
	}

	thinking := false
	if gc := req.GenerationConfig; gc != nil {
		if gc.MaxOutputTokens != nil {
			params.MaxTokens = int64(*gc.MaxOutputTokens)
		}
		// extended thinking 有効時は temperature を指定できない
		if gc.ThinkingBudget != nil {
			budget := int64(*gc.ThinkingBudget)
			params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
			thinking = true
			if params.MaxTokens <= budget {
				params.MaxTokens = budget + defaultMaxTokens
			}
		} else if gc.Temperature != nil {
			params.Temperature = anthropic.Float(*gc.Temperature)
		}
	}

	if len(req.Tools) > 0 {
		p.logger.Debug("claude provider ignores retrieval tools", zap.Int("tools", len(req.Tools)))
	}

	start := time.Now()
	var (
		resp *anthropic.Message
		err  error
	)
	// 思考予算付きは max_tokens が大きく、SDKが非ストリーミング呼び出しを拒否する
	if thinking {
		resp, err = p.stream(ctx, params)
	} else {
		resp, err = p.client.Messages.New(ctx, params)
	}
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return llm.GenerateResponse{}, fmt.Errorf("no text content in response")
	}

	p.logger.Debug("claude message completed",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Bool("streamed", thinking),
	)

	raw := json.RawMessage(resp.RawJSON())
	if len(raw) == 0 {
		if raw, err = json.Marshal(resp); err != nil {
			return llm.GenerateResponse{}, fmt.Errorf("failed to encode claude response: %w", err)
		}
	}

	return llm.GenerateResponse{
		Text:         strings.Join(parts, "\n"),
		Raw:          raw,
		FinishReason: string(resp.StopReason),
	}, nil
}

// stream はストリーミングでメッセージを受信し、1つのMessageに組み立てる
func (p *ClaudeProvider) stream(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("failed to accumulate stream event: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Name はプロバイダー名を返す
func (p *ClaudeProvider) Name() string {
	return fmt.Sprintf("claude-%s", p.model)
}

// convertMessages はドメインメッセージをClaude APIフォーマットに変換
func convertMessages(messages []llm.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		content := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)}
		switch msg.Role {
		case llm.RoleModel, "assistant":
			result = append(result, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: content,
			})
		default:
			result = append(result, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: content,
			})
		}
	}
	return result
}
