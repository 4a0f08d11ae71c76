package llm

import (
	"context"
	"encoding/json"

	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

// Message はLLMメッセージを表す
type Message struct {
	Role    string `json:"role"` // "user", "model"
	Content string `json:"content"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// GenerateRequest はLLM生成リクエスト
type GenerateRequest struct {
	Model             string
	Messages          []Message
	SystemInstruction string
	Tools             []routing.Capability
	GenerationConfig  *routing.GenerationConfig
	Retrieval         *routing.RetrievalConfig
}

// RequestFromDecision はルーティング決定からリクエストの骨格を作る
func RequestFromDecision(d routing.Decision) GenerateRequest {
	return GenerateRequest{
		Model:            d.Model,
		Tools:            d.Tools,
		GenerationConfig: d.GenerationConfig,
		Retrieval:        d.Retrieval,
	}
}

// GroundingReference は回答の根拠となった外部ソース
type GroundingReference struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}

// GenerateResponse はLLM生成レスポンス
type GenerateResponse struct {
	Text                string
	Raw                 json.RawMessage // プロバイダー固有の生レスポンス（JSON）
	GroundingReferences []GroundingReference
	FinishReason        string
}

// LLMProvider はLLMプロバイダーの抽象化
type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}
