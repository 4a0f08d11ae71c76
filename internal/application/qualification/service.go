package qualification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/domain/extract"
	"github.com/Nyukimin/leadqual/internal/domain/job"
	"github.com/Nyukimin/leadqual/internal/domain/lead"
	"github.com/Nyukimin/leadqual/internal/domain/llm"
	"github.com/Nyukimin/leadqual/internal/domain/prospect"
	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

// ErrInvalidLead はリードに会社名も氏名もない場合のエラー
var ErrInvalidLead = errors.New("invalid lead")

// ErrInvalidRule はルールの条件属性が空の場合のエラー
var ErrInvalidRule = errors.New("invalid scoring rule")

// FallbackAnswer はアシスタント呼び出し失敗時に返す固定文
const FallbackAnswer = "Sorry, the assistant is unavailable right now. Please try again in a moment."

// メトリクス・ログ用の操作名
const (
	opProspecting = "prospecting"
	opAssistant   = "assistant"
)

// 見込み客から作成したリードの既定値
const (
	SourceProspecting = "prospecting"
	StatusNew         = "new"
)

const prospectingInstruction = "You are a B2B prospecting researcher for a logistics company. " +
	"Use web search to find real companies and report them exactly in the requested JSON format."

// Router はプロンプトからモデル構成を選ぶ
type Router interface {
	RouteNear(prompt string, loc *routing.LatLng) routing.Decision
}

// Recorder はパイプラインの計測値を受け取る
type Recorder interface {
	RouteDecided(route string)
	ProspectsReturned(n int)
	ExtractionFailed()
	CompletionFailed(operation string)
}

type nopRecorder struct{}

func (nopRecorder) RouteDecided(string)     {}
func (nopRecorder) ProspectsReturned(int)   {}
func (nopRecorder) ExtractionFailed()       {}
func (nopRecorder) CompletionFailed(string) {}

// Options は任意の依存関係
type Options struct {
	ProspectingModel string
	Recorder         Recorder
	Logger           *zap.Logger
	Now              func() time.Time
}

// AnswerRequest はアシスタント問い合わせ
type AnswerRequest struct {
	Prompt      string          `json:"prompt"`
	History     []llm.Message   `json:"history,omitempty"`
	ContextData any             `json:"contextData,omitempty"`
	ContextKind string          `json:"contextKind,omitempty"`
	Location    *routing.LatLng `json:"location,omitempty"`
}

// Answer はアシスタントの回答
type Answer struct {
	Text                string                   `json:"text"`
	GroundingReferences []llm.GroundingReference `json:"groundingReferences"`
	Route               routing.Route            `json:"route"`
	Model               string                   `json:"model"`
}

// Service はリード獲得パイプライン全体を統括
type Service struct {
	router           Router
	provider         llm.LLMProvider
	repo             lead.Repository
	prospectingModel string
	recorder         Recorder
	logger           *zap.Logger
	now              func() time.Time

	// リードブックへの書き込みと再スコアリングを直列化
	mu sync.Mutex
}

// NewService は新しいServiceを作成
func NewService(router Router, provider llm.LLMProvider, repo lead.Repository, opts Options) *Service {
	s := &Service{
		router:           router,
		provider:         provider,
		repo:             repo,
		prospectingModel: opts.ProspectingModel,
		recorder:         opts.Recorder,
		logger:           opts.Logger,
		now:              opts.Now,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// FindProspects は検索条件から見込み客を探す。
// エラーを返すのは条件不正（ErrInvalidCriteria）のみ。
// リモート失敗やモデル出力の破損は記録したうえで空の一覧を返す
func (s *Service) FindProspects(ctx context.Context, c prospect.Criteria) ([]prospect.LeadProspect, error) {
	jobID := job.FromContext(ctx)
	logger := s.logger.With(zap.String("job_id", jobID.String()), zap.String("operation", opProspecting))

	prompt, err := prospect.BuildPrompt(c)
	if err != nil {
		return nil, err
	}

	req := llm.GenerateRequest{
		Model:             s.prospectingModel,
		Messages:          []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		SystemInstruction: prospectingInstruction,
		Tools:             []routing.Capability{routing.CapabilityGoogleSearch},
	}

	start := s.now()
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		logger.Error("prospecting completion failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		s.recorder.CompletionFailed(opProspecting)
		return []prospect.LeadProspect{}, nil
	}

	text := responseText(resp)
	payload := extract.ExtractJSON(text)
	if payload == nil {
		logger.Warn("prospecting response held no JSON object", zap.Int("text_len", len(text)))
		s.recorder.ExtractionFailed()
		return []prospect.LeadProspect{}, nil
	}

	prospects := prospect.NormalizeAt(payload, s.now())
	s.recorder.ProspectsReturned(len(prospects))

	logger.Info("prospecting completed",
		zap.Int("prospects", len(prospects)),
		zap.Duration("duration", s.now().Sub(start)),
	)
	return prospects, nil
}

// Answer はアシスタント問い合わせに回答する。失敗時は FallbackAnswer を返す
func (s *Service) Answer(ctx context.Context, req AnswerRequest) Answer {
	jobID := job.FromContext(ctx)
	logger := s.logger.With(zap.String("job_id", jobID.String()), zap.String("operation", opAssistant))

	decision := s.Route(req.Prompt, req.Location)
	logger.Debug("route decided",
		zap.String("route", decision.Route.String()),
		zap.String("model", decision.Model),
		zap.String("reason", decision.Reason),
	)

	genReq := llm.RequestFromDecision(decision)
	genReq.SystemInstruction = s.assistantInstruction(req.ContextKind, req.ContextData, logger)
	genReq.Messages = append(historyMessages(req.History), llm.Message{Role: llm.RoleUser, Content: req.Prompt})

	answer := Answer{
		Text:                FallbackAnswer,
		GroundingReferences: []llm.GroundingReference{},
		Route:               decision.Route,
		Model:               decision.Model,
	}

	resp, err := s.provider.Generate(ctx, genReq)
	if err != nil {
		logger.Error("assistant completion failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		s.recorder.CompletionFailed(opAssistant)
		return answer
	}

	text := responseText(resp)
	if text == "" {
		logger.Warn("assistant completion returned no text", zap.String("finish_reason", resp.FinishReason))
		return answer
	}
	answer.Text = text

	refs := resp.GroundingReferences
	if len(refs) == 0 && len(resp.Raw) > 0 {
		refs = extract.GroundingReferences(resp.Raw)
	}
	if len(refs) > 0 {
		answer.GroundingReferences = refs
	}
	return answer
}

// Route はルーティング決定を返す（診断用）
func (s *Service) Route(prompt string, loc *routing.LatLng) routing.Decision {
	d := s.router.RouteNear(prompt, loc)
	s.recorder.RouteDecided(d.Route.String())
	return d
}

// CreateLead はリードを登録し、現在のルールで初期スコアを付ける
func (s *Service) CreateLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	l.Name = strings.TrimSpace(l.Name)
	l.Company = strings.TrimSpace(l.Company)
	if l.Name == "" && l.Company == "" {
		return lead.Lead{}, fmt.Errorf("%w: name or company is required", ErrInvalidLead)
	}
	if l.ID == "" {
		l.ID = job.NewEntityID("lead")
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return lead.Lead{}, fmt.Errorf("failed to load scoring rules: %w", err)
	}
	l = l.WithScore(lead.Score(l, rules))

	if err := s.repo.SaveLead(ctx, l); err != nil {
		return lead.Lead{}, fmt.Errorf("failed to save lead: %w", err)
	}

	s.logger.Info("lead created", zap.String("lead_id", l.ID), zap.Int("score", l.Score))
	return l, nil
}

// AcceptProspect は見込み客をリードとして登録する
func (s *Service) AcceptProspect(ctx context.Context, p prospect.LeadProspect) (lead.Lead, error) {
	if strings.TrimSpace(p.CompanyName) == "" {
		return lead.Lead{}, fmt.Errorf("%w: prospect has no company name", ErrInvalidLead)
	}
	return s.CreateLead(ctx, LeadFromProspect(p))
}

// LeadFromProspect は見込み客をリードに変換する（IDとスコアは未設定）
func LeadFromProspect(p prospect.LeadProspect) lead.Lead {
	l := lead.Lead{
		Name:        p.CompanyName,
		Company:     p.CompanyName,
		Source:      SourceProspecting,
		Status:      StatusNew,
		Industry:    p.Industry,
		CompanySize: p.CompanySize,
	}

	custom := map[string]string{}
	put := func(key, value string) {
		if value != "" {
			custom[key] = value
		}
	}
	put("summary", p.Summary)
	put("location", p.Location)
	put("website", p.Website)
	put("intentSignal", p.IntentSignal)
	put("sourceUrl", p.SourceURL)
	put("prospectId", p.ID)

	if c := p.Contact; c != nil {
		if c.Name != "" {
			l.Name = c.Name
		}
		l.Email = c.Email
		l.Phone = c.Phone
		put("contactTitle", c.Title)
		put("linkedin", c.LinkedIn)
	}

	if len(custom) > 0 {
		l.CustomFields = custom
	}
	return l
}

// ListLeads は登録済みリードを返す
func (s *Service) ListLeads(ctx context.Context) ([]lead.Lead, error) {
	return s.repo.ListLeads(ctx)
}

// GetLead はIDでリードを返す
func (s *Service) GetLead(ctx context.Context, id string) (lead.Lead, error) {
	return s.repo.GetLead(ctx, id)
}

// DeleteLead はリードを削除する
func (s *Service) DeleteLead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteLead(ctx, id)
}

// ListRules はスコアリングルールを返す
func (s *Service) ListRules(ctx context.Context) ([]lead.ScoringRule, error) {
	return s.repo.ListRules(ctx)
}

// SaveRule はルールを保存し、全リードを再スコアリングする
func (s *Service) SaveRule(ctx context.Context, r lead.ScoringRule) (lead.ScoringRule, error) {
	r.Condition.Field = strings.TrimSpace(r.Condition.Field)
	if r.Condition.Field == "" {
		return lead.ScoringRule{}, fmt.Errorf("%w: condition field is required", ErrInvalidRule)
	}
	if !r.Condition.Operator.IsKnown() {
		// 評価時は常に不一致になるだけなので保存は許可する
		s.logger.Warn("scoring rule uses unknown operator",
			zap.String("rule_id", r.ID),
			zap.String("operator", r.Condition.Operator.String()),
		)
	}
	if r.ID == "" {
		r.ID = job.NewEntityID("rule")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return lead.ScoringRule{}, fmt.Errorf("failed to load scoring rules: %w", err)
	}
	if err := s.commitRules(ctx, lead.UpsertRule(rules, r)); err != nil {
		return lead.ScoringRule{}, err
	}
	return r, nil
}

// DeleteRule はルールを削除し、全リードを再スコアリングする
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scoring rules: %w", err)
	}
	rules, err = lead.RemoveRule(rules, id)
	if err != nil {
		return err
	}
	return s.commitRules(ctx, rules)
}

// commitRules は新しいルール集合で全リードを1パスで再計算し、ルールと同時に保存する。
// 失敗時はルールもスコアも変わらない。呼び出し側で mu を保持すること
func (s *Service) commitRules(ctx context.Context, rules []lead.ScoringRule) error {
	leads, err := s.repo.ListLeads(ctx)
	if err != nil {
		return fmt.Errorf("failed to load leads: %w", err)
	}

	if err := s.repo.ReplaceBook(ctx, lead.ScoreAll(leads, rules), rules); err != nil {
		return fmt.Errorf("failed to store rules and rescored leads: %w", err)
	}

	s.logger.Info("leads rescored", zap.Int("leads", len(leads)), zap.Int("rules", len(rules)))
	return nil
}

// assistantInstruction は画面の文脈をシステム指示に埋め込む
func (s *Service) assistantInstruction(kind string, data any, logger *zap.Logger) string {
	if kind == "" {
		kind = "general"
	}

	var b strings.Builder
	b.WriteString("You are the operations assistant of a logistics management console. ")
	b.WriteString("Answer concisely and ground claims in the provided context or retrieved sources.\n")
	fmt.Fprintf(&b, "The user is currently viewing: %s.\n", kind)

	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			logger.Warn("context data is not JSON encodable", zap.Error(err))
		} else {
			b.WriteString("Current context data (JSON):\n")
			b.Write(encoded)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// historyMessages は会話履歴を正規化する（空メッセージは除外、未知のロールはユーザー扱い）
func historyMessages(history []llm.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if m.Role == llm.RoleModel || m.Role == "assistant" {
			role = llm.RoleModel
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	return messages
}

// responseText はプロバイダーのテキストを優先し、なければ生レスポンスから取り出す
func responseText(resp llm.GenerateResponse) string {
	if text := strings.TrimSpace(resp.Text); text != "" {
		return text
	}
	if len(resp.Raw) == 0 {
		return ""
	}
	return extract.ExtractText(resp.Raw)
}
