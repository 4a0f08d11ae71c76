package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/application/qualification"
	"github.com/Nyukimin/leadqual/internal/domain/lead"
	"github.com/Nyukimin/leadqual/internal/domain/llm"
	"github.com/Nyukimin/leadqual/internal/domain/prospect"
	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

// QualificationService はリード獲得パイプラインのインターフェース
type QualificationService interface {
	FindProspects(ctx context.Context, c prospect.Criteria) ([]prospect.LeadProspect, error)
	Answer(ctx context.Context, req qualification.AnswerRequest) qualification.Answer
	Route(prompt string, loc *routing.LatLng) routing.Decision

	CreateLead(ctx context.Context, l lead.Lead) (lead.Lead, error)
	AcceptProspect(ctx context.Context, p prospect.LeadProspect) (lead.Lead, error)
	ListLeads(ctx context.Context) ([]lead.Lead, error)
	GetLead(ctx context.Context, id string) (lead.Lead, error)
	DeleteLead(ctx context.Context, id string) error

	ListRules(ctx context.Context) ([]lead.ScoringRule, error)
	SaveRule(ctx context.Context, r lead.ScoringRule) (lead.ScoringRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// Handler はREST APIハンドラー
type Handler struct {
	svc    QualificationService
	logger *zap.Logger
}

// NewHandler は新しいHandlerを作成
func NewHandler(svc QualificationService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Health はヘルスチェック
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// FindProspects は見込み客探索
func (h *Handler) FindProspects(c *gin.Context) {
	var criteria prospect.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	prospects, err := h.svc.FindProspects(c.Request.Context(), criteria)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prospects": prospects})
}

type assistantRequest struct {
	Prompt      string          `json:"prompt" binding:"required"`
	History     []llm.Message   `json:"history,omitempty"`
	ContextData any             `json:"contextData,omitempty"`
	ContextKind string          `json:"contextKind,omitempty"`
	Location    *routing.LatLng `json:"location,omitempty"`
}

// Assistant はアシスタント問い合わせ。リモート失敗時も200で固定文を返す
func (h *Handler) Assistant(c *gin.Context) {
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: prompt is required"})
		return
	}
	answer := h.svc.Answer(c.Request.Context(), qualification.AnswerRequest{
		Prompt:      req.Prompt,
		History:     req.History,
		ContextData: req.ContextData,
		ContextKind: req.ContextKind,
		Location:    req.Location,
	})
	c.JSON(http.StatusOK, answer)
}

type routeRequest struct {
	Prompt   string          `json:"prompt"`
	Location *routing.LatLng `json:"location,omitempty"`
}

// Route はルーティング決定を返す（診断用）
func (h *Handler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.svc.Route(req.Prompt, req.Location))
}

// ListLeads はリード一覧
func (h *Handler) ListLeads(c *gin.Context) {
	leads, err := h.svc.ListLeads(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

// CreateLead はリード登録
func (h *Handler) CreateLead(c *gin.Context) {
	var l lead.Lead
	if err := c.ShouldBindJSON(&l); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.CreateLead(c.Request.Context(), l)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetLead はリード取得
func (h *Handler) GetLead(c *gin.Context) {
	l, err := h.svc.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DeleteLead はリード削除
func (h *Handler) DeleteLead(c *gin.Context) {
	if err := h.svc.DeleteLead(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptProspect は見込み客をリードとして登録
func (h *Handler) AcceptProspect(c *gin.Context) {
	var p prospect.LeadProspect
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.AcceptProspect(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListRules はスコアリングルール一覧
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.svc.ListRules(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// SaveRule はルールを保存（全リード再スコアリング）
func (h *Handler) SaveRule(c *gin.Context) {
	var r lead.ScoringRule
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	saved, err := h.svc.SaveRule(c.Request.Context(), r)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteRule はルールを削除（全リード再スコアリング）
func (h *Handler) DeleteRule(c *gin.Context) {
	if err := h.svc.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type scoreRequest struct {
	Lead  *lead.Lead         `json:"lead,omitempty"`
	Leads []lead.Lead        `json:"leads,omitempty"`
	Rules []lead.ScoringRule `json:"rules"`
}

// Score は保存せずにスコアを計算する
func (h *Handler) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	switch {
	case req.Lead != nil:
		c.JSON(http.StatusOK, gin.H{"score": lead.Score(*req.Lead, req.Rules)})
	case req.Leads != nil:
		c.JSON(http.StatusOK, gin.H{"leads": lead.ScoreAll(req.Leads, req.Rules)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: lead or leads is required"})
	}
}

// writeError はドメインエラーをHTTPステータスに変換
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prospect.ErrInvalidCriteria),
		errors.Is(err, qualification.ErrInvalidLead),
		errors.Is(err, qualification.ErrInvalidRule):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lead.ErrLeadNotFound), errors.Is(err, lead.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
