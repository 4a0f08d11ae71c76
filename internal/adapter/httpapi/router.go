package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/domain/job"
)

// RequestIDHeader は呼び出し元とログを突き合わせるための相関IDヘッダー
const RequestIDHeader = "X-Request-ID"

// Observer はリクエスト計測とメトリクス公開
type Observer interface {
	ObserveHTTP(method, path string, status int, elapsed time.Duration)
	Handler() http.Handler
}

// NewRouter はルーティング済みの gin.Engine を作成。observer が nil なら /metrics は提供しない
func NewRouter(h *Handler, observer Observer, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger, observer))

	router.GET("/health", h.Health)
	if observer != nil {
		router.GET("/metrics", gin.WrapH(observer.Handler()))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/prospects", h.FindProspects)
		v1.POST("/assistant", h.Assistant)
		v1.POST("/route", h.Route)

		v1.GET("/leads", h.ListLeads)
		v1.POST("/leads", h.CreateLead)
		v1.POST("/leads/accept", h.AcceptProspect)
		v1.GET("/leads/:id", h.GetLead)
		v1.DELETE("/leads/:id", h.DeleteLead)

		v1.GET("/rules", h.ListRules)
		v1.PUT("/rules", h.SaveRule)
		v1.DELETE("/rules/:id", h.DeleteRule)

		v1.POST("/score", h.Score)
	}

	return router
}

// requestLogger はアクセスログとレイテンシ計測を行う。
// 相関IDはヘッダーから引き継ぎ、無ければ採番してサービス層のログと揃える
func requestLogger(logger *zap.Logger, observer Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		jobID := job.JobIDFromString(c.GetHeader(RequestIDHeader))
		if jobID.IsZero() {
			jobID = job.NewJobID()
		}
		c.Request = c.Request.WithContext(job.WithJobID(c.Request.Context(), jobID))
		c.Header(RequestIDHeader, jobID.String())

		c.Next()
		elapsed := time.Since(start)

		// 未定義ルートはラベルの種類を増やさないようまとめる
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, path, status, elapsed)
		}
		logger.Info("http request",
			zap.String("job_id", jobID.String()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
	}
}
