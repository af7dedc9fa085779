package moderation

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Handler exposes admin moderation endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a moderation handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// TestRequest is the body for POST /admin/moderation/test.
type TestRequest struct {
	Content string `json:"content" binding:"required"`
}

// Test handles POST /admin/moderation/test: run one scan and show the verdict.
func (h *Handler) Test(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	verdict := h.svc.Scan(c.Request.Context(), req.Content)
	response.OK(c, verdict)
}

// BatchRequest is the body for POST /admin/moderation/batch.
type BatchRequest struct {
	Contents []string `json:"contents" binding:"required,min=1,max=20"`
}

// Batch handles POST /admin/moderation/batch.
func (h *Handler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	verdicts := make([]Verdict, 0, len(req.Contents))
	for _, content := range req.Contents {
		verdicts = append(verdicts, h.svc.Scan(c.Request.Context(), content))
	}
	response.OK(c, verdicts)
}

// CacheStats handles GET /admin/moderation/cache.
func (h *Handler) CacheStats(c *gin.Context) {
	response.OK(c, h.svc.CacheStats())
}

// CacheClear handles DELETE /admin/moderation/cache.
func (h *Handler) CacheClear(c *gin.Context) {
	h.svc.CacheClear()
	h.logger.Info("moderation cache cleared")
	response.OKMessage(c, "cache cleared")
}
