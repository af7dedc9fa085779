package tags

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Handler handles tag HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a tag handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// TagRequest is the body for create/update.
type TagRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func tagIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid tag id")
		return 0, false
	}
	return id, true
}

// List handles GET /tags.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.GetInt64(middleware.ContextUserID))
	if err != nil {
		h.logger.Error("list tags failed", zap.Error(err))
		response.Internal(c, "failed to list tags")
		return
	}
	response.OK(c, list)
}

// Create handles POST /admin/tags.
func (h *Handler) Create(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		response.BadRequest(c, "tag name is required")
		return
	}

	tag, err := h.repo.Create(c.Request.Context(), name, req.Description)
	if err != nil {
		response.Conflict(c, "tag already exists")
		return
	}
	response.Created(c, tag)
}

// Update handles PUT /admin/tags/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := tagIDParam(c)
	if !ok {
		return
	}
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))

	tag, err := h.repo.Update(c.Request.Context(), id, name, req.Description)
	if err != nil {
		response.FromRepoError(c, err, "tag not found", "failed to update tag")
		return
	}
	response.OK(c, tag)
}

// Delete handles DELETE /admin/tags/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := tagIDParam(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.FromRepoError(c, err, "tag not found", "failed to delete tag")
		return
	}
	response.OKMessage(c, "tag deleted")
}

// Follow handles POST /tags/:id/follow.
func (h *Handler) Follow(c *gin.Context) {
	id, ok := tagIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)
	if err := h.repo.Follow(c.Request.Context(), userID, id); err != nil {
		response.FromRepoError(c, err, "tag not found", "failed to follow tag")
		return
	}
	response.OKMessage(c, "following tag")
}

// Unfollow handles DELETE /tags/:id/follow.
func (h *Handler) Unfollow(c *gin.Context) {
	id, ok := tagIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)
	if err := h.repo.Unfollow(c.Request.Context(), userID, id); err != nil {
		response.Internal(c, "failed to unfollow tag")
		return
	}
	response.OKMessage(c, "unfollowed tag")
}

// Followed handles GET /tags/followed.
func (h *Handler) Followed(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)
	list, err := h.repo.Followed(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list followed tags")
		return
	}
	response.OK(c, list)
}
