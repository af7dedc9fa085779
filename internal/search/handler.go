package search

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Handler handles search HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a search handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Search handles GET /search?q=&type=posts|users|all&limit=.
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.BadRequest(c, "query is required")
		return
	}
	kind := c.DefaultQuery("type", "all")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}
	viewerID := middleware.UserIDFromContext(c)

	out := gin.H{}
	if kind == "users" || kind == "all" {
		users, err := h.repo.Users(c.Request.Context(), query, limit)
		if err != nil {
			h.logger.Error("user search failed", zap.String("q", query), zap.Error(err))
			response.Internal(c, "search failed")
			return
		}
		out["users"] = users
	}
	if kind == "posts" || kind == "all" {
		posts, err := h.repo.Posts(c.Request.Context(), query, viewerID, limit)
		if err != nil {
			h.logger.Error("post search failed", zap.String("q", query), zap.Error(err))
			response.Internal(c, "search failed")
			return
		}
		out["posts"] = posts
	}
	if len(out) == 0 {
		response.BadRequest(c, "type must be posts, users or all")
		return
	}
	response.OK(c, out)
}
