package collections

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Handler serves bookmark collection CRUD.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a collection handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type collectionRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// Create adds a collection for the caller.
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}

	col, err := h.repo.Create(c.Request.Context(), userID, name, req.Description)
	if err == ErrDuplicateName {
		response.Conflict(c, "a collection with that name already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to create collection", zap.Error(err))
		response.Internal(c, "failed to create collection")
		return
	}
	response.Created(c, col)
}

// List returns the caller's collections.
func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	list, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list collections", zap.Error(err))
		response.Internal(c, "failed to list collections")
		return
	}
	response.OK(c, list)
}

// Update renames a collection.
func (h *Handler) Update(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid collection id")
		return
	}

	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}

	col, err := h.repo.Rename(c.Request.Context(), id, userID, name, req.Description)
	switch {
	case err == pgx.ErrNoRows:
		response.NotFound(c, "collection not found")
	case err == ErrNotOwner:
		response.Forbidden(c, "not your collection")
	case err == ErrDuplicateName:
		response.Conflict(c, "a collection with that name already exists")
	case err != nil:
		h.logger.Error("failed to update collection", zap.Error(err))
		response.Internal(c, "failed to update collection")
	default:
		response.OK(c, col)
	}
}

// Delete removes a collection, leaving its bookmarks uncategorized.
func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid collection id")
		return
	}

	switch err := h.repo.Delete(c.Request.Context(), id, userID); {
	case err == pgx.ErrNoRows:
		response.NotFound(c, "collection not found")
	case err == ErrNotOwner:
		response.Forbidden(c, "not your collection")
	case err != nil:
		h.logger.Error("failed to delete collection", zap.Error(err))
		response.Internal(c, "failed to delete collection")
	default:
		response.OKMessage(c, "collection deleted")
	}
}
