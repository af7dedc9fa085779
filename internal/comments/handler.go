package comments

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/internal/realtime"
	"github.com/nmtun/seeboi-backend/pkg/queue"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

// PostLookup resolves the author of a post so the handler can notify them.
type PostLookup interface {
	PostAuthor(ctx context.Context, postID int64) (int64, error)
}

// Notifier creates a notification and pushes it over the realtime channel.
type Notifier interface {
	Notify(ctx context.Context, userID int64, ntype, content string, refID *int64) error
}

// XPGranter awards experience points for user actions.
type XPGranter interface {
	Grant(ctx context.Context, userID int64, action string) error
}

// Enqueuer hands async moderation work to the worker process.
type Enqueuer interface {
	EnqueueModerationScan(ctx context.Context, payload queue.ModerationScanPayload) error
}

// Broadcaster pushes live comment events to post rooms. Room events go through
// Redis only; the room subscription broadcasts them locally exactly once.
type Broadcaster interface {
	PublishOnly(room, event string, payload interface{})
}

// Handler handles comment HTTP endpoints.
type Handler struct {
	repo     *Repository
	posts    PostLookup
	notifier Notifier
	xp       XPGranter
	queue    Enqueuer
	hub      Broadcaster
	logger   *zap.Logger
}

// NewHandler creates a comment handler.
func NewHandler(repo *Repository, posts PostLookup, notifier Notifier, xp XPGranter, q Enqueuer, hub Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, posts: posts, notifier: notifier, xp: xp, queue: q, hub: hub, logger: logger}
}

// CreateRequest is the body for POST /posts/:id/comments.
type CreateRequest struct {
	Content     string   `json:"content" binding:"required"`
	ParentID    *int64   `json:"parent_id"`
	IsAnonymous bool     `json:"is_anonymous"`
	Images      []string `json:"images"`
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Create handles POST /posts/:id/comments.
func (h *Handler) Create(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	authorID, err := h.posts.PostAuthor(c.Request.Context(), postID)
	if err != nil {
		response.FromRepoError(c, err, "post not found", "failed to load post")
		return
	}

	cm, err := h.repo.Create(c.Request.Context(), CreateParams{
		PostID:      postID,
		UserID:      userID,
		ParentID:    req.ParentID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		Images:      req.Images,
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.BadRequest(c, "parent comment not found on this post")
		return
	case err != nil:
		h.logger.Error("create comment failed", zap.Int64("post_id", postID), zap.Error(err))
		response.Internal(c, "failed to create comment")
		return
	}

	if h.xp != nil {
		_ = h.xp.Grant(c.Request.Context(), userID, "COMMENT")
	}
	if h.queue != nil {
		_ = h.queue.EnqueueModerationScan(c.Request.Context(), queue.ModerationScanPayload{
			ContentType: "comment",
			ContentID:   cm.ID,
			AuthorID:    userID,
			Text:        cm.Content,
		})
	}
	if h.notifier != nil && authorID != userID {
		if err := h.notifier.Notify(c.Request.Context(), authorID,
			models.NotifyPostComment, "New comment on your post", &postID); err != nil {
			h.logger.Warn("comment notification failed", zap.Error(err))
		}
	}
	if h.hub != nil {
		h.hub.PublishOnly(realtime.PostRoom(postID), "newComment", cm)
	}
	response.Created(c, cm)
}

// List handles GET /posts/:id/comments?sort=newest|oldest|top.
func (h *Handler) List(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	sort := c.DefaultQuery("sort", SortNewest)
	if sort != SortNewest && sort != SortOldest && sort != SortTop {
		response.BadRequest(c, "sort must be newest, oldest or top")
		return
	}
	viewerID := middleware.UserIDFromContext(c)

	list, err := h.repo.ListByPost(c.Request.Context(), postID, viewerID, sort)
	if err != nil {
		h.logger.Error("list comments failed", zap.Int64("post_id", postID), zap.Error(err))
		response.Internal(c, "failed to list comments")
		return
	}
	response.OK(c, list)
}

// Count handles GET /posts/:id/comments/count.
func (h *Handler) Count(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.repo.Count(c.Request.Context(), postID)
	if err != nil {
		response.Internal(c, "failed to count comments")
		return
	}
	response.OK(c, gin.H{"count": n})
}

// UpdateRequest is the body for PUT /comments/:id.
type UpdateRequest struct {
	Content string `json:"content" binding:"required"`
}

// Update handles PUT /comments/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	cm, err := h.repo.Update(c.Request.Context(), id, userID, req.Content)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.NotFound(c, "comment not found")
		return
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, "you do not own this comment")
		return
	case err != nil:
		response.Internal(c, "failed to update comment")
		return
	}
	response.OK(c, cm)
}

// Delete handles DELETE /comments/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)
	isAdmin := c.GetString(middleware.ContextUserRole) == string(models.RoleAdmin)

	err := h.repo.Delete(c.Request.Context(), id, userID, isAdmin)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.NotFound(c, "comment not found")
		return
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, "you do not own this comment")
		return
	case err != nil:
		response.Internal(c, "failed to delete comment")
		return
	}
	response.OKMessage(c, "comment deleted")
}

// VoteRequest is the body for POST /comments/:id/vote.
type VoteRequest struct {
	Type string `json:"type" binding:"required"`
}

// Vote handles POST /comments/:id/vote.
func (h *Handler) Vote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Type != string(models.VoteUp) && req.Type != string(models.VoteDown) {
		response.BadRequest(c, "vote type must be UP or DOWN")
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	counts, err := h.repo.Vote(c.Request.Context(), id, userID, models.VoteType(req.Type))
	if err != nil {
		response.FromRepoError(c, err, "comment not found", "failed to vote")
		return
	}
	response.OK(c, counts)
}

// RemoveVote handles DELETE /comments/:id/vote.
func (h *Handler) RemoveVote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	counts, err := h.repo.RemoveVote(c.Request.Context(), id, userID)
	if err != nil {
		response.FromRepoError(c, err, "comment not found", "failed to remove vote")
		return
	}
	response.OK(c, counts)
}
