package posts

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/internal/polls"
	"github.com/nmtun/seeboi-backend/pkg/queue"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

const (
	minPollOptions = 2
	maxPollOptions = 10
	defaultPage    = 20
	maxPage        = 100
)

// Enqueuer hands async work to the worker process.
type Enqueuer interface {
	EnqueueModerationScan(ctx context.Context, payload queue.ModerationScanPayload) error
	EnqueueNotificationFanout(ctx context.Context, payload queue.NotificationFanoutPayload) error
}

// Notifier creates a notification and pushes it over the realtime channel.
type Notifier interface {
	Notify(ctx context.Context, userID int64, ntype, content string, refID *int64) error
}

// XPGranter awards experience points for user actions.
type XPGranter interface {
	Grant(ctx context.Context, userID int64, action string) error
}

// Handler handles post HTTP endpoints.
type Handler struct {
	repo     *Repository
	polls    *polls.Repository
	queue    Enqueuer
	notifier Notifier
	xp       XPGranter
	logger   *zap.Logger
}

// NewHandler creates a post handler.
func NewHandler(repo *Repository, pollRepo *polls.Repository, q Enqueuer, notifier Notifier, xp XPGranter, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, polls: pollRepo, queue: q, notifier: notifier, xp: xp, logger: logger}
}

// CreateRequest is the body for POST /posts.
type CreateRequest struct {
	Title         *string         `json:"title"`
	Content       *string         `json:"content"`
	ContentJSON   json.RawMessage `json:"content_json"`
	ContentText   *string         `json:"content_text"`
	ContentFormat string          `json:"content_format"`
	ThumbnailURL  *string         `json:"thumbnail_url"`
	Type          string          `json:"type"`
	Visibility    string          `json:"visibility"`
	IsDraft       bool            `json:"is_draft"`
	Tags          []string        `json:"tags"`
	Images        []string        `json:"images"`
	PollOptions   []string        `json:"poll_options"`
	PollExpiresAt *time.Time      `json:"poll_expires_at"`
}

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid post id")
		return 0, false
	}
	return id, true
}

func normalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Create handles POST /posts.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	postType := models.PostTypeText
	switch req.Type {
	case "", string(models.PostTypeText):
	case string(models.PostTypeRich):
		postType = models.PostTypeRich
	case string(models.PostTypePoll):
		postType = models.PostTypePoll
	default:
		response.BadRequest(c, "invalid post type")
		return
	}

	visibility := models.VisibilityPublic
	switch req.Visibility {
	case "", string(models.VisibilityPublic):
	case string(models.VisibilityFollowers):
		visibility = models.VisibilityFollowers
	case string(models.VisibilityPrivate):
		visibility = models.VisibilityPrivate
	default:
		response.BadRequest(c, "invalid visibility")
		return
	}

	format := models.FormatPlainText
	if req.ContentFormat == string(models.FormatTiptapJSON) {
		format = models.FormatTiptapJSON
	}

	if postType == models.PostTypePoll {
		opts := make([]string, 0, len(req.PollOptions))
		for _, o := range req.PollOptions {
			if t := strings.TrimSpace(o); t != "" {
				opts = append(opts, t)
			}
		}
		req.PollOptions = opts
		if len(opts) < minPollOptions || len(opts) > maxPollOptions {
			response.BadRequest(c, "polls need between 2 and 10 options")
			return
		}
		if req.PollExpiresAt != nil && req.PollExpiresAt.Before(time.Now()) {
			response.BadRequest(c, "poll expiry must be in the future")
			return
		}
	}

	hasBody := (req.Content != nil && strings.TrimSpace(*req.Content) != "") ||
		len(req.ContentJSON) > 0 || postType == models.PostTypePoll
	if !hasBody {
		response.BadRequest(c, "post content is required")
		return
	}

	post, err := h.repo.Create(c.Request.Context(), CreateParams{
		UserID:        userID,
		Title:         req.Title,
		Content:       req.Content,
		ContentJSON:   req.ContentJSON,
		ContentText:   req.ContentText,
		ContentFormat: format,
		ThumbnailURL:  req.ThumbnailURL,
		Type:          postType,
		Visibility:    visibility,
		IsDraft:       req.IsDraft,
		Tags:          normalizeTags(req.Tags),
		Images:        req.Images,
		PollOptions:   req.PollOptions,
		PollExpiresAt: req.PollExpiresAt,
	})
	if err != nil {
		h.logger.Error("create post failed", zap.Error(err))
		response.Internal(c, "failed to create post")
		return
	}

	if !post.IsDraft {
		h.afterPublish(c.Request.Context(), post)
	}
	response.Created(c, post)
}

// afterPublish runs the side effects of a post going live: XP, the AI
// moderation scan and follower notifications. All of them are best effort.
func (h *Handler) afterPublish(ctx context.Context, post *models.Post) {
	if h.xp != nil {
		if err := h.xp.Grant(ctx, post.UserID, "POST"); err != nil {
			h.logger.Warn("xp grant failed", zap.Int64("user_id", post.UserID), zap.Error(err))
		}
	}
	if h.queue == nil {
		return
	}
	text := ""
	if post.Title != nil {
		text = *post.Title
	}
	if post.ContentText != nil {
		text += "\n" + *post.ContentText
	} else if post.Content != nil {
		text += "\n" + *post.Content
	}
	if err := h.queue.EnqueueModerationScan(ctx, queue.ModerationScanPayload{
		ContentType: "post",
		ContentID:   post.ID,
		AuthorID:    post.UserID,
		Text:        text,
	}); err != nil {
		h.logger.Warn("enqueue moderation scan failed", zap.Int64("post_id", post.ID), zap.Error(err))
	}
	if post.Visibility != models.VisibilityPrivate {
		if err := h.queue.EnqueueNotificationFanout(ctx, queue.NotificationFanoutPayload{
			PostID:   post.ID,
			AuthorID: post.UserID,
		}); err != nil {
			h.logger.Warn("enqueue fanout failed", zap.Int64("post_id", post.ID), zap.Error(err))
		}
	}
}

// Get handles GET /posts/:id. Every successful read logs a view event.
func (h *Handler) Get(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	viewerID := middleware.UserIDFromContext(c)

	post, err := h.repo.GetByID(c.Request.Context(), id, viewerID)
	if err != nil {
		response.FromRepoError(c, err, "post not found", "failed to load post")
		return
	}
	if !canView(post, viewerID) {
		response.NotFound(c, "post not found")
		return
	}

	var viewer *int64
	if viewerID != 0 {
		viewer = &viewerID
	}
	if err := h.repo.LogView(c.Request.Context(), post.ID, viewer); err != nil {
		h.logger.Warn("log view failed", zap.Int64("post_id", post.ID), zap.Error(err))
	} else {
		post.ViewCount++
	}

	out := gin.H{"post": post}
	if post.Type == models.PostTypePoll {
		if poll, err := h.polls.GetByPostID(c.Request.Context(), post.ID); err == nil {
			out["poll"] = poll
		}
	}
	if viewerID != 0 {
		liked, err := h.repo.HasLiked(c.Request.Context(), post.ID, viewerID)
		if err == nil {
			out["liked"] = liked
		}
	}
	response.OK(c, out)
}

// canView applies visibility rules for a single post read. FOLLOWERS
// visibility is checked in the list query; for single reads the repository
// returned the post, so only PRIVATE needs a second look here.
func canView(post *models.Post, viewerID int64) bool {
	if post.UserID == viewerID {
		return true
	}
	if post.Status != models.StatusVisible || post.IsDraft {
		return false
	}
	return post.Visibility != models.VisibilityPrivate
}

// List handles GET /posts?author_id=&tag_id=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	viewerID := middleware.UserIDFromContext(c)
	authorID, _ := strconv.ParseInt(c.Query("author_id"), 10, 64)
	tagID, _ := strconv.ParseInt(c.Query("tag_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPage)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > maxPage {
		limit = defaultPage
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := h.repo.List(c.Request.Context(), ListOptions{
		ViewerID: viewerID,
		AuthorID: authorID,
		TagID:    tagID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.logger.Error("list posts failed", zap.Error(err))
		response.Internal(c, "failed to list posts")
		return
	}
	response.OK(c, posts)
}

// ListDrafts handles GET /posts/drafts.
func (h *Handler) ListDrafts(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)
	drafts, err := h.repo.ListDrafts(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list drafts")
		return
	}
	response.OK(c, drafts)
}

// UpdateRequest is the body for PUT /posts/:id.
type UpdateRequest struct {
	Title        *string         `json:"title"`
	Content      *string         `json:"content"`
	ContentJSON  json.RawMessage `json:"content_json"`
	ContentText  *string         `json:"content_text"`
	ThumbnailURL *string         `json:"thumbnail_url"`
	Visibility   *string         `json:"visibility"`
	Tags         []string        `json:"tags"`
}

// Update handles PUT /posts/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	var visibility *models.PostVisibility
	if req.Visibility != nil {
		switch *req.Visibility {
		case string(models.VisibilityPublic), string(models.VisibilityFollowers), string(models.VisibilityPrivate):
			v := models.PostVisibility(*req.Visibility)
			visibility = &v
		default:
			response.BadRequest(c, "invalid visibility")
			return
		}
	}

	var tags []string
	if req.Tags != nil {
		tags = normalizeTags(req.Tags)
	}

	post, err := h.repo.Update(c.Request.Context(), id, userID, UpdateParams{
		Title:        req.Title,
		Content:      req.Content,
		ContentJSON:  req.ContentJSON,
		ContentText:  req.ContentText,
		ThumbnailURL: req.ThumbnailURL,
		Visibility:   visibility,
		Tags:         tags,
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.NotFound(c, "post not found")
		return
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, "you do not own this post")
		return
	case err != nil:
		h.logger.Error("update post failed", zap.Int64("post_id", id), zap.Error(err))
		response.Internal(c, "failed to update post")
		return
	}
	response.OK(c, post)
}

// Publish handles POST /posts/:id/publish.
func (h *Handler) Publish(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	post, err := h.repo.Publish(c.Request.Context(), id, userID)
	if err != nil {
		response.FromRepoError(c, err, "draft not found", "failed to publish post")
		return
	}
	h.afterPublish(c.Request.Context(), post)
	response.OK(c, post)
}

// Delete handles DELETE /posts/:id (soft delete).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.SoftDelete(c.Request.Context(), id, userID); err != nil {
		response.FromRepoError(c, err, "post not found", "failed to delete post")
		return
	}
	response.OKMessage(c, "post deleted")
}

// Restore handles POST /posts/:id/restore.
func (h *Handler) Restore(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.Restore(c.Request.Context(), id, userID); err != nil {
		response.FromRepoError(c, err, "no deleted post to restore", "failed to restore post")
		return
	}
	response.OKMessage(c, "post restored")
}

// HardDelete handles DELETE /posts/:id/permanent.
func (h *Handler) HardDelete(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.HardDelete(c.Request.Context(), id, userID); err != nil {
		response.FromRepoError(c, err, "post not found", "failed to delete post")
		return
	}
	response.OKMessage(c, "post permanently deleted")
}

// Like handles POST /posts/:id/like.
func (h *Handler) Like(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	post, err := h.repo.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		response.FromRepoError(c, err, "post not found", "failed to load post")
		return
	}

	created, err := h.repo.Like(c.Request.Context(), id, userID)
	if err != nil {
		response.Internal(c, "failed to like post")
		return
	}
	if created && post.UserID != userID {
		if h.xp != nil {
			_ = h.xp.Grant(c.Request.Context(), post.UserID, "LIKE_RECEIVED")
		}
		if h.notifier != nil {
			if err := h.notifier.Notify(c.Request.Context(), post.UserID,
				models.NotifyPostLike, "Someone liked your post", &id); err != nil {
				h.logger.Warn("like notification failed", zap.Error(err))
			}
		}
	}
	response.OKMessage(c, "liked")
}

// Unlike handles DELETE /posts/:id/like.
func (h *Handler) Unlike(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.Unlike(c.Request.Context(), id, userID); err != nil {
		response.Internal(c, "failed to unlike post")
		return
	}
	response.OKMessage(c, "unliked")
}

// ViewDetails handles GET /posts/:id/views. Owner only.
func (h *Handler) ViewDetails(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	post, err := h.repo.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		response.FromRepoError(c, err, "post not found", "failed to load post")
		return
	}
	if post.UserID != userID {
		response.Forbidden(c, "only the author can see view details")
		return
	}

	details, err := h.repo.ViewDetails(c.Request.Context(), id, 100)
	if err != nil {
		response.Internal(c, "failed to load view details")
		return
	}
	response.OK(c, details)
}

// BookmarkRequest is the body for POST /posts/:id/bookmark.
type BookmarkRequest struct {
	CollectionID *int64 `json:"collection_id"`
}

// Bookmark handles POST /posts/:id/bookmark.
func (h *Handler) Bookmark(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var req BookmarkRequest
	_ = c.ShouldBindJSON(&req)
	userID := c.GetInt64(middleware.ContextUserID)

	if _, err := h.repo.GetByID(c.Request.Context(), id, userID); err != nil {
		response.FromRepoError(c, err, "post not found", "failed to load post")
		return
	}
	if err := h.repo.Bookmark(c.Request.Context(), id, userID, req.CollectionID); err != nil {
		response.Internal(c, "failed to bookmark post")
		return
	}
	response.OKMessage(c, "bookmarked")
}

// Unbookmark handles DELETE /posts/:id/bookmark.
func (h *Handler) Unbookmark(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.Unbookmark(c.Request.Context(), id, userID); err != nil {
		response.Internal(c, "failed to remove bookmark")
		return
	}
	response.OKMessage(c, "bookmark removed")
}

// ListBookmarks handles GET /bookmarks?collection_id=.
func (h *Handler) ListBookmarks(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)
	collectionID, _ := strconv.ParseInt(c.Query("collection_id"), 10, 64)

	posts, err := h.repo.ListBookmarks(c.Request.Context(), userID, collectionID)
	if err != nil {
		response.Internal(c, "failed to list bookmarks")
		return
	}
	response.OK(c, posts)
}
