package users

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Notifier creates a notification and pushes it over the realtime channel.
type Notifier interface {
	Notify(ctx context.Context, userID int64, ntype, content string, refID *int64) error
}

// Handler handles user profile and follow endpoints.
type Handler struct {
	repo     *Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *Repository, notifier Notifier, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid user id")
		return 0, false
	}
	return id, true
}

// GetProfile handles GET /users/:id.
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	viewerID := middleware.UserIDFromContext(c)

	profile, err := h.repo.GetProfile(c.Request.Context(), id, viewerID)
	if err != nil {
		response.FromRepoError(c, err, "user not found", "failed to load profile")
		return
	}
	response.OK(c, profile)
}

// UpdateRequest is the body for PUT /users/me.
type UpdateRequest struct {
	UserName  *string    `json:"user_name"`
	AvatarURL *string    `json:"avatar_url"`
	Bio       *string    `json:"bio"`
	Gender    *string    `json:"gender"`
	Birthday  *time.Time `json:"birthday"`
}

// UpdateMe handles PUT /users/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	user, err := h.repo.UpdateProfile(c.Request.Context(), userID, UpdateParams{
		UserName:  req.UserName,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
		Gender:    req.Gender,
		Birthday:  req.Birthday,
	})
	if err != nil {
		h.logger.Error("update profile failed", zap.Int64("user_id", userID), zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, user)
}

// Follow handles POST /users/:id/follow.
func (h *Handler) Follow(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)
	if id == userID {
		response.BadRequest(c, "cannot follow yourself")
		return
	}

	if _, err := h.repo.GetProfile(c.Request.Context(), id, 0); err != nil {
		response.FromRepoError(c, err, "user not found", "failed to load user")
		return
	}
	created, err := h.repo.Follow(c.Request.Context(), userID, id)
	if err != nil {
		response.Internal(c, "failed to follow user")
		return
	}
	if created && h.notifier != nil {
		_ = h.notifier.Notify(c.Request.Context(), id, models.NotifyNewFollower, "You have a new follower", &userID)
	}
	response.OKMessage(c, "following")
}

// Unfollow handles DELETE /users/:id/follow.
func (h *Handler) Unfollow(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.Unfollow(c.Request.Context(), userID, id); err != nil {
		response.Internal(c, "failed to unfollow user")
		return
	}
	response.OKMessage(c, "unfollowed")
}

// RemoveFollower handles DELETE /me/followers/:id.
func (h *Handler) RemoveFollower(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	if err := h.repo.RemoveFollower(c.Request.Context(), userID, id); err != nil {
		response.FromRepoError(c, err, "not a follower", "failed to remove follower")
		return
	}
	response.OKMessage(c, "follower removed")
}

// Followers handles GET /users/:id/followers.
func (h *Handler) Followers(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	list, err := h.repo.Followers(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list followers")
		return
	}
	response.OK(c, list)
}

// Following handles GET /users/:id/following.
func (h *Handler) Following(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	list, err := h.repo.Following(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list following")
		return
	}
	response.OK(c, list)
}

// Badges handles GET /users/:id/badges.
func (h *Handler) Badges(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	list, err := h.repo.Badges(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list badges")
		return
	}
	response.OK(c, list)
}

// XPHistory handles GET /users/me/xp.
func (h *Handler) XPHistory(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)
	list, err := h.repo.XPHistory(c.Request.Context(), userID, 50)
	if err != nil {
		response.Internal(c, "failed to load xp history")
		return
	}
	response.OK(c, list)
}
