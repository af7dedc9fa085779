package polls

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
	"github.com/nmtun/seeboi-backend/internal/realtime"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Store is the poll persistence surface the handler needs.
type Store interface {
	Vote(ctx context.Context, pollID, optionID, userID int64) (Action, error)
	Unvote(ctx context.Context, pollID, userID int64) error
	Result(ctx context.Context, pollID, userID int64) (*Result, error)
	FindVote(ctx context.Context, pollID, userID int64) (*int64, error)
}

// Broadcaster pushes live poll results to post rooms. Room events go through
// Redis only; the room subscription broadcasts them locally exactly once.
type Broadcaster interface {
	PublishOnly(room, event string, payload interface{})
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	store  Store
	hub    Broadcaster
	logger *zap.Logger
}

// NewHandler creates a poll handler.
func NewHandler(store Store, hub Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{store: store, hub: hub, logger: logger}
}

// VoteRequest is the body for POST /polls/:id/vote.
type VoteRequest struct {
	OptionID int64 `json:"option_id" binding:"required"`
}

// VoteResponse reports which transition happened plus the fresh tally.
type VoteResponse struct {
	Action Action  `json:"action"`
	Result *Result `json:"result"`
}

func pollID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid poll id")
		return 0, false
	}
	return id, true
}

// Vote handles POST /polls/:id/vote. Voting is a toggle: selecting the
// current option removes the vote, selecting another moves it.
func (h *Handler) Vote(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	action, err := h.store.Vote(c.Request.Context(), id, req.OptionID, userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.NotFound(c, "poll not found")
		return
	case errors.Is(err, ErrPollExpired):
		response.Forbidden(c, "poll has expired")
		return
	case errors.Is(err, ErrOptionNotInPoll):
		response.BadRequest(c, "option does not belong to this poll")
		return
	case err != nil:
		h.logger.Error("poll vote failed", zap.Int64("poll_id", id), zap.Error(err))
		response.Internal(c, "failed to record vote")
		return
	}

	result, err := h.store.Result(c.Request.Context(), id, userID)
	if err != nil {
		h.logger.Error("poll result failed", zap.Int64("poll_id", id), zap.Error(err))
		response.Internal(c, "failed to load result")
		return
	}
	if h.hub != nil {
		public := *result
		public.UserVote = nil
		h.hub.PublishOnly(realtime.PostRoom(result.PostID), "pollResult", public)
	}
	response.OK(c, VoteResponse{Action: action, Result: result})
}

// Unvote handles DELETE /polls/:id/vote. Unlike voting, retraction is
// allowed after the poll expires.
func (h *Handler) Unvote(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)

	err := h.store.Unvote(c.Request.Context(), id, userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.NotFound(c, "poll not found")
		return
	case errors.Is(err, ErrNotVoted):
		response.BadRequest(c, "you have not voted in this poll")
		return
	case err != nil:
		h.logger.Error("poll unvote failed", zap.Int64("poll_id", id), zap.Error(err))
		response.Internal(c, "failed to remove vote")
		return
	}

	result, err := h.store.Result(c.Request.Context(), id, userID)
	if err != nil {
		h.logger.Error("poll result failed", zap.Int64("poll_id", id), zap.Error(err))
		response.Internal(c, "failed to load result")
		return
	}
	if h.hub != nil {
		public := *result
		public.UserVote = nil
		h.hub.PublishOnly(realtime.PostRoom(result.PostID), "pollResult", public)
	}
	response.OK(c, VoteResponse{Action: ActionUnvote, Result: result})
}

// GetResult handles GET /polls/:id/result. Works for anonymous callers;
// authenticated callers also get their own selection.
func (h *Handler) GetResult(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(c)

	result, err := h.store.Result(c.Request.Context(), id, userID)
	if err != nil {
		response.FromRepoError(c, err, "poll not found", "failed to load result")
		return
	}
	response.OK(c, result)
}

// GetUserVote handles GET /polls/:id/vote. Anonymous callers and users who
// have not voted both get a null option id.
func (h *Handler) GetUserVote(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		response.OK(c, gin.H{"option_id": nil})
		return
	}

	optionID, err := h.store.FindVote(c.Request.Context(), id, userID)
	if err != nil {
		h.logger.Error("vote lookup failed", zap.Int64("poll_id", id), zap.Error(err))
		response.Internal(c, "failed to load vote")
		return
	}
	response.OK(c, gin.H{"option_id": optionID})
}
