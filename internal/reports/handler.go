package reports

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

const (
	defaultPage = 20
	maxPage     = 100
)

// Notifier creates a notification and pushes it over the realtime channel.
type Notifier interface {
	Notify(ctx context.Context, userID int64, ntype, content string, refID *int64) error
}

// Handler serves report creation and the admin moderation queue.
type Handler struct {
	repo     *Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a report handler.
func NewHandler(repo *Repository, notifier Notifier, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

type createRequest struct {
	PostID    *int64 `json:"post_id"`
	CommentID *int64 `json:"comment_id"`
	Reason    string `json:"reason" binding:"required"`
}

// Create files a report against a post or a comment.
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "reason is required")
		return
	}
	if (req.PostID == nil) == (req.CommentID == nil) {
		response.BadRequest(c, "exactly one of post_id or comment_id is required")
		return
	}

	exists, err := h.repo.TargetExists(c.Request.Context(), req.PostID, req.CommentID)
	if err != nil {
		h.logger.Error("report target lookup failed", zap.Error(err))
		response.Internal(c, "failed to create report")
		return
	}
	if !exists {
		response.NotFound(c, "reported content not found")
		return
	}

	pending, err := h.repo.HasPending(c.Request.Context(), userID, req.PostID, req.CommentID)
	if err != nil {
		h.logger.Error("pending report lookup failed", zap.Error(err))
		response.Internal(c, "failed to create report")
		return
	}
	if pending {
		response.Forbidden(c, "you already have an open report on this content")
		return
	}

	rep, err := h.repo.Create(c.Request.Context(), &userID, req.PostID, req.CommentID, req.Reason)
	if err != nil {
		h.logger.Error("failed to create report", zap.Error(err))
		response.Internal(c, "failed to create report")
		return
	}
	response.Created(c, rep)
}

// List returns the admin moderation queue.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	switch models.ReportStatus(status) {
	case "", models.ReportPending, models.ReportReviewed, models.ReportResolved, models.ReportRejected:
	default:
		response.BadRequest(c, "invalid status filter")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPage)))
	if limit < 1 || limit > maxPage {
		limit = defaultPage
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	list, err := h.repo.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("failed to list reports", zap.Error(err))
		response.Internal(c, "failed to list reports")
		return
	}
	response.OK(c, list)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Action string `json:"action"` // for RESOLVED: "remove" or "warn"
}

// UpdateStatus moves a report through the moderation workflow. Resolving a
// report with action "remove" hides the content and notifies its author;
// "warn" only notifies. The reporter is told the outcome either way.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status is required")
		return
	}
	status := models.ReportStatus(req.Status)
	switch status {
	case models.ReportReviewed, models.ReportResolved, models.ReportRejected:
	default:
		response.BadRequest(c, "invalid status")
		return
	}
	if status == models.ReportResolved && req.Action != "remove" && req.Action != "warn" {
		response.BadRequest(c, "action must be remove or warn")
		return
	}

	rep, err := h.repo.GetByID(c.Request.Context(), id)
	if err == pgx.ErrNoRows {
		response.NotFound(c, "report not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load report", zap.Error(err))
		response.Internal(c, "failed to update report")
		return
	}

	if err := h.repo.SetStatus(c.Request.Context(), id, status); err != nil {
		h.logger.Error("failed to update report status", zap.Error(err))
		response.Internal(c, "failed to update report")
		return
	}

	ctx := c.Request.Context()
	if status == models.ReportResolved {
		authorID, err := h.repo.ContentAuthor(ctx, rep)
		if err != nil && err != pgx.ErrNoRows {
			h.logger.Error("failed to resolve content author", zap.Error(err))
		}
		switch req.Action {
		case "remove":
			if err := h.repo.HideContent(ctx, rep); err != nil {
				h.logger.Error("failed to hide reported content", zap.Error(err))
				response.Internal(c, "failed to update report")
				return
			}
			if authorID != 0 {
				_ = h.notifier.Notify(ctx, authorID, models.NotifyContentRemoved,
					"Your content was removed after a report was reviewed", rep.PostID)
			}
		case "warn":
			if authorID != 0 {
				_ = h.notifier.Notify(ctx, authorID, models.NotifyContentWarning,
					"Your content received a warning after a report was reviewed", rep.PostID)
			}
		}
	}
	if rep.ReporterID != nil && (status == models.ReportResolved || status == models.ReportRejected) {
		_ = h.notifier.Notify(ctx, *rep.ReporterID, models.NotifyReportResolved,
			"Your report has been reviewed", &rep.ID)
	}

	rep.Status = status
	response.OK(c, rep)
}
