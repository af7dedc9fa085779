package trending

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/pkg/response"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Store is the trending computation surface the handler needs.
type Store interface {
	TopPosts(ctx context.Context, rankBy string, since time.Time, limit int) ([]TrendingPost, error)
	GetStats(ctx context.Context, now time.Time) (*Stats, error)
}

// Handler handles trending HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a trending handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger, now: time.Now}
}

// List handles GET /trending?type=views&period=24h&limit=10.
func (h *Handler) List(c *gin.Context) {
	rankBy := c.Query("type")
	if rankBy != RankViews && rankBy != RankLikes {
		response.BadRequest(c, "type must be views or likes")
		return
	}
	period := c.DefaultQuery("period", Period24h)
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			response.BadRequest(c, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	now := h.now()
	since, err := WindowStart(period, now)
	if err != nil {
		response.BadRequest(c, "period must be one of 24h, today, week, month")
		return
	}

	posts, err := h.store.TopPosts(c.Request.Context(), rankBy, since, limit)
	if err != nil {
		h.logger.Error("trending query failed",
			zap.String("type", rankBy), zap.String("period", period), zap.Error(err))
		response.Internal(c, "failed to compute trending posts")
		return
	}
	response.OK(c, gin.H{
		"type":   rankBy,
		"period": period,
		"since":  since,
		"posts":  posts,
	})
}

// GetStats handles GET /trending/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, stats)
}
