package tuvi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Generator is the LLM used for chart interpretation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Handler serves chart generation and interpretation.
type Handler struct {
	repo   *Repository
	llm    Generator
	logger *zap.Logger
}

// NewHandler creates a chart handler.
func NewHandler(repo *Repository, llm Generator, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, llm: llm, logger: logger}
}

type generateRequest struct {
	BirthDate  string  `json:"birth_date" binding:"required"` // YYYY-MM-DD
	BirthHour  int     `json:"birth_hour"`
	Gender     string  `json:"gender" binding:"required"`
	BirthPlace *string `json:"birth_place"`
	IsLunar    bool    `json:"is_lunar"`
}

// Generate computes and stores a chart for the caller's birth data.
func (h *Handler) Generate(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "birth_date and gender are required")
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		response.BadRequest(c, "birth_date must be YYYY-MM-DD")
		return
	}
	if req.BirthHour < 0 || req.BirthHour > 23 {
		response.BadRequest(c, "birth_hour must be between 0 and 23")
		return
	}

	chart, solarDate := GenerateChart(birthDate, req.BirthHour, req.Gender, req.BirthPlace, req.IsLunar)

	saved, err := h.repo.Create(c.Request.Context(), userID, solarDate, req.BirthHour,
		req.Gender, req.BirthPlace, req.IsLunar, chart)
	if err != nil {
		h.logger.Error("failed to store chart", zap.Error(err))
		response.Internal(c, "failed to generate chart")
		return
	}
	response.Created(c, saved)
}

// loadOwn fetches a chart and enforces ownership.
func (h *Handler) loadOwn(c *gin.Context) (*models.TuViChart, bool) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid chart id")
		return nil, false
	}

	ch, err := h.repo.GetByID(c.Request.Context(), id)
	if err == pgx.ErrNoRows {
		response.NotFound(c, "chart not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load chart", zap.Error(err))
		response.Internal(c, "failed to load chart")
		return nil, false
	}
	if ch.UserID != userID {
		response.Forbidden(c, "not your chart")
		return nil, false
	}
	return ch, true
}

// Get returns one of the caller's charts.
func (h *Handler) Get(c *gin.Context) {
	ch, ok := h.loadOwn(c)
	if !ok {
		return
	}
	response.OK(c, ch)
}

// List returns all of the caller's charts.
func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list charts", zap.Error(err))
		response.Internal(c, "failed to list charts")
		return
	}
	response.OK(c, list)
}

// Interpret asks the model to read the chart and stores the answer.
func (h *Handler) Interpret(c *gin.Context) {
	rec, ok := h.loadOwn(c)
	if !ok {
		return
	}

	var chart Chart
	if err := json.Unmarshal(rec.ChartData, &chart); err != nil {
		h.logger.Error("stored chart is unreadable", zap.Int64("chart_id", rec.ID), zap.Error(err))
		response.Internal(c, "failed to interpret chart")
		return
	}

	var summary strings.Builder
	for _, house := range chart.Houses {
		stars := strings.Join(house.MajorStars, ", ")
		if stars == "" {
			stars = "Vô chính diệu"
		}
		fmt.Fprintf(&summary, "- %s (%s): %s\n", house.CungName, house.Branch, stars)
	}
	prompt := "Luận giải tử vi ngắn gọn:\n" + summary.String()

	reading, err := h.llm.Generate(c.Request.Context(), prompt)
	if err != nil {
		h.logger.Warn("chart interpretation failed", zap.Int64("chart_id", rec.ID), zap.Error(err))
		response.ServiceUnavailable(c, "interpretation is temporarily unavailable")
		return
	}

	if err := h.repo.SaveReading(c.Request.Context(), rec.ID, reading); err != nil {
		h.logger.Error("failed to store interpretation", zap.Int64("chart_id", rec.ID), zap.Error(err))
		response.Internal(c, "failed to interpret chart")
		return
	}
	response.OK(c, gin.H{"ai_reading": reading})
}
