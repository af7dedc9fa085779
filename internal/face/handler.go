package face

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/pkg/response"
	"github.com/nmtun/seeboi-backend/pkg/storage"
)

// Handler serves the physiognomy endpoints. Photos are uploaded through the
// uploads endpoint first; Save only records the resulting URL.
type Handler struct {
	client  *Client
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a face reading handler.
func NewHandler(client *Client, service *Service, repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{client: client, service: service, repo: repo, logger: logger}
}

// Analyze proxies the uploaded photo to the landmark service and returns
// the trait report without persisting anything.
func (h *Handler) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxImageSize {
		response.BadRequest(c, "file exceeds the 10MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "only image files are allowed")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded photo", zap.Error(err))
		response.Internal(c, "failed to analyze photo")
		return
	}
	defer file.Close()

	result, err := h.client.Analyze(c.Request.Context(), fileHeader.Filename, contentType, file)
	if err != nil {
		h.logger.Error("face analysis failed", zap.Error(err))
		response.ServiceUnavailable(c, "face analysis is temporarily unavailable")
		return
	}

	response.OK(c, gin.H{
		"report":       result.Report,
		"landmarks":    result.Landmarks,
		"image_base64": result.ImageBase64,
	})
}

type interpretRequest struct {
	Report   json.RawMessage `json:"report" binding:"required"`
	Name     string          `json:"name"`
	Birthday string          `json:"birthday"`
	Gender   string          `json:"gender"`
}

// Interpret runs the AI reading over a trait report.
func (h *Handler) Interpret(c *gin.Context) {
	var req interpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "report is required")
		return
	}

	interpret := h.service.Interpret(c.Request.Context(), req.Report,
		PersonalInfo{Name: req.Name, Birthday: req.Birthday, Gender: req.Gender})
	response.OK(c, gin.H{"interpret": interpret})
}

type saveRequest struct {
	ImageURL  string          `json:"image_url" binding:"required"`
	Report    json.RawMessage `json:"report" binding:"required"`
	Landmarks json.RawMessage `json:"landmarks"`
	Interpret json.RawMessage `json:"interpret"`
	Name      string          `json:"name"`
	Birthday  string          `json:"birthday"`
	Gender    string          `json:"gender"`
}

// Save persists a completed reading for later viewing.
func (h *Handler) Save(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "image_url and report are required")
		return
	}

	result, err := json.Marshal(gin.H{
		"report":    req.Report,
		"landmarks": req.Landmarks,
		"interpret": req.Interpret,
		"name":      req.Name,
		"birthday":  req.Birthday,
		"gender":    req.Gender,
	})
	if err != nil {
		response.BadRequest(c, "invalid reading payload")
		return
	}

	fr, err := h.repo.Save(c.Request.Context(), userID, req.ImageURL, result)
	if err != nil {
		h.logger.Error("failed to save face reading", zap.Error(err))
		response.Internal(c, "failed to save reading")
		return
	}
	response.Created(c, fr)
}

// History returns the caller's saved readings.
func (h *Handler) History(c *gin.Context) {
	userID := c.GetInt64("user_id")
	list, err := h.repo.History(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list face readings", zap.Error(err))
		response.Internal(c, "failed to list readings")
		return
	}
	response.OK(c, list)
}

// Detail returns one saved reading.
func (h *Handler) Detail(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid reading id")
		return
	}

	fr, err := h.repo.GetByID(c.Request.Context(), id, userID)
	if err == pgx.ErrNoRows {
		response.NotFound(c, "reading not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load face reading", zap.Error(err))
		response.Internal(c, "failed to load reading")
		return
	}
	response.OK(c, fr)
}
