package tarot

import (
	"github.com/gin-gonic/gin"

	"github.com/nmtun/seeboi-backend/pkg/response"
)

// Handler serves the tarot reading endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a tarot handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type dailyRequest struct {
	Name     string `json:"name" binding:"required"`
	Birthday string `json:"birthday" binding:"required"`
	Card1    string `json:"card1" binding:"required"`
	Card2    string `json:"card2" binding:"required"`
	Card3    string `json:"card3" binding:"required"`
}

// Daily reads three cards for love, mood and money today.
func (h *Handler) Daily(c *gin.Context) {
	var req dailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name, birthday and three cards are required")
		return
	}
	response.OK(c, h.service.DailyReading(c.Request.Context(), req.Name, req.Birthday, req.Card1, req.Card2, req.Card3))
}

type yesNoRequest struct {
	Question     string `json:"question" binding:"required"`
	Card1        string `json:"card1" binding:"required"`
	Card2        string `json:"card2" binding:"required"`
	RevealedCard string `json:"revealed_card" binding:"required"`
}

// YesNo answers a yes/no question from two cards, one revealed.
func (h *Handler) YesNo(c *gin.Context) {
	var req yesNoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "question, two cards and revealed_card are required")
		return
	}
	if req.RevealedCard != "card1" && req.RevealedCard != "card2" {
		response.BadRequest(c, "revealed_card must be card1 or card2")
		return
	}
	revealed, hidden := req.Card1, req.Card2
	if req.RevealedCard == "card2" {
		revealed, hidden = req.Card2, req.Card1
	}
	response.OK(c, h.service.YesNoReading(c.Request.Context(), req.Question, revealed, hidden, req.RevealedCard))
}

type oneCardRequest struct {
	Question string `json:"question" binding:"required"`
	Card     string `json:"card" binding:"required"`
}

// OneCard answers an open question from a single card.
func (h *Handler) OneCard(c *gin.Context) {
	var req oneCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "question and card are required")
		return
	}
	response.OK(c, h.service.OneCardReading(c.Request.Context(), req.Question, req.Card))
}

type loveSimpleRequest struct {
	Question string `json:"question" binding:"required"`
	Card1    string `json:"card1" binding:"required"`
	Card2    string `json:"card2" binding:"required"`
	Card3    string `json:"card3" binding:"required"`
}

// LoveSimple reads past, present and future of a love question.
func (h *Handler) LoveSimple(c *gin.Context) {
	var req loveSimpleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "question and three cards are required")
		return
	}
	response.OK(c, h.service.LoveSimpleReading(c.Request.Context(), req.Question, req.Card1, req.Card2, req.Card3))
}

type loveDeepRequest struct {
	Question string `json:"question" binding:"required"`
	Card1    string `json:"card1" binding:"required"`
	Card2    string `json:"card2" binding:"required"`
	Card3    string `json:"card3" binding:"required"`
	Card4    string `json:"card4" binding:"required"`
	Card5    string `json:"card5" binding:"required"`
}

// LoveDeep is the five-card love spread.
func (h *Handler) LoveDeep(c *gin.Context) {
	var req loveDeepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "question and five cards are required")
		return
	}
	cards := [5]string{req.Card1, req.Card2, req.Card3, req.Card4, req.Card5}
	response.OK(c, h.service.LoveDeepReading(c.Request.Context(), req.Question, cards))
}
