package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/infinity-clubs/roulette-display/auth"
	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/errors"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/feed"
	"github.com/rs/zerolog"
)

// DisplayHandler serves the catalog, recent wins, and the authenticated
// spin and reload operations.
type DisplayHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewDisplayHandler creates a display handler.
func NewDisplayHandler(app *App) *DisplayHandler {
	return &DisplayHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "display").Logger(),
	}
}

// PrizeView is a prize plus its derived rarity tier.
type PrizeView struct {
	catalog.Prize
	Tier catalog.Tier `json:"tier"`
}

// PrizesResponse wraps the catalog endpoint payload.
type PrizesResponse struct {
	Prizes []PrizeView `json:"prizes"`
}

// GetPrizes returns the club's prize catalog in slot order.
// @Summary Get prize catalog
// @Tags display
// @Produce json
// @Param club path string true "Club ID"
// @Success 200 {object} SuccessResponse[PrizesResponse]
// @Failure 503 {object} ErrorResponse
// @Router /api/display/{club}/prizes [get]
func (h *DisplayHandler) GetPrizes(c *gin.Context) {
	d, err := h.app.hub.Display(c.Request.Context(), GetClubID(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	prizes := d.Prizes()
	views := make([]PrizeView, len(prizes))
	for i, p := range prizes {
		views[i] = PrizeView{Prize: p, Tier: p.Tier()}
	}
	OK(c, PrizesResponse{Prizes: views})
}

// WinsResponse wraps the recent-wins endpoint payload.
type WinsResponse struct {
	Wins []feed.Entry `json:"wins"`
}

// GetRecentWins returns the club's win feed, newest first.
// @Summary Get recent wins
// @Tags display
// @Produce json
// @Param club path string true "Club ID"
// @Success 200 {object} SuccessResponse[WinsResponse]
// @Failure 503 {object} ErrorResponse
// @Router /api/display/{club}/recent-wins [get]
func (h *DisplayHandler) GetRecentWins(c *gin.Context) {
	d, err := h.app.hub.Display(c.Request.Context(), GetClubID(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, WinsResponse{Wins: d.FeedEntries()})
}

// TriggerSpin accepts a spin command for the club's reel. With Kafka
// configured the payload is published and picked up by the consumer;
// otherwise it is handled in-process.
// @Summary Trigger a spin
// @Tags display
// @Accept json
// @Produce json
// @Param club path string true "Club ID"
// @Param payload body events.SpinPayload true "Spin payload"
// @Success 200 {object} SuccessResponse[gin.H]
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/display/{club}/spin [post]
func (h *DisplayHandler) TriggerSpin(c *gin.Context) {
	clubID := GetClubID(c)
	if !auth.AllowedForClub(c, clubID) {
		ErrorWithMessage(c, http.StatusForbidden, "token is not valid for this club")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, err)
		return
	}

	var payload events.SpinPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		Error(c, http.StatusBadRequest, errors.Wrap(err, errors.ErrSpinRejected, "malformed spin payload"))
		return
	}
	if payload.PrizeRef() == nil {
		Error(c, http.StatusBadRequest, errors.New(errors.ErrSpinRejected, "spin payload has no prize"))
		return
	}

	if h.app.producer != nil {
		topic := h.app.config.Kafka.SpinTopic()
		if err := h.app.producer.PublishSpin(topic, clubID, body); err != nil {
			Error(c, http.StatusBadGateway, errors.Wrap(err, errors.ErrKafkaError, "failed to publish spin"))
			return
		}
		h.logger.Debug().Str("club_id", clubID).Str("topic", topic).Msg("Spin published")
		OK(c, gin.H{"queued": true})
		return
	}

	if err := h.app.hub.HandleSpin(c.Request.Context(), clubID, payload); err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, gin.H{"queued": true})
}

// DismissResult hides the club's winner overlay before its timeout
// expires.
// @Summary Dismiss the winner overlay
// @Tags display
// @Produce json
// @Param club path string true "Club ID"
// @Success 200 {object} SuccessResponse[gin.H]
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/display/{club}/dismiss [post]
func (h *DisplayHandler) DismissResult(c *gin.Context) {
	clubID := GetClubID(c)
	if !auth.AllowedForClub(c, clubID) {
		ErrorWithMessage(c, http.StatusForbidden, "token is not valid for this club")
		return
	}

	h.app.hub.DismissResult(c.Request.Context(), clubID)
	OK(c, gin.H{"dismissed": true})
}

// Reload refetches the club's prize catalog. The reel swaps content
// after any in-flight spin lands.
// @Summary Reload prize catalog
// @Tags display
// @Produce json
// @Param club path string true "Club ID"
// @Success 200 {object} SuccessResponse[gin.H]
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/display/{club}/reload [post]
func (h *DisplayHandler) Reload(c *gin.Context) {
	clubID := GetClubID(c)
	if !auth.AllowedForClub(c, clubID) {
		ErrorWithMessage(c, http.StatusForbidden, "token is not valid for this club")
		return
	}

	if err := h.app.hub.Reload(c.Request.Context(), clubID); err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, gin.H{"reloaded": true})
}
