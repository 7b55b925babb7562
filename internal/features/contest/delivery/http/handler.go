package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contest-bot/internal/common/errors"
	"contest-bot/internal/common/middleware"
	"contest-bot/internal/features/contest/models/dto"
	"contest-bot/internal/features/contest/service"
)

type ContestHandler struct {
	service *service.Service
}

func NewContestHandler(service *service.Service) *ContestHandler {
	return &ContestHandler{service: service}
}

// RegisterRoutes mounts the contest endpoints. auth must authenticate the
// Telegram user (see middleware.TelegramInitData).
func (h *ContestHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.GET("/contests/:id", h.getByID)
	router.GET("/me/contests", auth, h.getMine)
	router.GET("/stats", auth, h.getStats)
}

// @Summary Get contest by ID
// @Description Public view of a contest, including its participant count and published winners
// @Tags contests
// @Produce json
// @Param id path string true "Contest ID (###### or F######)"
// @Success 200 {object} dto.ContestResponse
// @Failure 400 {object} middleware.ErrorResponse "Malformed ID"
// @Failure 404 {object} middleware.ErrorResponse "Contest not found"
// @Router /contests/{id} [get]
func (h *ContestHandler) getByID(c *gin.Context) {
	ctx := c.Request.Context()
	contest, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	participants, err := h.service.ParticipantCount(ctx, contest.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestResponse(contest, participants))
}

// @Summary Get my contests
// @Description Contests created by the current user, active first
// @Tags contests
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} dto.ContestResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /me/contests [get]
func (h *ContestHandler) getMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("telegram init data required"))
		return
	}

	ctx := c.Request.Context()
	contests, err := h.service.ListByCreator(ctx, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := make([]dto.ContestResponse, 0, len(contests))
	for _, contest := range contests {
		participants, err := h.service.ParticipantCount(ctx, contest.ID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		resp = append(resp, dto.NewContestResponse(contest, participants))
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get statistics
// @Description Total contests, participants and unique users. Operators only.
// @Tags contests
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} dto.StatsResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Not an operator"
// @Router /stats [get]
func (h *ContestHandler) getStats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("telegram init data required"))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{
		Contests:     stats.Contests,
		Participants: stats.Participants,
		UniqueUsers:  stats.UniqueUsers,
	})
}
