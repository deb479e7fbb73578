package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/internal/utils"
)

// AchievementHandler exposes badge evaluation and the notification read path.
type AchievementHandler struct {
	service  service.AchievementService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAchievementHandler constructs an achievement handler.
func NewAchievementHandler(service service.AchievementService, validate *validator.Validate, logger zerolog.Logger) *AchievementHandler {
	return &AchievementHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("component", "achievement_handler").Logger(),
	}
}

// Register wires achievement routes.
func (h *AchievementHandler) Register(router fiber.Router) {
	router.Post("/achievements/evaluate", h.evaluate)
	router.Get("/students/:id/achievements/unnotified", h.unnotified)
	router.Post("/achievements/notified", h.markNotified)
}

func (h *AchievementHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.AchievementEvent
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	earned, err := h.service.Evaluate(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", payload.StudentID).Msg("achievement evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "achievement evaluation failed")
	}

	return utils.SendSuccess(c, "achievements evaluated", earned)
}

func (h *AchievementHandler) unnotified(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	earned, err := h.service.Unnotified(c.Context(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to load unnotified achievements")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load unnotified achievements")
	}

	return utils.SendSuccess(c, "unnotified achievements loaded", earned)
}

func (h *AchievementHandler) markNotified(c *fiber.Ctx) error {
	var payload dto.MarkNotifiedRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.MarkNotified(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to mark achievements notified")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to mark achievements notified")
	}

	return utils.SendSuccess(c, "achievements marked notified", summary)
}
