package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/internal/utils"
)

// StrategyHandler exposes strategy lifecycle transitions and effectiveness mining.
type StrategyHandler struct {
	service  service.StrategyService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewStrategyHandler constructs a strategy handler.
func NewStrategyHandler(service service.StrategyService, validate *validator.Validate, logger zerolog.Logger) *StrategyHandler {
	return &StrategyHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("component", "strategy_handler").Logger(),
	}
}

// Register wires strategy routes.
func (h *StrategyHandler) Register(router fiber.Router) {
	router.Patch("/strategies/:id/status", h.updateStatus)
	router.Get("/students/:id/effectiveness", h.effectiveness)
}

func (h *StrategyHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid strategy id")
	}

	var payload dto.StrategyStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.UpdateStatus(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStrategyNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "strategy not found")
		case errors.Is(err, service.ErrInvalidStatusTransition):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("strategy_id", id).Msg("failed to update strategy status")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update strategy status")
		}
	}

	return utils.SendSuccess(c, "strategy status updated", response)
}

func (h *StrategyHandler) effectiveness(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	report, err := h.service.Effectiveness(c.Context(), &studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to mine effectiveness")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to mine effectiveness")
	}

	return utils.SendSuccess(c, "effectiveness mined", report)
}
