package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/internal/utils"
)

// ContextHandler exposes the temporal context aggregation read path.
type ContextHandler struct {
	service service.ContextService
	logger  zerolog.Logger
}

// NewContextHandler constructs a context handler.
func NewContextHandler(service service.ContextService, logger zerolog.Logger) *ContextHandler {
	return &ContextHandler{
		service: service,
		logger:  logger.With().Str("component", "context_handler").Logger(),
	}
}

// Register wires context routes.
func (h *ContextHandler) Register(router fiber.Router) {
	router.Get("/students/:id/context", h.aggregate)
}

func (h *ContextHandler) aggregate(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	kind := strings.TrimSpace(c.Query("kind"))
	if kind == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "kind query parameter is required")
	}

	result, err := h.service.Aggregate(c.Context(), studentID, kind)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReportKind):
			return utils.SendError(c, fiber.StatusBadRequest, "unknown report kind")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to aggregate context")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to aggregate context")
		}
	}

	return utils.SendSuccess(c, "context aggregated", result)
}
