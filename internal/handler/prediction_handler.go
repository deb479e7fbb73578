package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/internal/utils"
)

// PredictionHandler exposes reconciliation and the accuracy trust signal.
type PredictionHandler struct {
	service service.PredictionService
	logger  zerolog.Logger
}

// NewPredictionHandler constructs a prediction handler.
func NewPredictionHandler(service service.PredictionService, logger zerolog.Logger) *PredictionHandler {
	return &PredictionHandler{
		service: service,
		logger:  logger.With().Str("component", "prediction_handler").Logger(),
	}
}

// Register wires prediction routes.
func (h *PredictionHandler) Register(router fiber.Router) {
	router.Post("/predictions/reconcile", h.reconcile)
	router.Get("/predictions/stats", h.stats)
}

func (h *PredictionHandler) reconcile(c *fiber.Ctx) error {
	var payload dto.ReconcileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	summary, err := h.service.Reconcile(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("prediction reconciliation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "prediction reconciliation failed")
	}

	return utils.SendSuccess(c, "reconciliation completed", summary)
}

func (h *PredictionHandler) stats(c *fiber.Ctx) error {
	studentID, err := optionalStudentID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student_id")
	}

	// Stats are derived on every read; a stale cache here would misreport the
	// trust signal right after a reconciliation run.
	stats, err := h.service.Stats(c.Context(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load prediction stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load prediction stats")
	}

	return utils.SendSuccess(c, "prediction stats loaded", stats)
}
