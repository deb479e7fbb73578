package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/internal/utils"
)

// ReportHandler exposes the report save pipeline.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs a report handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register wires report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Post("/reports", h.save)
	router.Get("/reports/:id", h.getByID)
}

func (h *ReportHandler) save(c *fiber.Ctx) error {
	var payload dto.ReportCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Save(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, service.ErrInvalidReportKind):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to save report")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to save report")
		}
	}

	return utils.SendCreated(c, "report saved", response)
}

func (h *ReportHandler) getByID(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	response, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "report not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("report_id", id).Msg("failed to load report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load report")
	}

	return utils.SendSuccess(c, "report loaded", response)
}
