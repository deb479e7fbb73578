package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/service"
	"github.com/noah-isme/insight-go-api/internal/utils"
	"github.com/noah-isme/insight-go-api/pkg/ai"
)

// AnalysisHandler exposes tier routing and the model draft path.
type AnalysisHandler struct {
	service  service.AnalysisService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAnalysisHandler constructs an analysis handler.
func NewAnalysisHandler(service service.AnalysisService, validate *validator.Validate, logger zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("component", "analysis_handler").Logger(),
	}
}

// Register wires analysis routes.
func (h *AnalysisHandler) Register(router fiber.Router) {
	router.Get("/students/:id/route", h.route)
	router.Post("/analysis/draft", h.draft)
}

func (h *AnalysisHandler) route(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	kind := strings.TrimSpace(c.Query("kind"))
	if kind == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "kind query parameter is required")
	}

	decision, err := h.service.Route(c.Context(), studentID, kind, c.Query("testLabel"), c.Query("override"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReportKind):
			return utils.SendError(c, fiber.StatusBadRequest, "unknown report kind")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to route request")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to route request")
		}
	}

	return utils.SendSuccess(c, "request routed", decision)
}

func (h *AnalysisHandler) draft(c *fiber.Ctx) error {
	var payload dto.AnalysisDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Prepare(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReportKind):
			return utils.SendError(c, fiber.StatusBadRequest, "unknown report kind")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		case errors.Is(err, ai.ErrUpstream):
			requestLogger(h.logger, c).Error().Err(err).Msg("generation upstream failure")
			return utils.SendError(c, fiber.StatusBadGateway, "generation upstream failure")
		case errors.Is(err, ai.ErrSchema):
			requestLogger(h.logger, c).Error().Err(err).Msg("generation schema mismatch")
			return utils.SendError(c, fiber.StatusBadGateway, "generation returned an unexpected shape")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to prepare analysis draft")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to prepare analysis draft")
		}
	}

	return utils.SendSuccess(c, "analysis drafted", response)
}
