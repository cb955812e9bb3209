package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/service"
	"github.com/orion-app/orion-api/internal/utils"
)

// AdminDashboardHandler serves the analytics views behind the admin console.
type AdminDashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewAdminDashboardHandler constructs the handler.
func NewAdminDashboardHandler(service service.DashboardService, logger zerolog.Logger) *AdminDashboardHandler {
	return &AdminDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_dashboard_handler").Logger(),
	}
}

// Register wires the dashboard routes.
func (h *AdminDashboardHandler) Register(router fiber.Router) {
	router.Get("/summary", h.summary)
	router.Get("/signups/:period", h.series(models.MetricSignups))
	router.Get("/prompts/:period", h.series(models.MetricPrompts))
	router.Get("/questions", h.questions)
}

func (h *AdminDashboardHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load dashboard summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load summary")
	}

	setCacheHeader(c, summary.CacheHit)
	return utils.SendSuccess(c, "summary retrieved", summary)
}

func (h *AdminDashboardHandler) series(metric string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Params("period")

		series, err := h.service.Series(c.Context(), metric, period)
		if err != nil {
			if errors.Is(err, service.ErrUnknownSeries) {
				return utils.SendError(c, fiber.StatusBadRequest, "unknown chart period")
			}
			requestLogger(h.logger, c).Error().Err(err).Str("metric", metric).Str("period", period).Msg("failed to load chart series")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load chart")
		}

		setCacheHeader(c, series.CacheHit)
		return utils.SendSuccess(c, "series retrieved", series)
	}
}

func (h *AdminDashboardHandler) questions(c *fiber.Ctx) error {
	breakdown, err := h.service.QuestionBreakdown(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load question breakdown")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load question breakdown")
	}

	setCacheHeader(c, breakdown.CacheHit)
	return utils.SendSuccess(c, "question breakdown retrieved", breakdown)
}

func setCacheHeader(c *fiber.Ctx, hit bool) {
	if hit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}
}
