package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CronHandler exposes the scheduler-facing escalation trigger. The
// route is gated by auth.RequireCronSecret; the external scheduler is
// expected to hit it roughly every 30 minutes.
type CronHandler struct {
	escalations *service.EscalationService
	cfg         config.EscalationConfig
	logger      *zap.Logger
}

// NewCronHandler constructs handler.
func NewCronHandler(escalations *service.EscalationService, cfg config.EscalationConfig, logger *zap.Logger) *CronHandler {
	return &CronHandler{escalations: escalations, cfg: cfg, logger: logger}
}

// RunEscalations GET /internal/cron/escalations.
func (h *CronHandler) RunEscalations(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.cfg.RunTimeout())
	defer cancel()

	result, err := h.escalations.RunEscalations(ctx)
	if err != nil {
		h.logger.Error("escalation run failed", zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"message":   "escalation run complete",
		"evaluated": result.Evaluated,
		"escalated": result.Escalated,
		"failed":    result.Failed,
		"details":   result.Details,
	})
}

// LastRun GET /internal/cron/escalations/last.
func (h *CronHandler) LastRun(c *fiber.Ctx) error {
	result := h.escalations.LastRunSummary(c.UserContext())
	if result == nil {
		return apperrors.NewNotFound("escalation run", nil)
	}
	return c.JSON(fiber.Map{"data": result})
}
