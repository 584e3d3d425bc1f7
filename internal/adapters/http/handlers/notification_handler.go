package handlers

import (
	"strconv"

	"nexbank/internal/core/services"
	"nexbank/internal/pkg/pagination"
	"nexbank/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles in-app notification endpoints
type NotificationHandler struct {
	ledgerService *services.LedgerService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(ledgerService *services.LedgerService) *NotificationHandler {
	return &NotificationHandler{ledgerService: ledgerService}
}

// List lists the current user's notifications
// @Summary List notifications
// @Description Paginated notifications for the authenticated user, newest first
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	notifications, total, err := h.ledgerService.Notifications(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Success(c, "Notifications retrieved successfully", fiber.Map{
		"notifications": notifications,
		"pagination":    pagination.GetMeta(params, total),
	})
}

// MarkRead flags one notification as read
// @Summary Mark notification read
// @Description Flag a notification as read (own notifications only)
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.ledgerService.MarkRead(c.Context(), userID, uint(id)); err != nil {
		return response.NotFound(c, "Notification not found")
	}

	return response.Success(c, "Notification marked as read", nil)
}
