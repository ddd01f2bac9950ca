package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/contractor-api/internal/api/metrics"
	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
)

// InviteHandler handles invitation creation.
type InviteHandler struct {
	service ports.InviteService
}

func NewInviteHandler(service ports.InviteService) *InviteHandler {
	return &InviteHandler{service: service}
}

type createInviteRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=admin dispatcher tech accountant"`
	TenantID string `json:"tenant_id" validate:"required"`
}

type createInviteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Create handles POST /v1/invites.
//
// @Summary      Invite a user to a tenant
// @Tags         invites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createInviteRequest  true  "Invitation details"
// @Success      201   {object}  createInviteResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/invites [post]
func (h *InviteHandler) Create(c echo.Context) error {
	var req createInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.InvitesRejectedTotal.WithLabelValues("validation").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller, err := ctxClaims(c)
	if err != nil {
		return err
	}

	inv, err := h.service.CreateInvite(c.Request().Context(), ports.CreateInviteInput{
		Email:    req.Email,
		Role:     req.Role,
		TenantID: req.TenantID,
		Caller:   caller,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPermissionDenied):
			metrics.InvitesRejectedTotal.WithLabelValues("permission_denied").Inc()
		case errors.Is(err, domain.ErrValidation):
			metrics.InvitesRejectedTotal.WithLabelValues("validation").Inc()
		}
		return err
	}

	metrics.InvitesCreatedTotal.WithLabelValues(inv.Role).Inc()
	return c.JSON(http.StatusCreated, createInviteResponse{
		Success: true,
		Message: "Invite sent to " + inv.Email,
	})
}
