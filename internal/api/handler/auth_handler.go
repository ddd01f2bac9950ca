package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/contractor-api/internal/api/metrics"
	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	identities ports.IdentityService
}

func NewAuthHandler(identities ports.IdentityService) *AuthHandler {
	return &AuthHandler{identities: identities}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string           `json:"token,omitempty"`
	User  *domain.Identity `json:"user,omitempty"`
}

// Signup creates a new account. Claims resolution runs inline: an invited
// email comes back with tenant claims attached, everything else proceeds as
// an owner-bootstrap candidate.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Signup details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.identities.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInviteConsumed):
			metrics.ClaimsResolvedTotal.WithLabelValues("conflict").Inc()
		case errors.Is(err, domain.ErrIdentityExists), errors.Is(err, domain.ErrValidation):
			// not a provisioning outcome
		default:
			metrics.ClaimsResolvedTotal.WithLabelValues("error").Inc()
			metrics.ProvisioningErrorsTotal.WithLabelValues("pre_signup").Inc()
		}
		return err
	}

	if identity.Claims.TenantID != "" {
		metrics.ClaimsResolvedTotal.WithLabelValues("invite_consumed").Inc()
	} else {
		metrics.ClaimsResolvedTotal.WithLabelValues("no_invite").Inc()
	}

	return c.JSON(http.StatusCreated, authResponse{User: identity})
}

// Login authenticates an account and returns a JWT carrying its claims.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, identity, err := h.identities.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: identity})
}
