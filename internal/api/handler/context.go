package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

// ctxClaims extracts the claims injected by the Auth middleware and performs
// a fast-fail check before any service call: role must be non-empty
// (presence proves the middleware ran). Tenant may legitimately be empty for
// a bootstrap owner whose company is not provisioned yet.
func ctxClaims(c echo.Context) (domain.Claims, error) {
	role, _ := c.Get("role").(string)
	if role == "" {
		return domain.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	tenantID, _ := c.Get("tenant_id").(string)
	return domain.Claims{TenantID: tenantID, Role: role}, nil
}
