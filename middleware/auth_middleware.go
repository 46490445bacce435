// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/baaten/partner_console/models"
	"github.com/labstack/echo/v4"
)

// AdminUserType is the only user type allowed on the console routes
const AdminUserType = "admin"

// RequireUserType checks if the authenticated user has one of the allowed user types
func RequireUserType(allowedTypes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType := ExtractUserType(c)
			if userType == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: user type not found",
				})
			}

			for _, allowedType := range allowedTypes {
				if userType == allowedType {
					return next(c)
				}
			}

			c.Logger().Warnf("Access denied for user type: %s, allowed types: %v", userType, allowedTypes)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your user type",
			})
		}
	}
}

// RequireAdmin is RequireUserType(AdminUserType)
func RequireAdmin() echo.MiddlewareFunc {
	return RequireUserType(AdminUserType)
}
