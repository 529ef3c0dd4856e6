package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/booking"
)

// RequireRole aborts requests whose role context does not carry one of
// the listed roles with a valid session.  It assumes the RoleContext
// middleware ran earlier in the chain.
func RequireRole(roles ...booking.Role) echo.MiddlewareFunc {
	allowed := make(map[booking.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := CurrentRole(c)
			if !allowed[rc.Role] {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			valid := (rc.Role == booking.RoleGuest && rc.GuestTokenValid) ||
				(rc.Role == booking.RoleMember && rc.MemberSessionValid)
			if !valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session invalid or expired"})
			}
			return next(c)
		}
	}
}
