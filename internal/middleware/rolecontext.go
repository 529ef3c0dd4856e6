package middleware // reusable HTTP middleware shared by the routers

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/booking"
)

// roleContextKey is the echo context key under which the parsed role
// context is stored.
const roleContextKey = "role_ctx"

// RoleContext returns a middleware that derives the caller's booking role
// context from an optional Bearer token and stores it in the request
// context.  It never rejects a request itself: a missing or unusable
// token yields an empty context and the booking engine classifies the
// failure (Unauthorized, InvalidGuestSession, ExpiredMemberSession).
//
// A token that fails signature or expiry checks still contributes its
// role claim when decodable, so a guest with a forged token is rejected
// as an invalid guest session rather than a generic unauthorized.
func RoleContext(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := parseRoleContext(secret, c.Request().Header.Get("Authorization"))
			c.Set(roleContextKey, rc)
			// Rate-limit keys reuse the same identity.
			if id := rc.CustomerID(); id != "" {
				c.Set("user_id", id)
			}
			return next(c)
		}
	}
}

// CurrentRole reads the role context stored by the RoleContext
// middleware.  Handlers running outside that middleware see an empty
// context, which the engine rejects as Unauthorized.
func CurrentRole(c echo.Context) booking.RoleContext {
	if rc, ok := c.Get(roleContextKey).(booking.RoleContext); ok {
		return rc
	}
	return booking.RoleContext{}
}

func parseRoleContext(secret, authHeader string) booking.RoleContext {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return booking.RoleContext{}
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		// Salvage the claimed role so the rejection names the right
		// session problem.  The validity flags stay false.
		if claims := unverifiedClaims(raw); claims != nil {
			switch claims["role"] {
			case "guest":
				return booking.RoleContext{Role: booking.RoleGuest, Email: str(claims["email"])}
			case "member":
				return booking.RoleContext{Role: booking.RoleMember, UserID: str(claims["sub"])}
			}
		}
		return booking.RoleContext{}
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return booking.RoleContext{}
	}
	switch claims["role"] {
	case "guest":
		email := str(claims["email"])
		jti := str(claims["jti"])
		return booking.RoleContext{
			Role:            booking.RoleGuest,
			Email:           email,
			GuestTokenValid: jti != "" && email != "",
		}
	case "member":
		sub := str(claims["sub"])
		return booking.RoleContext{
			Role:               booking.RoleMember,
			UserID:             sub,
			MemberSessionValid: sub != "",
		}
	}
	return booking.RoleContext{}
}

func unverifiedClaims(raw string) jwt.MapClaims {
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, _ := tok.Claims.(jwt.MapClaims)
	return claims
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
