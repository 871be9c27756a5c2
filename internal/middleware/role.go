package middleware

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// Role values carried in the JWT "role" claim by the identity platform.
const (
    RoleTourist  = "TOURIST"
    RoleProvider = "PROVIDER"
    RoleAdmin    = "ADMIN"
)

// RequireRole returns a middleware that enforces that the authenticated
// user carries one of the given roles.  It assumes JWTAuth has already
// stored the role in the context; a missing or unexpected role aborts the
// request with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(ContextRole).(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
