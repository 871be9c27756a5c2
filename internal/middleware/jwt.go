package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // HTTP status codes for responses
    "strconv"
    "strings" // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// Context keys populated by JWTAuth for downstream handlers.
const (
    ContextUserID = "user_id" // uint64 subject of the verified token
    ContextRole   = "role"    // string role claim
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request
// context.  Tokens are issued by the surrounding identity platform; the
// provided secret must match the issuer's signing secret.  Handlers
// behind this middleware read the caller via c.Get(ContextUserID) as a
// uint64 and c.Get(ContextRole) as a string.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header is "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret; a different signing method
            // means the token was not issued by our platform.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // The subject is the platform user id.  Issuers encode it
            // either as a JSON number or a decimal string.
            uid, ok := subjectID(claims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }
            c.Set(ContextUserID, uid)
            if role, ok := claims["role"].(string); ok {
                c.Set(ContextRole, role)
            }
            return next(c)
        }
    }
}

// subjectID extracts the numeric user id from the "sub" claim.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
    switch v := claims["sub"].(type) {
    case string:
        n, err := strconv.ParseUint(v, 10, 64)
        return n, err == nil
    case float64:
        if v < 1 {
            return 0, false
        }
        return uint64(v), true
    }
    return 0, false
}
