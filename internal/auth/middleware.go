package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ClaimsContextKey is the key for storing claims in context
	ClaimsContextKey ContextKey = "claims"
	// MethodContextKey records how the request authenticated
	MethodContextKey ContextKey = "auth_method"

	// HeaderAPIKey carries the API key
	HeaderAPIKey = "X-API-Key"
)

// Authentication methods
const (
	MethodAPIKey = "api_key"
	MethodBearer = "bearer"
)

// unauthorized is written directly so the body matches the API envelope
func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// RequireAuth accepts either the X-API-Key header or a Bearer token minted by
// the token endpoint. It is a no-op when no API key is configured.
func RequireAuth(auth *Auth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.Enabled() {
				return next(c)
			}

			if key := c.Request().Header.Get(HeaderAPIKey); key != "" {
				if err := auth.VerifyAPIKey(key); err != nil {
					return unauthorized(c, "Unauthorized - Invalid or missing API key")
				}
				c.Set(string(MethodContextKey), MethodAPIKey)
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "Unauthorized - Invalid or missing API key")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return unauthorized(c, "Unauthorized - invalid authorization header format")
			}

			claims, err := auth.ValidateAccessToken(parts[1])
			if err != nil {
				return unauthorized(c, "Unauthorized - invalid or expired token")
			}

			c.Set(string(ClaimsContextKey), claims)
			c.Set(string(MethodContextKey), MethodBearer)
			return next(c)
		}
	}
}

// GetClaims retrieves token claims from echo context
func GetClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(string(ClaimsContextKey)).(*Claims)
	return claims, ok
}

// Actor describes who made the request, for the action log
func Actor(c echo.Context) string {
	if claims, ok := GetClaims(c); ok && claims.Subject != "" {
		return claims.Subject
	}
	if method, ok := c.Get(string(MethodContextKey)).(string); ok {
		return method
	}
	return "anonymous"
}
