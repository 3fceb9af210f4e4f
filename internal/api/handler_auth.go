package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tsanders-rh/dockctl/internal/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth *auth.Auth
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Auth) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// TokenRequest is the body of POST /api/auth/token. The key may instead be
// sent in the X-API-Key header.
type TokenRequest struct {
	APIKey string `json:"api_key"`
	// Client names the caller; it becomes the token subject
	Client string `json:"client"`
}

// TokenResponse is a minted access token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int       `json:"expires_in"`
}

// Token exchanges the API key for a short-lived bearer token
// POST /api/auth/token
func (h *AuthHandler) Token(c echo.Context) error {
	if !h.auth.Enabled() {
		return ErrorBadRequest(c, "Authentication is not enabled")
	}

	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}

	key := c.Request().Header.Get(auth.HeaderAPIKey)
	if key == "" {
		key = req.APIKey
	}

	if err := h.auth.VerifyAPIKey(key); err != nil {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("Unauthorized - Invalid or missing API key", ""))
	}

	subject := req.Client
	if subject == "" {
		subject = "api-key"
	}

	token, expiresAt, err := h.auth.GenerateAccessToken(subject)
	if err != nil {
		return ErrorInternal(c, "failed to generate access token")
	}

	return SuccessOK(c, &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int(h.auth.AccessTTL().Seconds()),
	})
}
