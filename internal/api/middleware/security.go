package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// MinIDLength is the shortest resource ID prefix accepted in a path
const MinIDLength = 12

func reject(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// ValidID reports whether id is a hexadecimal resource ID of acceptable length
func ValidID(id string) (bool, string) {
	if len(id) < MinIDLength {
		return false, "Invalid container ID"
	}
	for _, r := range id {
		if !isHex(r) {
			return false, "Container ID must be hexadecimal"
		}
	}
	return true, ""
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// ValidateID rejects requests whose :id path parameter is not a hexadecimal
// ID of at least MinIDLength characters
func ValidateID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ok, msg := ValidID(c.Param("id")); !ok {
				return reject(c, http.StatusBadRequest, msg)
			}
			return next(c)
		}
	}
}

// SelfTerminationMessage is returned when a request targets the API's own container
const SelfTerminationMessage = "Cannot control the backend container from within itself. This would cause the API to crash."

// IsSelf reports whether id refers to the container identified by selfID.
// An empty selfID never matches.
func IsSelf(selfID, id string) bool {
	if selfID == "" || id == "" {
		return false
	}
	id = strings.ToLower(id)
	self := strings.ToLower(selfID)
	return strings.HasPrefix(id, self) || strings.HasPrefix(self, id)
}

// PreventSelfTermination rejects requests whose :id path parameter refers to
// the container the API runs in
func PreventSelfTermination(selfID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsSelf(selfID, c.Param("id")) {
				return reject(c, http.StatusForbidden, SelfTerminationMessage)
			}
			return next(c)
		}
	}
}
