package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/ai"
	"github.com/tsanders-rh/dockctl/internal/engine"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(error, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
	}
}

// ErrorBadRequest returns a 400 Bad Request error
func ErrorBadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse(message, ""))
}

// ErrorForbidden returns a 403 Forbidden error
func ErrorForbidden(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, NewErrorResponse(message, ""))
}

// ErrorNotFound returns a 404 Not Found error
func ErrorNotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, NewErrorResponse(message, ""))
}

// ErrorConflict returns a 409 Conflict error
func ErrorConflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, NewErrorResponse(message, ""))
}

// ErrorInternal returns a 500 Internal Server Error
func ErrorInternal(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, NewErrorResponse(message, ""))
}

// ErrorBadGateway returns a 502 Bad Gateway error
func ErrorBadGateway(c echo.Context, message string) error {
	return c.JSON(http.StatusBadGateway, NewErrorResponse(message, ""))
}

// ErrorServiceUnavailable returns a 503 Service Unavailable error
func ErrorServiceUnavailable(c echo.Context, message string) error {
	return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(message, ""))
}

// engineStatus maps an engine error to the HTTP status it is reported with
func engineStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorEngine reports a failed daemon call
func ErrorEngine(c echo.Context, err error) error {
	return c.JSON(engineStatus(err), NewErrorResponse(err.Error(), ""))
}

// ErrorAI reports a failed LLM call. A missing key is 503; anything else
// came from upstream and is 502.
func ErrorAI(c echo.Context, err error) error {
	if errors.Is(err, ai.ErrUnavailable) {
		return ErrorServiceUnavailable(c, err.Error())
	}
	return ErrorBadGateway(c, err.Error())
}

// errorHandler renders errors that escape handlers, including echo's own
// routing and middleware errors, in the response envelope
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Something went wrong"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch {
			case status == http.StatusNotFound && errors.Is(err, echo.ErrNotFound):
				message = fmt.Sprintf("Route %s not found", c.Request().URL.RequestURI())
			case status == http.StatusMethodNotAllowed:
				message = fmt.Sprintf("Route %s not found", c.Request().URL.RequestURI())
				status = http.StatusNotFound
			default:
				message = fmt.Sprint(he.Message)
			}
		} else {
			logger.Error("unhandled error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, NewErrorResponse(message, ""))
		}
		if werr != nil {
			logger.Warn("failed to write error response", zap.Error(werr))
		}
	}
}
