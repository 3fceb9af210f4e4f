package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/engine"
)

// DockerHandler handles daemon and host endpoints
type DockerHandler struct {
	engine engine.Engine
	host   HostInspector
	logger *zap.Logger
}

// NewDockerHandler creates a new docker handler
func NewDockerHandler(deps Dependencies) *DockerHandler {
	return &DockerHandler{
		engine: deps.Engine,
		host:   deps.Host,
		logger: deps.Logger,
	}
}

// Info handles GET /api/docker/info
func (h *DockerHandler) Info(c echo.Context) error {
	info, err := h.engine.Info(c.Request().Context())
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessOK(c, info)
}

// Health handles GET /api/docker/health
func (h *DockerHandler) Health(c echo.Context) error {
	if err := h.engine.Ping(c.Request().Context()); err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, "Docker connection is healthy", map[string]string{"status": "connected"})
}

// Host handles GET /api/docker/host
func (h *DockerHandler) Host(c echo.Context) error {
	capacity, err := h.host.Snapshot(c.Request().Context())
	if err != nil {
		h.logger.Warn("host snapshot failed", zap.Error(err))
		return ErrorInternal(c, "failed to read host capacity")
	}
	return SuccessOK(c, capacity)
}
