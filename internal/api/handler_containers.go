package api

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// ContainerHandler handles container endpoints
type ContainerHandler struct {
	engine  engine.Engine
	bulk    *bulkRunner
	actions *actionRecorder
	logger  *zap.Logger
}

// NewContainerHandler creates a new container handler
func NewContainerHandler(deps Dependencies, selfID string) *ContainerHandler {
	actions := newActionRecorder(deps.Actions, deps.Logger)
	return &ContainerHandler{
		engine:  deps.Engine,
		bulk:    newBulkRunner(deps, selfID, actions),
		actions: actions,
		logger:  deps.Logger,
	}
}

// List handles GET /api/containers. Stopped containers are included unless
// all=false.
func (h *ContainerHandler) List(c echo.Context) error {
	all := true
	if v := c.QueryParam("all"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return ErrorBadRequest(c, "all must be a boolean")
		}
		all = parsed
	}

	containers, err := h.engine.ListContainers(c.Request().Context(), all)
	if err != nil {
		return ErrorEngine(c, err)
	}

	return SuccessList(c, containers, len(containers))
}

// Stats handles GET /api/containers/:id/stats
func (h *ContainerHandler) Stats(c echo.Context) error {
	stats, err := h.engine.ContainerStats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessOK(c, stats)
}

// Logs handles GET /api/containers/:id/logs
func (h *ContainerHandler) Logs(c echo.Context) error {
	logs, err := h.engine.ContainerLogs(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessOK(c, logs)
}

// Inspect handles GET /api/containers/:id/inspect
func (h *ContainerHandler) Inspect(c echo.Context) error {
	details, err := h.engine.InspectContainer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessOK(c, details)
}

// Start handles POST /api/containers/:id/start
func (h *ContainerHandler) Start(c echo.Context) error {
	id := c.Param("id")
	result, err := h.engine.StartContainer(c.Request().Context(), id)
	h.actions.record(c, types.ActionStart, types.ResourceContainer, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, fmt.Sprintf("Container %s started successfully", id), result)
}

// Stop handles POST /api/containers/:id/stop
func (h *ContainerHandler) Stop(c echo.Context) error {
	id := c.Param("id")
	result, err := h.engine.StopContainer(c.Request().Context(), id)
	h.actions.record(c, types.ActionStop, types.ResourceContainer, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, fmt.Sprintf("Container %s stopped successfully", id), result)
}

// Restart handles POST /api/containers/:id/restart
func (h *ContainerHandler) Restart(c echo.Context) error {
	id := c.Param("id")
	result, err := h.engine.RestartContainer(c.Request().Context(), id)
	h.actions.record(c, types.ActionRestart, types.ResourceContainer, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, fmt.Sprintf("Container %s restarted successfully", id), result)
}

// Remove handles DELETE /api/containers/:id?force=
func (h *ContainerHandler) Remove(c echo.Context) error {
	id := c.Param("id")
	force := c.QueryParam("force") == "true"

	result, err := h.engine.RemoveContainer(c.Request().Context(), id, force)
	h.actions.record(c, types.ActionRemove, types.ResourceContainer, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, fmt.Sprintf("Container %s removed successfully", id), result)
}

// Create handles POST /api/containers. Missing fields fall back to
// nginx:latest, a timestamped name and 80/tcp published on 8080.
func (h *ContainerHandler) Create(c echo.Context) error {
	var req engine.CreateRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}
	req.ApplyDefaults(timeNow())

	result, err := h.engine.CreateContainer(c.Request().Context(), &req)
	var id string
	if result != nil {
		id = result.ContainerID
	}
	h.actions.record(c, types.ActionCreate, types.ResourceContainer, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}

	return SuccessCreated(c, "Container created and started successfully", result)
}

// Prune handles POST /api/containers/prune
func (h *ContainerHandler) Prune(c echo.Context) error {
	report, err := h.engine.PruneContainers(c.Request().Context())
	h.actions.record(c, types.ActionPrune, types.ResourceContainer, "", err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, "Stopped containers pruned successfully", report)
}

// BulkStop handles POST /api/containers/bulk/stop
func (h *ContainerHandler) BulkStop(c echo.Context) error {
	return h.bulk.handle(c, types.ActionStop, "Bulk stop operation completed")
}

// BulkRemove handles POST /api/containers/bulk/remove?force=
func (h *ContainerHandler) BulkRemove(c echo.Context) error {
	return h.bulk.handle(c, types.ActionRemove, "Bulk remove operation completed")
}
