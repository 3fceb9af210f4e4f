package api

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// ResourceHandler handles image, network and volume endpoints
type ResourceHandler struct {
	engine  engine.Engine
	actions *actionRecorder
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(deps Dependencies) *ResourceHandler {
	return &ResourceHandler{
		engine:  deps.Engine,
		actions: newActionRecorder(deps.Actions, deps.Logger),
	}
}

// CreateNetworkRequest is the body of POST /api/networks
type CreateNetworkRequest struct {
	Name   string `json:"name" validate:"required"`
	Driver string `json:"driver"`
}

// CreateVolumeRequest is the body of POST /api/volumes
type CreateVolumeRequest struct {
	Name string `json:"name" validate:"required"`
}

// ListImages handles GET /api/images
func (h *ResourceHandler) ListImages(c echo.Context) error {
	images, err := h.engine.ListImages(c.Request().Context())
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessList(c, images, len(images))
}

// PruneImages handles POST /api/images/prune
func (h *ResourceHandler) PruneImages(c echo.Context) error {
	report, err := h.engine.PruneImages(c.Request().Context())
	h.actions.record(c, types.ActionPrune, types.ResourceImage, "", err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, "Unused images pruned successfully", report)
}

// ListNetworks handles GET /api/networks
func (h *ResourceHandler) ListNetworks(c echo.Context) error {
	networks, err := h.engine.ListNetworks(c.Request().Context())
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessList(c, networks, len(networks))
}

// CreateNetwork handles POST /api/networks
func (h *ResourceHandler) CreateNetwork(c echo.Context) error {
	var req CreateNetworkRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Driver == "" {
		req.Driver = engine.DefaultNetworkDriver
	}

	network, err := h.engine.CreateNetwork(c.Request().Context(), req.Name, req.Driver)
	var id string
	if network != nil {
		id = network.ID
	}
	h.actions.record(c, types.ActionCreate, types.ResourceNetwork, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessCreated(c, "Network created successfully", network)
}

// RemoveNetwork handles DELETE /api/networks/:id
func (h *ResourceHandler) RemoveNetwork(c echo.Context) error {
	id := c.Param("id")
	err := h.engine.RemoveNetwork(c.Request().Context(), id)
	h.actions.record(c, types.ActionRemove, types.ResourceNetwork, id, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, fmt.Sprintf("Network %s removed successfully", id), nil)
}

// ListVolumes handles GET /api/volumes
func (h *ResourceHandler) ListVolumes(c echo.Context) error {
	volumes, err := h.engine.ListVolumes(c.Request().Context())
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessList(c, volumes, len(volumes))
}

// CreateVolume handles POST /api/volumes
func (h *ResourceHandler) CreateVolume(c echo.Context) error {
	var req CreateVolumeRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	volume, err := h.engine.CreateVolume(c.Request().Context(), req.Name)
	h.actions.record(c, types.ActionCreate, types.ResourceVolume, req.Name, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessCreated(c, "Volume created successfully", volume)
}

// RemoveVolume handles DELETE /api/volumes/:name
func (h *ResourceHandler) RemoveVolume(c echo.Context) error {
	name := c.Param("name")
	err := h.engine.RemoveVolume(c.Request().Context(), name)
	h.actions.record(c, types.ActionRemove, types.ResourceVolume, name, err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, fmt.Sprintf("Volume %s removed successfully", name), nil)
}

// PruneVolumes handles POST /api/volumes/prune
func (h *ResourceHandler) PruneVolumes(c echo.Context) error {
	report, err := h.engine.PruneVolumes(c.Request().Context())
	h.actions.record(c, types.ActionPrune, types.ResourceVolume, "", err)
	if err != nil {
		return ErrorEngine(c, err)
	}
	return SuccessMessage(c, "Unused volumes pruned successfully", report)
}
