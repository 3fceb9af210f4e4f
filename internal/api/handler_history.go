package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/store"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// HistoryHandler serves the persisted action log and usage samples
type HistoryHandler struct {
	actions ActionLog
	usage   UsageHistory
	logger  *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(deps Dependencies) *HistoryHandler {
	return &HistoryHandler{
		actions: deps.Actions,
		usage:   deps.Usage,
		logger:  deps.Logger,
	}
}

// Actions lists recorded actions, newest first
// GET /api/history/actions?resource_id=&operation_id=&action=&success=&page=&per_page=
func (h *HistoryHandler) Actions(c echo.Context) error {
	params := ParsePaginationParams(c)

	filters := store.ActionFilters{
		Limit:  params.PerPage,
		Offset: params.Offset,
	}
	if v := c.QueryParam("resource_id"); v != "" {
		filters.ResourceID = &v
	}
	if v := c.QueryParam("operation_id"); v != "" {
		filters.OperationID = &v
	}
	if v := c.QueryParam("action"); v != "" {
		action := types.ActionType(v)
		filters.Action = &action
	}
	if v := c.QueryParam("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			return ErrorBadRequest(c, "success must be a boolean")
		}
		filters.Success = &success
	}

	records, total, err := h.actions.List(c.Request().Context(), filters)
	if err != nil {
		h.logger.Error("failed to list action records", zap.Error(err))
		return ErrorInternal(c, "failed to list action records")
	}

	return SuccessPaginated(c, records, len(records), CalculatePagination(params.Page, params.PerPage, total))
}

// Usage lists usage samples, optionally for one container
// GET /api/history/usage?container_id=&since=24h&limit=
func (h *HistoryHandler) Usage(c echo.Context) error {
	window := 24 * time.Hour
	if v := c.QueryParam("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return ErrorBadRequest(c, "since must be a positive duration such as 24h")
		}
		window = d
	}

	limit := 500
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 5000 {
			return ErrorBadRequest(c, "limit must be between 1 and 5000")
		}
		limit = n
	}

	samples, err := h.usage.ListSince(c.Request().Context(), c.QueryParam("container_id"), timeNow().Add(-window), limit)
	if err != nil {
		h.logger.Error("failed to list usage samples", zap.Error(err))
		return ErrorInternal(c, "failed to list usage samples")
	}

	return SuccessList(c, samples, len(samples))
}
