package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/auth"
	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// timeNow is replaced in tests
var timeNow = time.Now

// actionRecorder writes container actions to the action log. Persistence
// failures are logged and never change the response.
type actionRecorder struct {
	log    ActionLog
	logger *zap.Logger
}

func newActionRecorder(log ActionLog, logger *zap.Logger) *actionRecorder {
	return &actionRecorder{log: log, logger: logger}
}

func newRecord(c echo.Context, opID string, action types.ActionType, resource types.ResourceType, id string, errMsg string) *types.ActionRecord {
	r := &types.ActionRecord{
		ID:           types.GenerateActionID(),
		OperationID:  opID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   id,
		Success:      errMsg == "",
		Actor:        auth.Actor(c),
		Metadata: types.Metadata{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		},
		ExecutedAt: timeNow().UTC(),
	}
	if errMsg != "" {
		r.ErrorMessage = &errMsg
	}
	return r
}

// record logs a single action
func (a *actionRecorder) record(c echo.Context, action types.ActionType, resource types.ResourceType, id string, err error) {
	if a.log == nil {
		return
	}

	var msg string
	if err != nil {
		msg = err.Error()
	}

	r := newRecord(c, types.GenerateOperationID(), action, resource, id, msg)
	if lerr := a.log.Log(c.Request().Context(), r); lerr != nil {
		a.logger.Warn("failed to record action",
			zap.String("action", string(action)),
			zap.String("resource_id", id),
			zap.Error(lerr))
	}
}

// recordBulk logs every item of a bulk dispatch under one operation ID
func (a *actionRecorder) recordBulk(c echo.Context, opID string, action types.ActionType, results []bulk.Result) {
	if a.log == nil || len(results) == 0 {
		return
	}

	records := make([]*types.ActionRecord, len(results))
	for i, r := range results {
		records[i] = newRecord(c, opID, action, types.ResourceContainer, r.ID, r.Error)
		records[i].Metadata["bulk"] = true
	}

	if err := a.log.LogBatch(c.Request().Context(), records); err != nil {
		a.logger.Warn("failed to record bulk actions",
			zap.String("operation_id", opID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
