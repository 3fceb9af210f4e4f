package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apimiddleware "github.com/tsanders-rh/dockctl/internal/api/middleware"
	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/store"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

const (
	// HeaderIdempotencyKey makes a bulk request safe to retry
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay is set on responses served from the idempotency cache
	HeaderIdempotentReplay = "Idempotent-Replayed"
	// HeaderOperationID carries the operation ID shared by every item of a bulk request
	HeaderOperationID = "X-Operation-ID"

	idempotencyTTL = 24 * time.Hour
)

// BulkRequest is the body of a bulk container action
type BulkRequest struct {
	ContainerIDs []string `json:"container_ids" validate:"required,min=1,max=200,dive,required"`
}

// bulkRunner runs stop and remove over many containers with settle-all
// semantics. Per-item failures are reported in the result list and never
// turn into an HTTP error.
type bulkRunner struct {
	engine      engine.Engine
	stop        *bulk.Dispatcher
	remove      *bulk.Dispatcher
	selfID      string
	idempotency IdempotencyCache
	actions     *actionRecorder
	logger      *zap.Logger
}

func newBulkRunner(deps Dependencies, selfID string, actions *actionRecorder) *bulkRunner {
	return &bulkRunner{
		engine:      deps.Engine,
		stop:        bulk.NewDispatcher(deps.Bulk, deps.Metrics.BulkObserver(string(types.ActionStop))),
		remove:      bulk.NewDispatcher(deps.Bulk, deps.Metrics.BulkObserver(string(types.ActionRemove))),
		selfID:      selfID,
		idempotency: deps.Idempotency,
		actions:     actions,
		logger:      deps.Logger,
	}
}

func (b *bulkRunner) handle(c echo.Context, action types.ActionType, message string) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return ErrorBadRequest(c, "Invalid request body")
	}

	var req BulkRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return ErrorBadRequest(c, "Invalid request body")
		}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	key := c.Request().Header.Get(HeaderIdempotencyKey)
	cache := key != "" && b.idempotency != nil

	var hash string
	if cache {
		hash = requestHash(c.Request(), body)
		cached, err := b.idempotency.Lookup(ctx, key, hash)
		switch {
		case err == nil && cached.ResponseStatusCode != nil:
			c.Response().Header().Set(HeaderIdempotentReplay, "true")
			return c.JSONBlob(*cached.ResponseStatusCode, cached.ResponseBody)
		case errors.Is(err, store.ErrConflict):
			return ErrorConflict(c, "Idempotency-Key was already used with a different request")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			b.logger.Warn("idempotency lookup failed, executing request", zap.Error(err))
		}
	}

	force := c.QueryParam("force") == "true"
	dispatcher := b.stop
	if action == types.ActionRemove {
		dispatcher = b.remove
	}

	opID := types.GenerateOperationID()
	results := dispatcher.Dispatch(ctx, req.ContainerIDs, b.action(action, force))
	b.actions.recordBulk(c, opID, action, results)

	summary := bulk.Summarize(results)
	b.logger.Info("bulk operation completed",
		zap.String("operation_id", opID),
		zap.String("action", string(action)),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))

	count := len(results)
	payload, err := json.Marshal(&Response{
		Success: true,
		Count:   &count,
		Message: message,
		Data:    results,
	})
	if err != nil {
		return ErrorInternal(c, "failed to encode bulk results")
	}

	if cache {
		if err := b.idempotency.Save(ctx, key, hash, http.StatusOK, payload, idempotencyTTL); err != nil {
			b.logger.Warn("failed to cache bulk response",
				zap.String("operation_id", opID),
				zap.Error(err))
		}
	}

	c.Response().Header().Set(HeaderOperationID, opID)
	return c.JSONBlob(http.StatusOK, payload)
}

// action guards each item the way the single-container routes are guarded,
// then calls the daemon
func (b *bulkRunner) action(action types.ActionType, force bool) bulk.Action {
	return func(ctx context.Context, id string) (interface{}, error) {
		if ok, msg := apimiddleware.ValidID(id); !ok {
			return nil, errors.New(msg)
		}
		if apimiddleware.IsSelf(b.selfID, id) {
			return nil, errors.New(apimiddleware.SelfTerminationMessage)
		}

		if action == types.ActionRemove {
			return b.engine.RemoveContainer(ctx, id, force)
		}
		return b.engine.StopContainer(ctx, id)
	}
}

// requestHash fingerprints a request so a reused Idempotency-Key with a
// different payload can be detected
func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Query().Encode()))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
