package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

func TestListContainers(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCount  int
	}{
		{name: "all by default", path: "/api/containers", wantStatus: http.StatusOK, wantCount: 3},
		{name: "running only", path: "/api/containers?all=false", wantStatus: http.StatusOK, wantCount: 2},
		{name: "invalid flag", path: "/api/containers?all=maybe", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := fx.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.False(t, env.Success)
				return
			}

			require.NotNil(t, env.Count)
			assert.Equal(t, tt.wantCount, *env.Count)

			var containers []engine.Container
			decode(t, env.Data, &containers)
			assert.Len(t, containers, tt.wantCount)
		})
	}
}

func TestContainerIDValidation(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "too short", path: "/api/containers/abc/stats", wantErr: "Invalid container ID"},
		{name: "not hex", path: "/api/containers/zzzzzzzzzzzzzz/logs", wantErr: "Container ID must be hexadecimal"},
		{name: "network id", path: "/api/networks/xyz", wantErr: "Invalid container ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.name == "network id" {
				method = http.MethodDelete
			}
			rec, env := fx.do(t, method, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, env.Error)
		})
	}
}

func TestSelfTerminationGuard(t *testing.T) {
	fx := newFixture(t)
	self := selfID + "0000"

	for _, tt := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/containers/" + self + "/stop"},
		{http.MethodPost, "/api/containers/" + self + "/restart"},
		{http.MethodDelete, "/api/containers/" + self},
	} {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, env := fx.do(t, tt.method, tt.path, "")
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Contains(t, env.Error, "Cannot control the backend container")
		})
	}

	assert.Empty(t, fx.engine.Calls)
}

func TestContainerLifecycle(t *testing.T) {
	fx := newFixture(t)

	rec, env := fx.do(t, http.MethodPost, "/api/containers/"+webID+"/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Container "+webID+" stopped successfully", env.Message)

	var result engine.ActionResult
	decode(t, env.Data, &result)
	assert.Equal(t, engine.StatusStopped, result.Status)

	rec, _ = fx.do(t, http.MethodPost, "/api/containers/"+webID+"/start", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = fx.do(t, http.MethodPost, "/api/containers/"+webID+"/restart", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Container "+webID+" restarted successfully", env.Message)

	assert.True(t, fx.engine.Called("stop container", webID))
	assert.True(t, fx.engine.Called("start container", webID))
	assert.True(t, fx.engine.Called("restart container", webID))
}

func TestContainerErrors(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(fx *fixture)
		method     string
		path       string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "not found",
			method:     http.MethodPost,
			path:       "/api/containers/dddddddddddd/start",
			wantStatus: http.StatusNotFound,
			wantErr:    "failed to start container",
		},
		{
			name:       "remove running without force",
			method:     http.MethodDelete,
			path:       "/api/containers/" + webID,
			wantStatus: http.StatusConflict,
			wantErr:    "is running",
		},
		{
			name:       "daemon down",
			setup:      func(fx *fixture) { fx.engine.Down = true },
			method:     http.MethodGet,
			path:       "/api/containers",
			wantStatus: http.StatusServiceUnavailable,
			wantErr:    "failed to list containers",
		},
		{
			name:       "unclassified failure",
			setup:      func(fx *fixture) { fx.engine.Errors["get container logs"] = errBoom },
			method:     http.MethodGet,
			path:       "/api/containers/" + webID + "/logs",
			wantStatus: http.StatusInternalServerError,
			wantErr:    "failed to get container logs: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			if tt.setup != nil {
				tt.setup(fx)
			}

			rec, env := fx.do(t, tt.method, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, tt.wantErr)
		})
	}
}

func TestRemoveContainerForce(t *testing.T) {
	fx := newFixture(t)

	rec, env := fx.do(t, http.MethodDelete, "/api/containers/"+webID+"?force=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Container "+webID+" removed successfully", env.Message)
	assert.NotContains(t, fx.engine.Containers, webID)
}

func TestContainerReads(t *testing.T) {
	fx := newFixture(t)

	rec, env := fx.do(t, http.MethodGet, "/api/containers/"+webID+"/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var logs engine.Logs
	decode(t, env.Data, &logs)
	assert.Equal(t, "web", logs.Name)
	assert.Contains(t, logs.Logs, "favicon")

	rec, env = fx.do(t, http.MethodGet, "/api/containers/"+webID[:12]+"/inspect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"Id":"`+webID+`"`)

	rec, env = fx.do(t, http.MethodGet, "/api/containers/"+webID+"/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "memory_stats")
}

func TestCreateContainer(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		fx := newFixture(t)

		rec, env := fx.do(t, http.MethodPost, "/api/containers", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Container created and started successfully", env.Message)

		var result engine.ActionResult
		decode(t, env.Data, &result)
		assert.Equal(t, engine.StatusCreated, result.Status)
		assert.Contains(t, result.Name, "container-")

		created := fx.engine.Containers[result.ContainerID]
		require.NotNil(t, created)
		assert.Equal(t, engine.DefaultImage, created.Image)
	})

	t.Run("explicit", func(t *testing.T) {
		fx := newFixture(t)

		rec, env := fx.do(t, http.MethodPost, "/api/containers",
			`{"image":"redis:7","name":"cache","port_bindings":{"6379/tcp":[{"host_port":"6380"}]}}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var result engine.ActionResult
		decode(t, env.Data, &result)
		assert.Equal(t, "cache", result.Name)
		assert.Equal(t, "redis:7", fx.engine.Containers[result.ContainerID].Image)
	})

	t.Run("malformed body", func(t *testing.T) {
		fx := newFixture(t)

		rec, env := fx.do(t, http.MethodPost, "/api/containers", `{"image":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", env.Error)
	})
}

func TestPruneContainers(t *testing.T) {
	fx := newFixture(t)

	rec, env := fx.do(t, http.MethodPost, "/api/containers/prune", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stopped containers pruned successfully", env.Message)

	var report engine.PruneReport
	decode(t, env.Data, &report)
	assert.Equal(t, []string{oldID}, report.Deleted)
}

func TestActionsAreRecorded(t *testing.T) {
	log := &fakeActionLog{}
	fx := newFixture(t, withStore(log, nil, nil))

	fx.do(t, http.MethodPost, "/api/containers/"+webID+"/stop", "")
	fx.do(t, http.MethodPost, "/api/containers/dddddddddddd/start", "")

	require.Len(t, log.records, 2)

	stop := log.records[0]
	assert.Equal(t, types.ActionStop, stop.Action)
	assert.Equal(t, types.ResourceContainer, stop.ResourceType)
	assert.Equal(t, webID, stop.ResourceID)
	assert.True(t, stop.Success)
	assert.Nil(t, stop.ErrorMessage)
	assert.Equal(t, "anonymous", stop.Actor)
	assert.NotEmpty(t, stop.Metadata["request_id"])

	start := log.records[1]
	assert.False(t, start.Success)
	require.NotNil(t, start.ErrorMessage)
	assert.Contains(t, *start.ErrorMessage, "No such container")
}

func TestActionLogFailureDoesNotFailRequest(t *testing.T) {
	log := &fakeActionLog{err: errBoom}
	fx := newFixture(t, withStore(log, nil, nil))

	rec, env := fx.do(t, http.MethodPost, "/api/containers/"+webID+"/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}
