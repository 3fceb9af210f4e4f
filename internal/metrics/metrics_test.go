package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/metrics"
)

func TestBulkObserver(t *testing.T) {
	m := metrics.New()
	observe := m.BulkObserver("stop")

	observe(bulk.Result{ID: "a", Status: bulk.StatusSucceeded}, 10*time.Millisecond)
	observe(bulk.Result{ID: "b", Status: bulk.StatusFailed}, 20*time.Millisecond)
	observe(bulk.Result{ID: "c", Status: bulk.StatusSucceeded}, 5*time.Millisecond)

	expected := `
# HELP dockctl_bulk_items_total Bulk action items by action and outcome
# TYPE dockctl_bulk_items_total counter
dockctl_bulk_items_total{action="stop",status="failed"} 1
dockctl_bulk_items_total{action="stop",status="succeeded"} 2
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "dockctl_bulk_items_total")
	assert.NoError(t, err)
}

func TestRecordCostReport(t *testing.T) {
	m := metrics.New()
	m.RecordCostReport(&cost.Report{
		TotalCost:        cost.Estimate{Monthly: 36},
		ContainerCount:   3,
		IdleContainers:   []cost.IdleCandidate{{Name: "idle"}},
		PotentialSavings: cost.PotentialSavings{Monthly: 3.6, Percentage: 10},
	})

	expected := `
# HELP dockctl_estimated_monthly_cost Projected monthly cost of all sampled containers
# TYPE dockctl_estimated_monthly_cost gauge
dockctl_estimated_monthly_cost 36
# HELP dockctl_idle_containers Number of containers flagged as idle at the last sample
# TYPE dockctl_idle_containers gauge
dockctl_idle_containers 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"dockctl_estimated_monthly_cost", "dockctl_idle_containers")
	assert.NoError(t, err)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.RecordEngineFailure("stop container")
	m.RecordSamplerRun(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `dockctl_engine_failures_total{op="stop container"} 1`)
	assert.Contains(t, body, `dockctl_sampler_runs_total{status="success"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
