package bulk_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders-rh/dockctl/internal/bulk"
)

func TestDispatch_PreservesInputOrder(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%02d", i)
	}

	d := bulk.NewDispatcher(&bulk.Config{MaxConcurrency: 8})
	results := d.Dispatch(context.Background(), ids, func(ctx context.Context, id string) (interface{}, error) {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return "done:" + id, nil
	})

	require.Len(t, results, len(ids))
	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
		assert.Equal(t, bulk.StatusSucceeded, r.Status)
		assert.Equal(t, "done:"+ids[i], r.Data)
	}
}

func TestDispatch_FailureIsIsolated(t *testing.T) {
	d := bulk.NewDispatcher(nil)
	results := d.Dispatch(context.Background(), []string{"a", "b", "c"}, func(ctx context.Context, id string) (interface{}, error) {
		if id == "b" {
			return nil, errors.New("not found")
		}
		return nil, nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, bulk.Result{ID: "a", Status: bulk.StatusSucceeded}, results[0])
	assert.Equal(t, bulk.Result{ID: "b", Status: bulk.StatusFailed, Error: "not found"}, results[1])
	assert.Equal(t, bulk.Result{ID: "c", Status: bulk.StatusSucceeded}, results[2])

	summary := bulk.Summarize(results)
	assert.Equal(t, bulk.Summary{Total: 3, Succeeded: 2, Failed: 1}, summary)
}

func TestDispatch_EveryItemAttempted(t *testing.T) {
	var calls int32
	d := bulk.NewDispatcher(&bulk.Config{MaxConcurrency: 2})
	results := d.Dispatch(context.Background(), []string{"a", "b", "c", "d"}, func(ctx context.Context, id string) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("boom")
	})

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, bulk.StatusFailed, r.Status)
		assert.Equal(t, "boom", r.Error)
	}
}

func TestDispatch_EmptyInput(t *testing.T) {
	d := bulk.NewDispatcher(nil)
	results := d.Dispatch(context.Background(), nil, func(ctx context.Context, id string) (interface{}, error) {
		t.Fatal("action must not be called")
		return nil, nil
	})

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestDispatch_RespectsConcurrencyBound(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		items int
		want  int32
	}{
		{name: "bounded", limit: 3, items: 12, want: 3},
		{name: "unbounded", limit: 0, items: 6, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inFlight, peak int32
			var mu sync.Mutex
			release := make(chan struct{})

			ids := make([]string, tt.items)
			for i := range ids {
				ids[i] = fmt.Sprintf("id-%d", i)
			}

			d := bulk.NewDispatcher(&bulk.Config{MaxConcurrency: tt.limit})
			done := make(chan []bulk.Result)
			go func() {
				done <- d.Dispatch(context.Background(), ids, func(ctx context.Context, id string) (interface{}, error) {
					n := atomic.AddInt32(&inFlight, 1)
					mu.Lock()
					if n > peak {
						peak = n
					}
					mu.Unlock()
					<-release
					atomic.AddInt32(&inFlight, -1)
					return nil, nil
				})
			}()

			require.Eventually(t, func() bool {
				return atomic.LoadInt32(&inFlight) == tt.want
			}, time.Second, time.Millisecond)

			close(release)
			results := <-done

			assert.Len(t, results, tt.items)
			mu.Lock()
			assert.Equal(t, tt.want, peak)
			mu.Unlock()
		})
	}
}

func TestDispatch_ItemTimeout(t *testing.T) {
	d := bulk.NewDispatcher(&bulk.Config{MaxConcurrency: 2, ItemTimeout: 20 * time.Millisecond})
	results := d.Dispatch(context.Background(), []string{"slow", "fast"}, func(ctx context.Context, id string) (interface{}, error) {
		if id == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return "ok", nil
	})

	require.Len(t, results, 2)
	assert.Equal(t, bulk.StatusFailed, results[0].Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), results[0].Error)
	assert.Equal(t, bulk.StatusSucceeded, results[1].Status)
}

func TestDispatch_CancelledParentFailsEveryItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := bulk.NewDispatcher(nil)
	results := d.Dispatch(ctx, []string{"a", "b"}, func(ctx context.Context, id string) (interface{}, error) {
		return nil, nil
	})

	require.Len(t, results, 2)
	for i, id := range []string{"a", "b"} {
		assert.Equal(t, id, results[i].ID)
		assert.Equal(t, bulk.StatusFailed, results[i].Status)
		assert.Equal(t, context.Canceled.Error(), results[i].Error)
	}
}

func TestDispatch_PanicBecomesFailure(t *testing.T) {
	d := bulk.NewDispatcher(nil)
	results := d.Dispatch(context.Background(), []string{"x", "y"}, func(ctx context.Context, id string) (interface{}, error) {
		if id == "x" {
			panic("kaboom")
		}
		return nil, nil
	})

	assert.Equal(t, bulk.StatusFailed, results[0].Status)
	assert.Equal(t, "panic: kaboom", results[0].Error)
	assert.Equal(t, bulk.StatusSucceeded, results[1].Status)
}

func TestDispatch_NotifiesObservers(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bulk.Status{}

	d := bulk.NewDispatcher(nil, func(r bulk.Result, elapsed time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		seen[r.ID] = r.Status
	})
	d.Dispatch(context.Background(), []string{"ok", "bad"}, func(ctx context.Context, id string) (interface{}, error) {
		if id == "bad" {
			return nil, errors.New("nope")
		}
		return nil, nil
	})

	assert.Equal(t, map[string]bulk.Status{"ok": bulk.StatusSucceeded, "bad": bulk.StatusFailed}, seen)
}
