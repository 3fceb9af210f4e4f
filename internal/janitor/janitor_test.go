package janitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

type fakeKeys struct {
	calls   int
	deleted int64
	err     error
}

func (f *fakeKeys) CleanupExpired(ctx context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newJanitor(cfg *Config, stores Stores) *Janitor {
	j := NewJanitor(cfg, stores, nil)
	j.now = func() time.Time { return now }
	return j
}

func TestRunOnce(t *testing.T) {
	usage := &fakePruner{deleted: 12}
	actions := &fakePruner{deleted: 3}
	keys := &fakeKeys{deleted: 7}

	j := newJanitor(nil, Stores{Usage: usage, Actions: actions, Idempotency: keys})

	result, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{UsageDeleted: 12, ActionsDeleted: 3, KeysDeleted: 7}, result)

	assert.Equal(t, []time.Time{now.Add(-30 * 24 * time.Hour)}, usage.cutoffs)
	assert.Equal(t, []time.Time{now.Add(-90 * 24 * time.Hour)}, actions.cutoffs)
	assert.Equal(t, 1, keys.calls)
}

func TestRunOnceSkipsDisabledTasks(t *testing.T) {
	tests := []struct {
		name        string
		config      func(*Config)
		stores      func(u, a *fakePruner, k *fakeKeys) Stores
		wantUsage   int
		wantActions int
		wantKeys    int
	}{
		{
			name:   "no stores",
			config: func(*Config) {},
			stores: func(u, a *fakePruner, k *fakeKeys) Stores { return Stores{} },
		},
		{
			name:        "zero usage retention",
			config:      func(c *Config) { c.UsageRetention = 0 },
			stores:      func(u, a *fakePruner, k *fakeKeys) Stores { return Stores{Usage: u, Actions: a, Idempotency: k} },
			wantActions: 1,
			wantKeys:    1,
		},
		{
			name:        "key cleanup off",
			config:      func(c *Config) { c.ExpiredKeyCleanup = false },
			stores:      func(u, a *fakePruner, k *fakeKeys) Stores { return Stores{Usage: u, Actions: a, Idempotency: k} },
			wantUsage:   1,
			wantActions: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, a, k := &fakePruner{}, &fakePruner{}, &fakeKeys{}
			cfg := DefaultConfig()
			tt.config(cfg)

			_, err := newJanitor(cfg, tt.stores(u, a, k)).RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsage, u.calls())
			assert.Equal(t, tt.wantActions, a.calls())
			assert.Equal(t, tt.wantKeys, k.calls)
		})
	}
}

func TestRunOnceContinuesAfterFailure(t *testing.T) {
	usage := &fakePruner{err: errors.New("timeout")}
	actions := &fakePruner{deleted: 2}
	keys := &fakeKeys{err: errors.New("locked")}

	result, err := newJanitor(nil, Stores{Usage: usage, Actions: actions, Idempotency: keys}).RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune usage samples: timeout")
	assert.Contains(t, err.Error(), "cleanup idempotency keys: locked")
	assert.Equal(t, int64(2), result.ActionsDeleted)
}

func TestStartRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "bad schedule", config: &Config{Schedule: "every tuesday"}, wantErr: "schedule janitor"},
		{name: "bad time zone", config: &Config{Schedule: "@hourly", TimeZone: "Mars/Olympus"}, wantErr: "load time zone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newJanitor(tt.config, Stores{}).Start(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	usage := &fakePruner{}
	j := newJanitor(nil, Stores{Usage: usage})

	done := make(chan error, 1)
	go func() { done <- j.Start(context.Background()) }()

	require.Eventually(t, func() bool { return usage.calls() == 1 }, time.Second, 10*time.Millisecond)

	j.Stop()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
