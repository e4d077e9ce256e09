package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	budgetapp "github.com/bizledger/backend/internal/application/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBudgetLister struct {
	mu      sync.Mutex
	budgets []budgetapp.BudgetResponse
	err     error
	calls   []shared.Filter
}

func (f *fakeBudgetLister) List(_ context.Context, filter shared.Filter) (*shared.Paginated[budgetapp.BudgetResponse], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filter)
	if f.err != nil {
		return nil, f.err
	}
	start := (filter.Page - 1) * filter.PageSize
	if start > len(f.budgets) {
		start = len(f.budgets)
	}
	end := start + filter.PageSize
	if end > len(f.budgets) {
		end = len(f.budgets)
	}
	page := shared.NewPaginated(f.budgets[start:end], int64(len(f.budgets)), filter.Page, filter.PageSize)
	return &page, nil
}

func (f *fakeBudgetLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordedCount struct {
	budgetType, status string
	count              int64
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedCount
}

func (r *fakeRecorder) RecordBudgetSnapshot(_ context.Context, budgetType, status string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedCount{budgetType, status, count})
}

func budgets(pairs ...string) []budgetapp.BudgetResponse {
	out := make([]budgetapp.BudgetResponse, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, budgetapp.BudgetResponse{ID: int64(len(out) + 1), Type: pairs[i], Status: pairs[i+1]})
	}
	return out
}

func testConfig() BudgetSnapshotSchedulerConfig {
	cfg := DefaultBudgetSnapshotSchedulerConfig()
	cfg.PageSize = 2
	return cfg
}

func TestDefaultBudgetSnapshotSchedulerConfig(t *testing.T) {
	cfg := DefaultBudgetSnapshotSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 100, cfg.PageSize)
	assert.NoError(t, cfg.Validate())
}

func TestBudgetSnapshotSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BudgetSnapshotSchedulerConfig)
	}{
		{"zero interval", func(c *BudgetSnapshotSchedulerConfig) { c.Interval = 0 }},
		{"zero timeout", func(c *BudgetSnapshotSchedulerConfig) { c.Timeout = 0 }},
		{"zero page size", func(c *BudgetSnapshotSchedulerConfig) { c.PageSize = 0 }},
		{"page size above limit", func(c *BudgetSnapshotSchedulerConfig) { c.PageSize = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBudgetSnapshotSchedulerConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewBudgetSnapshotScheduler(&fakeBudgetLister{}, nil, zap.NewNop(), cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestTakeSnapshot_CountsAcrossPages(t *testing.T) {
	lister := &fakeBudgetLister{budgets: budgets(
		"income", "safe",
		"income", "critical",
		"expense", "warning",
		"income", "safe",
		"expense", "critical",
	)}
	recorder := &fakeRecorder{}
	s, err := NewBudgetSnapshotScheduler(lister, recorder, zap.NewNop(), testConfig())
	require.NoError(t, err)

	snapshot, err := s.TakeSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, snapshot.Total)
	assert.Equal(t, int64(2), snapshot.Counts["income"]["safe"])
	assert.Equal(t, int64(1), snapshot.Counts["income"]["critical"])
	assert.Equal(t, int64(0), snapshot.Counts["income"]["warning"])
	assert.Equal(t, int64(1), snapshot.Counts["expense"]["warning"])
	assert.Equal(t, int64(1), snapshot.Counts["expense"]["critical"])
	assert.Equal(t, int64(2), snapshot.count("critical"))

	require.Len(t, lister.calls, 3)
	for i, call := range lister.calls {
		assert.Equal(t, i+1, call.Page)
		assert.Equal(t, "id", call.OrderBy)
	}

	// zeros are recorded too
	assert.Len(t, recorder.records, 8)
	assert.Contains(t, recorder.records, recordedCount{"income", "on_track", 0})
	assert.Contains(t, recorder.records, recordedCount{"income", "safe", 2})
	assert.Same(t, snapshot, s.LastSnapshot())
}

func TestTakeSnapshot_Empty(t *testing.T) {
	lister := &fakeBudgetLister{}
	s, err := NewBudgetSnapshotScheduler(lister, nil, zap.NewNop(), testConfig())
	require.NoError(t, err)

	snapshot, err := s.TakeSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.Total)
	assert.Equal(t, 1, lister.callCount())
}

func TestTakeSnapshot_ListError(t *testing.T) {
	lister := &fakeBudgetLister{err: errors.New("db down")}
	s, err := NewBudgetSnapshotScheduler(lister, &fakeRecorder{}, zap.NewNop(), testConfig())
	require.NoError(t, err)

	_, err = s.TakeSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, s.LastSnapshot())
}

func TestBudgetSnapshotScheduler_Lifecycle(t *testing.T) {
	lister := &fakeBudgetLister{budgets: budgets("income", "safe")}
	s, err := NewBudgetSnapshotScheduler(lister, &fakeRecorder{}, zap.NewNop(), testConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, s.TriggerImmediateSnapshot(context.Background()), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()))

	// the first snapshot runs on start
	require.Eventually(t, func() bool { return s.LastSnapshot() != nil }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.TriggerImmediateSnapshot(context.Background()))
	require.Eventually(t, func() bool { return lister.callCount() >= 2 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}

func TestBudgetSnapshotScheduler_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	lister := &fakeBudgetLister{}
	s, err := NewBudgetSnapshotScheduler(lister, nil, zap.NewNop(), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Equal(t, 0, lister.callCount())
}
