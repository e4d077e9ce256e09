package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	budgetapp "github.com/bizledger/backend/internal/application/budget"
	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BudgetLister pages through budget reports
type BudgetLister interface {
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[budgetapp.BudgetResponse], error)
}

// SnapshotRecorder receives the per type and status counts of a snapshot
type SnapshotRecorder interface {
	RecordBudgetSnapshot(ctx context.Context, budgetType, status string, count int64)
}

// BudgetSnapshot is the result of one snapshot run
type BudgetSnapshot struct {
	TakenAt time.Time
	Total   int
	// Counts is keyed by budget type, then status
	Counts map[string]map[string]int64
}

// BudgetSnapshotSchedulerConfig holds configuration for the budget snapshot scheduler
type BudgetSnapshotSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval between snapshot runs
	Interval time.Duration

	// Timeout is the maximum time for a single run
	Timeout time.Duration

	// PageSize is how many budgets are read per query
	PageSize int
}

// DefaultBudgetSnapshotSchedulerConfig returns default configuration
func DefaultBudgetSnapshotSchedulerConfig() BudgetSnapshotSchedulerConfig {
	return BudgetSnapshotSchedulerConfig{
		Enabled:  true,
		Interval: 15 * time.Minute,
		Timeout:  2 * time.Minute,
		PageSize: 100,
	}
}

// Validate checks the configuration
func (c BudgetSnapshotSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("%w: page size must be between 1 and 100", ErrInvalidConfig)
	}
	return nil
}

// BudgetSnapshotScheduler periodically counts budgets by type and
// achievement status and hands the counts to a recorder
type BudgetSnapshotScheduler struct {
	budgets   BudgetLister
	recorder  SnapshotRecorder
	logger    *zap.Logger
	config    BudgetSnapshotSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	last      *BudgetSnapshot
}

// NewBudgetSnapshotScheduler creates a new budget snapshot scheduler
func NewBudgetSnapshotScheduler(
	budgets BudgetLister,
	recorder SnapshotRecorder,
	logger *zap.Logger,
	config BudgetSnapshotSchedulerConfig,
) (*BudgetSnapshotScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &BudgetSnapshotScheduler{
		budgets:  budgets,
		recorder: recorder,
		logger:   logger,
		config:   config,
	}, nil
}

// Start starts the snapshot loop. The first snapshot is taken immediately.
func (s *BudgetSnapshotScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Budget snapshot scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Budget snapshot scheduler started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *BudgetSnapshotScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Budget snapshot scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Budget snapshot scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *BudgetSnapshotScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.execute(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Budget snapshot loop stopping")
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

func (s *BudgetSnapshotScheduler) execute(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	snapshot, err := s.TakeSnapshot(runCtx)
	duration := time.Since(startTime)
	if err != nil {
		s.logger.Error("Budget snapshot failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Budget snapshot completed",
		zap.Duration("duration", duration),
		zap.Int("total_budgets", snapshot.Total),
		zap.Int64("critical", snapshot.count(budget.StatusCritical)),
		zap.Int64("warning", snapshot.count(budget.StatusWarning)),
	)
}

// TakeSnapshot reads every budget, records the counts and returns them.
// Every type and status pair is recorded, including zeros, so a gauge
// drops back when budgets leave a status.
func (s *BudgetSnapshotScheduler) TakeSnapshot(ctx context.Context) (*BudgetSnapshot, error) {
	snapshot := &BudgetSnapshot{
		TakenAt: time.Now(),
		Counts:  make(map[string]map[string]int64),
	}
	for _, typ := range []budget.BudgetType{budget.BudgetTypeIncome, budget.BudgetTypeExpense} {
		snapshot.Counts[string(typ)] = map[string]int64{
			string(budget.StatusSafe):     0,
			string(budget.StatusOnTrack):  0,
			string(budget.StatusWarning):  0,
			string(budget.StatusCritical): 0,
		}
	}

	filter := shared.Filter{Page: 1, PageSize: s.config.PageSize, OrderBy: "id", OrderDir: "asc"}
	for {
		page, err := s.budgets.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list budgets page %d: %w", filter.Page, err)
		}
		for _, b := range page.Items {
			byStatus, ok := snapshot.Counts[b.Type]
			if !ok {
				byStatus = map[string]int64{}
				snapshot.Counts[b.Type] = byStatus
			}
			byStatus[b.Status]++
			snapshot.Total++
		}
		if len(page.Items) < filter.PageSize || filter.Page >= page.TotalPages {
			break
		}
		filter.Page++
	}

	if s.recorder != nil {
		for typ, byStatus := range snapshot.Counts {
			for status, count := range byStatus {
				s.recorder.RecordBudgetSnapshot(ctx, typ, status, count)
			}
		}
	}

	s.mu.Lock()
	s.last = snapshot
	s.mu.Unlock()
	return snapshot, nil
}

// TriggerImmediateSnapshot runs a snapshot now, outside the interval
func (s *BudgetSnapshotScheduler) TriggerImmediateSnapshot(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate budget snapshot")

	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()
	return nil
}

// LastSnapshot returns the most recent successful snapshot, or nil
func (s *BudgetSnapshotScheduler) LastSnapshot() *BudgetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// IsRunning returns whether the scheduler is running
func (s *BudgetSnapshotScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (b *BudgetSnapshot) count(status budget.Status) int64 {
	var total int64
	for _, byStatus := range b.Counts {
		total += byStatus[string(status)]
	}
	return total
}
