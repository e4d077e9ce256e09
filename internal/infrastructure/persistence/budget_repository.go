package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBudgetEventRepository implements budget.BudgetEventRepository using GORM
type GormBudgetEventRepository struct {
	db *gorm.DB
}

// NewGormBudgetEventRepository creates a new GormBudgetEventRepository
func NewGormBudgetEventRepository(db *gorm.DB) *GormBudgetEventRepository {
	return &GormBudgetEventRepository{db: db}
}

// FindByID finds a budget event by its ID
func (r *GormBudgetEventRepository) FindByID(ctx context.Context, id int64) (*budget.BudgetEvent, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a budget event and locks its row
func (r *GormBudgetEventRepository) FindByIDForUpdate(ctx context.Context, id int64) (*budget.BudgetEvent, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormBudgetEventRepository) find(db *gorm.DB, id int64) (*budget.BudgetEvent, error) {
	var model models.BudgetEventModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists budget events with paging, sorting and an optional name
// search or type filter. It returns the page and the total match count.
func (r *GormBudgetEventRepository) FindAll(ctx context.Context, filter shared.Filter) ([]budget.BudgetEvent, int64, error) {
	filter = filter.Normalized()
	query := r.db.WithContext(ctx).Model(&models.BudgetEventModel{})
	if filter.Search != "" {
		query = query.Where("LOWER(event_name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if t := filter.Where("type"); t != "" {
		query = query.Where("type = ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BudgetEventModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, BudgetSortFields, "created_at")).
		Order("id DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	events := make([]budget.BudgetEvent, len(rows))
	for i := range rows {
		events[i] = *rows[i].ToDomain()
	}
	return events, total, nil
}

// Create inserts a new budget event and assigns its ID
func (r *GormBudgetEventRepository) Create(ctx context.Context, b *budget.BudgetEvent) error {
	model := models.BudgetEventModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormBudgetEventRepository) SaveWithLock(ctx context.Context, b *budget.BudgetEvent) error {
	var current int
	result := r.db.WithContext(ctx).Model(&models.BudgetEventModel{}).
		Select("version").Where("id = ?", b.ID).Scan(&current)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	if current != b.Version-1 {
		return shared.NewConflictError("Budget event was modified by another transaction")
	}

	result = r.db.WithContext(ctx).Model(&models.BudgetEventModel{}).
		Where("id = ? AND version = ?", b.ID, b.Version-1).
		Updates(map[string]any{
			"event_name":      b.EventName,
			"type":            b.Type,
			"budgeted_amount": b.BudgetedAmount,
			"achieved_amount": b.AchievedAmount,
			"start_date":      b.StartDate,
			"end_date":        b.EndDate,
			"notes":           b.Notes,
			"version":         b.Version,
			"updated_at":      b.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("Budget event was modified by another transaction")
	}
	return nil
}

// GormBudgetRevisionRepository implements budget.BudgetRevisionRepository using GORM
type GormBudgetRevisionRepository struct {
	db *gorm.DB
}

// NewGormBudgetRevisionRepository creates a new GormBudgetRevisionRepository
func NewGormBudgetRevisionRepository(db *gorm.DB) *GormBudgetRevisionRepository {
	return &GormBudgetRevisionRepository{db: db}
}

// Create appends a revision and assigns its ID
func (r *GormBudgetRevisionRepository) Create(ctx context.Context, rev *budget.BudgetRevision) error {
	model := models.BudgetRevisionModelFromDomain(rev)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	rev.ID = model.ID
	return nil
}

// FindLatestByBudget returns the newest revision, or nil when there is none.
// Ties on created_at fall back to the higher id.
func (r *GormBudgetRevisionRepository) FindLatestByBudget(ctx context.Context, budgetID int64) (*budget.BudgetRevision, error) {
	var model models.BudgetRevisionModel
	err := r.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("created_at DESC").Order("id DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBudget returns the full history, oldest first
func (r *GormBudgetRevisionRepository) FindByBudget(ctx context.Context, budgetID int64) ([]budget.BudgetRevision, error) {
	var rows []models.BudgetRevisionModel
	if err := r.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	revisions := make([]budget.BudgetRevision, len(rows))
	for i := range rows {
		revisions[i] = *rows[i].ToDomain()
	}
	return revisions, nil
}

// CountByBudget counts the revisions of a budget
func (r *GormBudgetRevisionRepository) CountByBudget(ctx context.Context, budgetID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BudgetRevisionModel{}).
		Where("budget_id = ?", budgetID).Count(&count).Error
	return count, err
}

var (
	_ budget.BudgetEventRepository    = (*GormBudgetEventRepository)(nil)
	_ budget.BudgetRevisionRepository = (*GormBudgetRevisionRepository)(nil)
)
