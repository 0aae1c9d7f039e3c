package repository

import (
	"context"
	"time"

	"collectmarket/internal/model"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create 追加一条流水，只插入，任何路径都不更新或删除流水行
func (r *LedgerRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *LedgerRepository) GetByFlowNo(ctx context.Context, flowNo string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.WithContext(ctx).Where("flow_no = ?", flowNo).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *LedgerRepository) ListByBatchNo(ctx context.Context, batchNo string) ([]*model.LedgerEntry, error) {
	var entries []*model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("batch_no = ?", batchNo).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// FlowQuery 流水查询条件，零值字段不参与过滤
type FlowQuery struct {
	UserID   int64
	Pool     string
	BizType  string
	BatchNo  string
	Begin    time.Time
	End      time.Time
	Page     int
	PageSize int
}

// List 按条件分页查询流水
func (r *LedgerRepository) List(ctx context.Context, q FlowQuery) ([]*model.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("user_id = ?", q.UserID)

	if q.Pool != "" {
		query = query.Where("pool = ?", q.Pool)
	}
	if q.BizType != "" {
		query = query.Where("biz_type = ?", q.BizType)
	}
	if q.BatchNo != "" {
		query = query.Where("batch_no = ?", q.BatchNo)
	}
	if !q.Begin.IsZero() {
		query = query.Where("created_at >= ?", q.Begin)
	}
	if !q.End.IsZero() {
		query = query.Where("created_at < ?", q.End)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var entries []*model.LedgerEntry
	err := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error

	return entries, total, err
}
