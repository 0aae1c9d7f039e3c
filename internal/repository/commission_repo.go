package repository

import (
	"context"

	"collectmarket/internal/model"

	"gorm.io/gorm"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create 落佣金审计记录，与佣金流水同事务
func (r *CommissionRepository) Create(ctx context.Context, tx *gorm.DB, rec *model.CommissionRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(rec).Error
}

func (r *CommissionRepository) ListByBatchNo(ctx context.Context, batchNo string) ([]*model.CommissionRecord, error) {
	var list []*model.CommissionRecord
	err := r.db.WithContext(ctx).
		Where("batch_no = ?", batchNo).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
