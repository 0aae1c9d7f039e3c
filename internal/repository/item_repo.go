package repository

import (
	"context"
	"errors"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("藏品不存在")
		}
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Item, error) {
	var item model.Item
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("藏品不存在")
		}
		return nil, err
	}
	return &item, nil
}

// UpdateMarketPrice 售出后的市场价上调
func (r *ItemRepository) UpdateMarketPrice(ctx context.Context, tx *gorm.DB, id int64, price int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", id).
		Update("market_price", price)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("藏品不存在")
	}
	return nil
}
