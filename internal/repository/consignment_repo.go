package repository

import (
	"context"
	"errors"
	"time"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConsignmentRepository struct {
	db *gorm.DB
}

func NewConsignmentRepository(db *gorm.DB) *ConsignmentRepository {
	return &ConsignmentRepository{db: db}
}

func (r *ConsignmentRepository) Create(ctx context.Context, tx *gorm.DB, c *model.Consignment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(c).Error
}

func (r *ConsignmentRepository) GetByID(ctx context.Context, id int64) (*model.Consignment, error) {
	var c model.Consignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("寄售单不存在")
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConsignmentRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Consignment, error) {
	var c model.Consignment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("寄售单不存在")
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConsignmentRepository) GetByRequestID(ctx context.Context, requestID string) (*model.Consignment, error) {
	var c model.Consignment
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetLatestByHoldingID 取某持仓最近一条寄售记录
// 免费重挂只看最近一条，两次之前的流拍不再授予豁免
func (r *ConsignmentRepository) GetLatestByHoldingID(ctx context.Context, tx *gorm.DB, holdingID int64) (*model.Consignment, error) {
	if tx == nil {
		tx = r.db
	}
	var c model.Consignment
	err := tx.WithContext(ctx).
		Where("holding_id = ?", holdingID).
		Order("id DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ConsumeFreeRelist 消耗流拍免费重挂权，条件更新保证只成功一次
func (r *ConsignmentRepository) ConsumeFreeRelist(ctx context.Context, tx *gorm.DB, id int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Consignment{}).
		Where("id = ? AND status = ? AND free_relist_used = ?", id, model.ConsignStatusExpired, false).
		Update("free_relist_used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatus 条件更新寄售状态
func (r *ConsignmentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, from, to int, extra map[string]interface{}) error {
	if !model.CanConsignTransitionTo(from, to) {
		return errs.InvalidState("寄售状态不允许该变更")
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.WithContext(ctx).
		Model(&model.Consignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.InvalidState("寄售状态已变更，请勿重复操作")
	}
	return nil
}

// ListExpired 查询已过截止时间仍在架的寄售单
func (r *ConsignmentRepository) ListExpired(ctx context.Context, limit int) ([]*model.Consignment, error) {
	var list []*model.Consignment
	err := r.db.WithContext(ctx).
		Where("status = ? AND expire_at < ?", model.ConsignStatusListed, time.Now()).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *ConsignmentRepository) ListBySellerID(ctx context.Context, sellerID int64, page, pageSize int) ([]*model.Consignment, int64, error) {
	var list []*model.Consignment
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Consignment{}).Where("seller_id = ?", sellerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error

	return list, total, err
}
