package repository

import (
	"context"
	"errors"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HoldingRepository struct {
	db *gorm.DB
}

func NewHoldingRepository(db *gorm.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

func (r *HoldingRepository) Create(ctx context.Context, tx *gorm.DB, h *model.Holding) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(h).Error
}

func (r *HoldingRepository) GetByID(ctx context.Context, id int64) (*model.Holding, error) {
	var h model.Holding
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("持仓不存在")
		}
		return nil, err
	}
	return &h, nil
}

func (r *HoldingRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Holding, error) {
	var h model.Holding
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("持仓不存在")
		}
		return nil, err
	}
	return &h, nil
}

// MarkListed 持仓挂单标记，条件更新防并发重复挂单
// 同一持仓同时只能有一张在架寄售单，第二个并发挂单请求在这里失败
func (r *HoldingRepository) MarkListed(ctx context.Context, tx *gorm.DB, id int64) error {
	result := tx.WithContext(ctx).
		Model(&model.Holding{}).
		Where("id = ? AND status = ? AND consign_status = ?",
			id, model.HoldingStatusHeld, model.HoldingConsignNone).
		Update("consign_status", model.HoldingConsignListed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.InvalidState("该持仓已在寄售中")
	}
	return nil
}

// ResetConsign 持仓解除挂单标记（撤回、流拍）
func (r *HoldingRepository) ResetConsign(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Holding{}).
		Where("id = ? AND consign_status = ?", id, model.HoldingConsignListed).
		Update("consign_status", model.HoldingConsignNone)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.InvalidState("持仓未处于寄售中")
	}
	return nil
}

// MarkSold 持仓售出
func (r *HoldingRepository) MarkSold(ctx context.Context, tx *gorm.DB, id int64) error {
	result := tx.WithContext(ctx).
		Model(&model.Holding{}).
		Where("id = ? AND status = ? AND consign_status = ?",
			id, model.HoldingStatusHeld, model.HoldingConsignListed).
		Updates(map[string]interface{}{
			"status":         model.HoldingStatusSold,
			"consign_status": model.HoldingConsignNone,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.InvalidState("持仓状态异常，无法完成交割")
	}
	return nil
}

// ConsumeFreeAttempt 消耗一次免费挂单次数，余额不足返回 false
func (r *HoldingRepository) ConsumeFreeAttempt(ctx context.Context, tx *gorm.DB, id int64) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&model.Holding{}).
		Where("id = ? AND free_attempts > 0", id).
		UpdateColumn("free_attempts", gorm.Expr("free_attempts - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
