package repository

import (
	"context"
	"errors"
	"time"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
)

type TradeOrderRepository struct {
	db *gorm.DB
}

func NewTradeOrderRepository(db *gorm.DB) *TradeOrderRepository {
	return &TradeOrderRepository{db: db}
}

func (r *TradeOrderRepository) Create(ctx context.Context, tx *gorm.DB, order *model.TradeOrder) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *TradeOrderRepository) GetByTradeNo(ctx context.Context, tradeNo string) (*model.TradeOrder, error) {
	var order model.TradeOrder
	err := r.db.WithContext(ctx).Where("trade_no = ?", tradeNo).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("订单不存在")
		}
		return nil, err
	}
	return &order, nil
}

// GetByRequestID 幂等查询，同一 request_id 的重试直接返回已有订单
func (r *TradeOrderRepository) GetByRequestID(ctx context.Context, requestID string) (*model.TradeOrder, error) {
	var order model.TradeOrder
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *TradeOrderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, tradeNo string, from, to string) error {
	if !model.CanTradeTransitionTo(from, to) {
		return errs.InvalidState("订单状态不允许该变更")
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{"status": to}
	if to == model.TradeStatusPaid {
		now := time.Now()
		updates["paid_at"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.TradeOrder{}).
		Where("trade_no = ? AND status = ?", tradeNo, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.InvalidState("订单状态已变更")
	}
	return nil
}
