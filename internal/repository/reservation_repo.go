package repository

import (
	"context"
	"errors"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx *gorm.DB, rsv *model.Reservation) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(rsv).Error
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	var rsv model.Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rsv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("预约单不存在")
		}
		return nil, err
	}
	return &rsv, nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.Reservation, error) {
	var rsv model.Reservation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&rsv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("预约单不存在")
		}
		return nil, err
	}
	return &rsv, nil
}

func (r *ReservationRepository) GetByRequestID(ctx context.Context, requestID string) (*model.Reservation, error) {
	var rsv model.Reservation
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&rsv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rsv, nil
}

// UpdateStatus 条件更新预约状态，状态表校验 + WHERE 双保险
// 附带字段（中签持仓等）只在状态匹配时一并写入
func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, from, to int, extra map[string]interface{}) error {
	if !model.CanReserveTransitionTo(from, to) {
		return errs.InvalidState("预约状态不允许该变更")
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.InvalidState("预约状态已变更，请勿重复操作")
	}
	return nil
}

func (r *ReservationRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.Reservation, int64, error) {
	var list []*model.Reservation
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Reservation{}).Where("user_id = ?", userID)

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
