package repository

import (
	"context"
	"errors"
	"time"

	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// FindAvailableForUpdate 加锁取一张（场次，专区）范围内未过期可用券
// 没有可用券返回 nil，由调用方决定是否拒绝挂单
func (r *CouponRepository) FindAvailableForUpdate(ctx context.Context, tx *gorm.DB, userID, sessionID, zoneID int64) (*model.Coupon, error) {
	var coupon model.Coupon
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND session_id = ? AND zone_id = ? AND status = ? AND expire_at > ?",
			userID, sessionID, zoneID, model.CouponStatusAvailable, time.Now()).
		Order("expire_at ASC").
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// MarkUsed 核销寄售券，条件更新保证一券一用
func (r *CouponRepository) MarkUsed(ctx context.Context, tx *gorm.DB, id int64, usedRef string) (bool, error) {
	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND status = ?", id, model.CouponStatusAvailable).
		Updates(map[string]interface{}{
			"status":   model.CouponStatusUsed,
			"used_ref": usedRef,
			"used_at":  &now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
