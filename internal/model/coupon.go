package model

import (
	"time"
)

const (
	CouponStatusAvailable = 0 // 可用
	CouponStatusUsed      = 1 // 已用
)

// Coupon 寄售券表
// 一券一用，限定（场次，专区），过期作废
type Coupon struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"index;not null" json:"user_id"`
	SessionID int64      `gorm:"index;not null" json:"session_id"`
	ZoneID    int64      `gorm:"index;not null" json:"zone_id"`
	Status    int        `gorm:"index;not null;default:0" json:"status"`
	UsedRef   string     `gorm:"type:varchar(64)" json:"used_ref"` // 消耗时关联的寄售单号
	UsedAt    *time.Time `json:"used_at"`
	ExpireAt  time.Time  `gorm:"index;not null" json:"expire_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupon"
}
