package model

import (
	"time"
)

// ============================================================================
// 预约状态常量
// ============================================================================

const (
	ReserveStatusPending   = 0 // 待开奖
	ReserveStatusMatched   = 1 // 已中签
	ReserveStatusRefunded  = 2 // 未中签已退款
	ReserveStatusCancelled = 3 // 用户取消
)

// ValidReserveTransitions 预约状态只允许从 pending 单向流出，终态不可再变
var ValidReserveTransitions = map[int][]int{
	ReserveStatusPending: {ReserveStatusMatched, ReserveStatusRefunded, ReserveStatusCancelled},
}

// CanReserveTransitionTo 校验预约状态流转是否合法
func CanReserveTransitionTo(from, to int) bool {
	for _, s := range ValidReserveTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reservation 预约单表
// 用户在不知道具体藏品的情况下，按专区封顶价冻结资金并消耗算力，
// 等待外部开奖流程撮合；weight 为开奖权重
type Reservation struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReserveNo    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reserve_no"`
	RequestID    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_id"` // 幂等ID
	UserID       int64      `gorm:"index;not null" json:"user_id"`
	SessionID    int64      `gorm:"index;not null" json:"session_id"` // 场次ID
	ZoneID       int64      `gorm:"index;not null" json:"zone_id"`
	PackageID    int64      `gorm:"not null;default:0" json:"package_id"`
	FreezeAmount int64      `gorm:"not null" json:"freeze_amount"` // 冻结金额 = 专区封顶价
	CreditsUsed  int64      `gorm:"not null" json:"credits_used"`  // 消耗算力 = 基础 + 加注
	Weight       int64      `gorm:"not null" json:"weight"`        // 开奖权重
	BatchNo      string     `gorm:"type:varchar(64);not null" json:"batch_no"` // 冻结流水批次
	Status       int        `gorm:"index;not null;default:0" json:"status"`
	HoldingID    int64      `gorm:"not null;default:0" json:"holding_id"` // 中签生成的持仓
	OrderRef     string     `gorm:"type:varchar(64)" json:"order_ref"`    // 中签关联订单号
	MatchedAt    *time.Time `json:"matched_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservation"
}
