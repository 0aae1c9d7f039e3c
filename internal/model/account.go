package model

import (
	"time"
)

// ============================================================================
// 资金池常量
// ============================================================================

// 每个账户维护六个独立资金池，互不串用：
//   spendable          可用余额（购买、预约冻结用）
//   withdrawable       可提现余额（寄售回款、佣金入账）
//   service_fee        手续费专用余额（只能用于支付寄售服务费）
//   loyalty_points     积分（利润分成的积分部分）
//   compute_credits    算力值（预约消耗，不退还）
//   pending_activation 待激活余额（一次性解锁进可用余额）
const (
	PoolSpendable         = "spendable"
	PoolWithdrawable      = "withdrawable"
	PoolServiceFee        = "service_fee"
	PoolLoyaltyPoints     = "loyalty_points"
	PoolComputeCredits    = "compute_credits"
	PoolPendingActivation = "pending_activation"
)

// ValidPool 校验资金池名称是否合法
func ValidPool(pool string) bool {
	switch pool {
	case PoolSpendable, PoolWithdrawable, PoolServiceFee,
		PoolLoyaltyPoints, PoolComputeCredits, PoolPendingActivation:
		return true
	}
	return false
}

// Account 用户账户表
// 各资金池字段是流水表的缓存投影，必须与流水在同一事务内更新
// 金额单位：分；算力、积分按整数计
type Account struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Spendable         int64     `gorm:"not null;default:0" json:"spendable"`          // 可用余额
	Withdrawable      int64     `gorm:"not null;default:0" json:"withdrawable"`       // 可提现余额
	ServiceFee        int64     `gorm:"not null;default:0" json:"service_fee"`        // 手续费余额
	LoyaltyPoints     int64     `gorm:"not null;default:0" json:"loyalty_points"`     // 积分
	ComputeCredits    int64     `gorm:"not null;default:0" json:"compute_credits"`    // 算力值
	PendingActivation int64     `gorm:"not null;default:0" json:"pending_activation"` // 待激活余额
	Activated         bool      `gorm:"not null;default:false" json:"activated"`      // 待激活余额是否已解锁
	InviterID         int64     `gorm:"index;not null;default:0" json:"inviter_id"`   // 邀请人用户ID，0表示无
	AgentTier         int       `gorm:"not null;default:0" json:"agent_tier"`         // 代理等级，0非代理，1-5
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}

// PoolValue 读取指定资金池的当前值
func (a *Account) PoolValue(pool string) int64 {
	switch pool {
	case PoolSpendable:
		return a.Spendable
	case PoolWithdrawable:
		return a.Withdrawable
	case PoolServiceFee:
		return a.ServiceFee
	case PoolLoyaltyPoints:
		return a.LoyaltyPoints
	case PoolComputeCredits:
		return a.ComputeCredits
	case PoolPendingActivation:
		return a.PendingActivation
	}
	return 0
}

// SetPoolValue 写入指定资金池的内存值（数据库列由账本服务同事务更新）
func (a *Account) SetPoolValue(pool string, v int64) {
	switch pool {
	case PoolSpendable:
		a.Spendable = v
	case PoolWithdrawable:
		a.Withdrawable = v
	case PoolServiceFee:
		a.ServiceFee = v
	case PoolLoyaltyPoints:
		a.LoyaltyPoints = v
	case PoolComputeCredits:
		a.ComputeCredits = v
	case PoolPendingActivation:
		a.PendingActivation = v
	}
}
