package model

import (
	"time"
)

const (
	TradeStatusCreated = "CREATED"
	TradeStatusPaid    = "PAID"
	TradeStatusFailed  = "FAILED"
)

var ValidTradeTransitions = map[string][]string{
	TradeStatusCreated: {TradeStatusPaid, TradeStatusFailed},
}

func CanTradeTransitionTo(from, to string) bool {
	for _, s := range ValidTradeTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TradeOrder 寄售购买订单表
// request_id 唯一索引承接客户端重试的幂等性
type TradeOrder struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeNo      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"trade_no"`
	RequestID    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_id"`
	BuyerID      int64      `gorm:"index;not null" json:"buyer_id"`
	SellerID     int64      `gorm:"index;not null" json:"seller_id"`
	ConsignNo    string     `gorm:"type:varchar(64);index;not null" json:"consign_no"`
	Amount       int64      `gorm:"not null" json:"amount"` // 成交价 = 挂单价
	SpendablePay int64      `gorm:"not null;default:0" json:"spendable_pay"`    // 可用余额支付部分
	WithdrawPay  int64      `gorm:"not null;default:0" json:"withdraw_pay"`     // 可提现余额支付部分
	Status       string     `gorm:"type:varchar(20);index;not null" json:"status"`
	BatchNo      string     `gorm:"type:varchar(64)" json:"batch_no"`
	PaidAt       *time.Time `json:"paid_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TradeOrder) TableName() string {
	return "trade_order"
}
