package model

import (
	"encoding/json"
	"time"
)

// ============================================================================
// 业务类型常量
// ============================================================================

const (
	BizTypeRecharge      = "RECHARGE"        // 充值
	BizTypeActivate      = "ACTIVATE"        // 待激活余额解锁
	BizTypeReserveFreeze = "RESERVE_FREEZE"  // 预约冻结（余额+算力）
	BizTypeReserveMatch  = "RESERVE_MATCH"   // 预约中签差额退款
	BizTypeReserveRefund = "RESERVE_REFUND"  // 预约未中签退款
	BizTypeReserveCancel = "RESERVE_CANCEL"  // 预约取消退款
	BizTypeConsignFee    = "CONSIGN_FEE"     // 寄售服务费
	BizTypeTradePay      = "TRADE_PAY"       // 买家购买扣款
	BizTypeTradeIncome   = "TRADE_INCOME"    // 卖家寄售回款
	BizTypeTradePoints   = "TRADE_POINTS"    // 卖家利润积分
	BizTypeCommDirect    = "COMM_DIRECT"     // 直推佣金
	BizTypeCommIndirect  = "COMM_INDIRECT"   // 间推佣金
	BizTypeCommTier      = "COMM_TIER"       // 级差佣金
	BizTypeCommSameLevel = "COMM_SAME_LEVEL" // 平级佣金
)

// LedgerEntry 账户流水表
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. before 必须是加锁后读到的资金池当前值，after = before + delta
// 3. 同一业务事件的多条流水共享 batch_no，便于整体对账
type LedgerEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FlowNo    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"flow_no"` // 流水号（全局唯一）
	BatchNo   string    `gorm:"type:varchar(64);index;not null" json:"batch_no"`      // 业务事件批次号
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	BizType   string    `gorm:"type:varchar(32);index;not null" json:"biz_type"` // 业务类型
	BizRef    string    `gorm:"type:varchar(64);index;not null" json:"biz_ref"`  // 关联业务单号
	Pool      string    `gorm:"type:varchar(32);index;not null" json:"pool"`     // 资金池
	Delta     int64     `gorm:"not null" json:"delta"`                           // 变动金额（正入负出）
	Before    int64     `gorm:"not null" json:"before"`                          // 变动前值
	After     int64     `gorm:"not null" json:"after"`                           // 变动后值
	Memo      string    `gorm:"type:varchar(256)" json:"memo"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"` // 按业务类型序列化的附加信息
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entry"
}

// ============================================================================
// 流水附加信息（按业务类型的封闭变体集合，统一序列化）
// ============================================================================

// ReservePayload 预约类流水附加信息
type ReservePayload struct {
	ReserveNo    string `json:"reserve_no"`
	ZoneID       int64  `json:"zone_id"`
	CreditsUsed  int64  `json:"credits_used,omitempty"`
	FreezeAmount int64  `json:"freeze_amount,omitempty"`
}

// TradePayload 交易类流水附加信息
type TradePayload struct {
	ConsignNo     string `json:"consign_no"`
	TradeNo       string `json:"trade_no,omitempty"`
	ListPrice     int64  `json:"list_price"`
	OriginalPrice int64  `json:"original_price,omitempty"`
}

// CommissionPayload 佣金类流水附加信息
type CommissionPayload struct {
	SellerID  int64   `json:"seller_id"`
	Tier      int     `json:"tier"`
	Rate      float64 `json:"rate"`
	SameLevel bool    `json:"same_level,omitempty"`
}

// MarshalPayload 序列化附加信息，失败时返回空串（附加信息不参与对账）
func MarshalPayload(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
