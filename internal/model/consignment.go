package model

import (
	"time"
)

// ============================================================================
// 寄售状态常量
// ============================================================================

const (
	ConsignStatusCancelled = 0 // 已撤回
	ConsignStatusListed    = 1 // 寄售中
	ConsignStatusSold      = 2 // 已售出
	ConsignStatusExpired   = 3 // 已流拍
)

// 撤回后不允许恢复为寄售中，重新上架必须新建寄售单，
// 保留历史记录供免费重挂判定使用
var ValidConsignTransitions = map[int][]int{
	ConsignStatusListed: {ConsignStatusCancelled, ConsignStatusSold, ConsignStatusExpired},
}

// CanConsignTransitionTo 校验寄售状态流转是否合法
func CanConsignTransitionTo(from, to int) bool {
	for _, s := range ValidConsignTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// 免费挂单来源
const (
	WaiveSourceNone    = 0 // 正常收费
	WaiveSourceRelist  = 1 // 上一次流拍的免费重挂权
	WaiveSourceAttempt = 2 // 持仓自带免费次数
)

// Consignment 寄售单表
// list_price 取挂单时藏品实时市场价，非卖家自定价；
// original_price 快照卖家取得成本，结算按差额利润模型分账
type Consignment struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConsignNo      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"consign_no"`
	RequestID      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_id"` // 幂等ID
	SellerID       int64      `gorm:"index;not null" json:"seller_id"`
	HoldingID      int64      `gorm:"index;not null" json:"holding_id"`
	ItemID         int64      `gorm:"index;not null" json:"item_id"`
	SessionID      int64      `gorm:"index;not null" json:"session_id"`
	ZoneID         int64      `gorm:"index;not null" json:"zone_id"`
	PackageID      int64      `gorm:"not null;default:0" json:"package_id"`
	ListPrice      int64      `gorm:"not null" json:"list_price"`      // 挂单价（实时市场价）
	OriginalPrice  int64      `gorm:"not null" json:"original_price"`  // 卖家取得成本（快照）
	ServiceFeeAmt  int64      `gorm:"not null;default:0" json:"service_fee_amt"` // 挂单时收取的服务费，售出时按成本价比例退
	CouponID       int64      `gorm:"not null;default:0" json:"coupon_id"`       // 消耗的寄售券，0为免券
	WaiveSource    int        `gorm:"not null;default:0" json:"waive_source"`    // 免费挂单来源
	Status         int        `gorm:"index;not null;default:1" json:"status"`
	FreeRelistUsed bool       `gorm:"not null;default:false" json:"free_relist_used"` // 流拍后的免费重挂权是否已被消耗
	BatchNo        string     `gorm:"type:varchar(64)" json:"batch_no"`               // 挂单收费批次
	ExpireAt       time.Time  `gorm:"index;not null" json:"expire_at"`
	SoldAt         *time.Time `json:"sold_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Consignment) TableName() string {
	return "consignment"
}
