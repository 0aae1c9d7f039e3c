package model

import (
	"time"
)

// ============================================================================
// 持仓状态常量
// ============================================================================

const (
	HoldingStatusHeld      = 0 // 持有中
	HoldingStatusEarning   = 1 // 收益中（质押），不可寄售
	HoldingStatusDelivered = 2 // 已提货出库
	HoldingStatusSold      = 3 // 已售出
)

// 持仓寄售标记（与持仓状态正交）
const (
	HoldingConsignNone   = 0 // 未挂单
	HoldingConsignListed = 1 // 寄售中
)

// 资产来源，创建时写死，不再从标题等展示文本反推
const (
	AssetOriginNormal = 0 // 正常购入
	AssetOriginLegacy = 1 // 老资产转换，售出时不退服务费
)

// Holding 用户持仓表（一手一行）
type Holding struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	ItemID        int64     `gorm:"index;not null" json:"item_id"`
	ZoneID        int64     `gorm:"not null;default:0" json:"zone_id"`
	PackageID     int64     `gorm:"not null;default:0" json:"package_id"`
	CostPrice     int64     `gorm:"not null" json:"cost_price"` // 取得成本，寄售结算的本金
	Status        int       `gorm:"index;not null;default:0" json:"status"`
	ConsignStatus int       `gorm:"index;not null;default:0" json:"consign_status"`
	FreeAttempts  int       `gorm:"not null;default:0" json:"free_attempts"` // 剩余免费挂单次数
	Origin        int       `gorm:"not null;default:0" json:"origin"`
	AcquiredAt    time.Time `gorm:"not null" json:"acquired_at"` // 取得时间，持仓满N小时方可寄售
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holding"
}

// Item 藏品表
// market_price 为实时市场价，挂单时读取，售出后按 4%-6% 随机上浮
type Item struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(128);not null" json:"name"`
	PackageID   int64     `gorm:"index;not null;default:0" json:"package_id"` // 藏品自带的包归属，0为未指定
	MarketPrice int64     `gorm:"not null;default:0" json:"market_price"`     // 实时市场价，单位分
	Status      int       `gorm:"not null;default:1" json:"status"`           // 1上架 0下架
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string {
	return "item"
}
