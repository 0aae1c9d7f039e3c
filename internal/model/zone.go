package model

import (
	"time"
)

// PriceZone 价格专区表
// (min_price, max_price] 为左开右闭价格带，max_price=0 表示不封顶专区；
// 首次出现落不进任何专区的价格时按固定档宽自动建区
type PriceZone struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	MinPrice  int64     `gorm:"not null" json:"min_price"` // 单位分
	MaxPrice  int64     `gorm:"not null" json:"max_price"` // 单位分，0为不封顶
	Status    int       `gorm:"not null;default:1" json:"status"` // 1启用 0停用
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PriceZone) TableName() string {
	return "price_zone"
}

// Contains 判断价格是否落在本专区内
func (z *PriceZone) Contains(price int64) bool {
	if price <= z.MinPrice {
		return false
	}
	return z.MaxPrice == 0 || price <= z.MaxPrice
}

// OpenEnded 是否不封顶专区
func (z *PriceZone) OpenEnded() bool {
	return z.MaxPrice == 0
}

// AssetPackage 场次资产包表
// 同一场次内按专区聚合藏品，用于寄售券与佣金的归属匹配
type AssetPackage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID int64     `gorm:"index:idx_pkg_session_name;not null" json:"session_id"`
	Name      string    `gorm:"type:varchar(64);index:idx_pkg_session_name;not null" json:"name"`
	ZoneID    int64     `gorm:"not null;default:0" json:"zone_id"` // 0 为通用包，任意专区可用
	Status    int       `gorm:"not null;default:1" json:"status"`  // 1启用 0停用
	ItemCount int64     `gorm:"not null;default:0" json:"item_count"` // 累计挂入藏品数
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AssetPackage) TableName() string {
	return "asset_package"
}
