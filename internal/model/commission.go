package model

import (
	"time"
)

// 佣金种类
const (
	CommKindDirect    = "DIRECT"     // 直推，固定比例
	CommKindIndirect  = "INDIRECT"   // 间推，固定比例
	CommKindTier      = "TIER"       // 级差，累进差额
	CommKindSameLevel = "SAME_LEVEL" // 平级，固定低比例
)

// CommissionRecord 佣金发放审计表
// 每笔佣金入账同时落一条审计记录，记录比例、等级与平级标记
type CommissionRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BatchNo       string    `gorm:"type:varchar(64);index;not null" json:"batch_no"` // 关联原始成交批次
	SaleRef       string    `gorm:"type:varchar(64);index;not null" json:"sale_ref"` // 成交寄售单号
	SellerID      int64     `gorm:"index;not null" json:"seller_id"`
	BeneficiaryID int64     `gorm:"index;not null" json:"beneficiary_id"`
	Kind          string    `gorm:"type:varchar(20);not null" json:"kind"`
	Tier          int       `gorm:"not null;default:0" json:"tier"` // 受益人代理等级
	Rate          float64   `gorm:"not null" json:"rate"`           // 实际发放比例
	Amount        int64     `gorm:"not null" json:"amount"`         // 发放金额，单位分
	SameLevel     bool      `gorm:"not null;default:false" json:"same_level"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CommissionRecord) TableName() string {
	return "commission_record"
}
