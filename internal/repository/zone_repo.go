package repository

import (
	"context"
	"errors"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) GetByID(ctx context.Context, id int64) (*model.PriceZone, error) {
	var zone model.PriceZone
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("价格专区不存在")
		}
		return nil, err
	}
	return &zone, nil
}

// FindByPrice 查找包含该价格的专区
// 价格带 (min, max]；max=0 的不封顶专区兜底匹配
func (r *ZoneRepository) FindByPrice(ctx context.Context, price int64) (*model.PriceZone, error) {
	var zone model.PriceZone
	err := r.db.WithContext(ctx).
		Where("min_price < ? AND (max_price >= ? OR max_price = 0)", price, price).
		Order("min_price DESC").
		First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

func (r *ZoneRepository) GetByName(ctx context.Context, name string) (*model.PriceZone, error) {
	var zone model.PriceZone
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("价格专区不存在")
		}
		return nil, err
	}
	return &zone, nil
}

// CreateIfAbsent 幂等建区
// 专区名唯一索引 + DoNothing，并发建同名专区时以先插入者为准，回读返回
func (r *ZoneRepository) CreateIfAbsent(ctx context.Context, zone *model.PriceZone) (*model.PriceZone, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(zone).Error
	if err != nil {
		return nil, err
	}
	return r.GetByName(ctx, zone.Name)
}
