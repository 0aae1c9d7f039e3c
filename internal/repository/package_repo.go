package repository

import (
	"context"
	"errors"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) Create(ctx context.Context, tx *gorm.DB, pkg *model.AssetPackage) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(pkg).Error
}

func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*model.AssetPackage, error) {
	var pkg model.AssetPackage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("资产包不存在")
		}
		return nil, err
	}
	return &pkg, nil
}

// FindByName 场次内按名称查包
func (r *PackageRepository) FindByName(ctx context.Context, sessionID int64, name string) (*model.AssetPackage, error) {
	var pkg model.AssetPackage
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND name = ? AND status = 1", sessionID, name).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// FindAnyActive 场次内任取一个启用中的包
func (r *PackageRepository) FindAnyActive(ctx context.Context, sessionID int64) (*model.AssetPackage, error) {
	var pkg model.AssetPackage
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = 1", sessionID).
		Order("id ASC").
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// BumpItemCount 每次挂入藏品累加包内计数
func (r *PackageRepository) BumpItemCount(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.AssetPackage{}).
		Where("id = ?", id).
		UpdateColumn("item_count", gorm.Expr("item_count + 1")).Error
}
