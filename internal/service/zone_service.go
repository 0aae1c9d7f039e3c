package service

import (
	"context"
	"fmt"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"
	"collectmarket/internal/model"
	"collectmarket/internal/repository"

	"gorm.io/gorm"
)

// ZoneService 价格专区/资产包归类服务
type ZoneService struct {
	db       *gorm.DB
	cfg      *config.Manager
	zoneRepo *repository.ZoneRepository
	pkgRepo  *repository.PackageRepository
}

func NewZoneService(db *gorm.DB, cfg *config.Manager) *ZoneService {
	return &ZoneService{
		db:       db,
		cfg:      cfg,
		zoneRepo: repository.NewZoneRepository(db),
		pkgRepo:  repository.NewPackageRepository(db),
	}
}

// ZoneBucket 按档宽计算价格所属档位的上下界
// 价格带 (ceiling-width, ceiling]，专区名由档位上限推出
func ZoneBucket(price, width int64) (minPrice, maxPrice int64) {
	ceiling := ((price + width - 1) / width) * width
	return ceiling - width, ceiling
}

// ZoneName 专区名，按档位上限的元数命名
func ZoneName(maxPrice int64) string {
	return fmt.Sprintf("%d元区", maxPrice/100)
}

// Classify 价格归区，落不进任何现有专区时按固定档宽幂等建区
func (s *ZoneService) Classify(ctx context.Context, price int64) (*model.PriceZone, error) {
	if price <= 0 {
		return nil, errs.InvalidInput("价格必须大于0")
	}

	zone, err := s.zoneRepo.FindByPrice(ctx, price)
	if err != nil {
		return nil, err
	}
	if zone != nil {
		return zone, nil
	}

	width := s.cfg.Business().BucketWidth
	if width <= 0 {
		width = 50000 // 兜底档宽 500 元
	}

	minPrice, maxPrice := ZoneBucket(price, width)
	return s.zoneRepo.CreateIfAbsent(ctx, &model.PriceZone{
		Name:     ZoneName(maxPrice),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Status:   1,
	})
}

// ResolvePackage 场次内解析资产包
// 优先级：藏品自带包（需属于本场次）> 场次内同名包 > 场次内任一启用包 > 按场次+专区新建
func (s *ZoneService) ResolvePackage(ctx context.Context, tx *gorm.DB, sessionID int64, zone *model.PriceZone, itemPackageID int64) (*model.AssetPackage, error) {
	if itemPackageID > 0 {
		pkg, err := s.pkgRepo.GetByID(ctx, itemPackageID)
		if err == nil && pkg.Status == 1 && pkg.SessionID == sessionID {
			return pkg, nil
		}
		if err != nil && !errs.IsKind(err, errs.KindNotFound) {
			return nil, err
		}
	}

	name := fmt.Sprintf("S%d-%s", sessionID, zone.Name)

	pkg, err := s.pkgRepo.FindByName(ctx, sessionID, name)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		return pkg, nil
	}

	pkg, err = s.pkgRepo.FindAnyActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		return pkg, nil
	}

	pkg = &model.AssetPackage{
		SessionID: sessionID,
		Name:      name,
		ZoneID:    zone.ID,
		Status:    1,
	}
	if err := s.pkgRepo.Create(ctx, tx, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// BumpPackageCount 挂单成功后累加包内藏品计数
func (s *ZoneService) BumpPackageCount(ctx context.Context, tx *gorm.DB, packageID int64) error {
	return s.pkgRepo.BumpItemCount(ctx, tx, packageID)
}

// GetZone 读取专区
func (s *ZoneService) GetZone(ctx context.Context, id int64) (*model.PriceZone, error) {
	return s.zoneRepo.GetByID(ctx, id)
}

// GetPackage 读取资产包
func (s *ZoneService) GetPackage(ctx context.Context, id int64) (*model.AssetPackage, error) {
	return s.pkgRepo.GetByID(ctx, id)
}
