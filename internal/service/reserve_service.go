package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"
	"collectmarket/internal/infrastructure/lock"
	"collectmarket/internal/model"
	"collectmarket/internal/repository"
	"collectmarket/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ============================================================================
// 预约（盲投）服务
// ============================================================================
//
// 用户对着专区下注，不知道最终拿到哪件藏品：按专区封顶价冻结可用余额、
// 消耗算力，换一张带权重的签。开奖撮合由外部流程触发，这里只负责
// 冻结、开奖差额退款、取消/未中签退款三类账务动作，每个动作一个加锁事务。

type ReserveService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Manager
	accountRepo *repository.AccountRepository
	reserveRepo *repository.ReservationRepository
	holdingRepo *repository.HoldingRepository
	itemRepo    *repository.ItemRepository
	outboxRepo  *repository.OutboxRepository
	zoneSvc     *ZoneService
	ledger      *LedgerService
}

func NewReserveService(db *gorm.DB, redisClient *redis.Client, cfg *config.Manager) *ReserveService {
	return &ReserveService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		accountRepo: repository.NewAccountRepository(db),
		reserveRepo: repository.NewReservationRepository(db),
		holdingRepo: repository.NewHoldingRepository(db),
		itemRepo:    repository.NewItemRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
		zoneSvc:     NewZoneService(db, cfg),
		ledger:      NewLedgerService(db),
	}
}

type ReserveRequest struct {
	RequestID    string `json:"request_id" binding:"required"`
	UserID       int64  `json:"user_id" binding:"required"`
	SessionID    int64  `json:"session_id" binding:"required"`
	ZoneID       int64  `json:"zone_id" binding:"required"`
	PackageID    int64  `json:"package_id"`
	BoostCredits int64  `json:"boost_credits"`
}

// Reserve 预约下注
// 校验 → 取锁 → 锁内复核余额 → 批量扣减（余额冻结+算力消耗）→ 落预约单，
// 全程一个事务，任何一步失败不留部分扣减
func (s *ReserveService) Reserve(ctx context.Context, req *ReserveRequest) (*model.Reservation, error) {
	// 幂等校验
	existing, err := s.reserveRepo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	biz := s.cfg.Business()

	if req.BoostCredits < 0 || req.BoostCredits > biz.MaxBoostCredits {
		return nil, errs.InvalidInput(
			fmt.Sprintf("加注算力超出范围，允许 0-%d", biz.MaxBoostCredits))
	}

	zone, err := s.zoneSvc.GetZone(ctx, req.ZoneID)
	if err != nil {
		return nil, err
	}
	if zone.Status != 1 {
		return nil, errs.InvalidState("该专区未开放")
	}

	if req.PackageID > 0 {
		pkg, err := s.zoneSvc.GetPackage(ctx, req.PackageID)
		if err != nil {
			return nil, err
		}
		if pkg.Status != 1 {
			return nil, errs.InvalidState("该资产包未启用")
		}
		if pkg.SessionID != req.SessionID {
			return nil, errs.InvalidState("资产包不属于该场次")
		}
		// zone_id=0 的通用包任意专区可用
		if pkg.ZoneID != 0 && pkg.ZoneID != zone.ID {
			return nil, errs.InvalidState("资产包与专区不匹配")
		}
	}

	creditsNeeded := biz.BaseCredits + req.BoostCredits
	freezeAmount := zone.MaxPrice
	if zone.OpenEnded() {
		freezeAmount = zone.MinPrice + biz.OpenZoneMargin
	}
	weight := biz.BaseWeight + req.BoostCredits*biz.BoostWeightRatio

	// 同一用户预约串行，挡重复提交
	reserveLock := lock.NewReserveLock(s.redisClient, req.UserID, req.RequestID)
	if err := reserveLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, errs.Wrap(errs.KindContention, "系统繁忙，请稍后重试", err)
	}
	defer reserveLock.Unlock(ctx)

	// 获取锁后再次检查幂等
	existing, err = s.reserveRepo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var rsv *model.Reservation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		// 锁内复核两个池，任一不足整体拒绝，不做部分扣减
		if account.ComputeCredits < creditsNeeded {
			return errs.InsufficientFunds(
				fmt.Sprintf("算力值不足，当前%d，需要%d", account.ComputeCredits, creditsNeeded))
		}
		if account.Spendable < freezeAmount {
			return errs.InsufficientFunds(
				fmt.Sprintf("可用余额不足，当前%d，需要%d", account.Spendable, freezeAmount))
		}

		reserveNo := idgen.GenerateReserveNo()
		batchNo := idgen.GenerateBatchNo()
		payload := &model.ReservePayload{
			ReserveNo:    reserveNo,
			ZoneID:       zone.ID,
			CreditsUsed:  creditsNeeded,
			FreezeAmount: freezeAmount,
		}

		_, err = s.ledger.ApplyBatch(ctx, tx, account, batchNo, []LedgerOp{
			{
				Pool:    model.PoolSpendable,
				Delta:   -freezeAmount,
				BizType: model.BizTypeReserveFreeze,
				BizRef:  reserveNo,
				Memo:    fmt.Sprintf("预约冻结-%s", zone.Name),
				Payload: payload,
			},
			{
				Pool:    model.PoolComputeCredits,
				Delta:   -creditsNeeded,
				BizType: model.BizTypeReserveFreeze,
				BizRef:  reserveNo,
				Memo:    fmt.Sprintf("预约算力消耗-%s", zone.Name),
				Payload: payload,
			},
		})
		if err != nil {
			return err
		}

		rsv = &model.Reservation{
			ReserveNo:    reserveNo,
			RequestID:    req.RequestID,
			UserID:       req.UserID,
			SessionID:    req.SessionID,
			ZoneID:       zone.ID,
			PackageID:    req.PackageID,
			FreezeAmount: freezeAmount,
			CreditsUsed:  creditsNeeded,
			Weight:       weight,
			BatchNo:      batchNo,
			Status:       model.ReserveStatusPending,
		}
		return s.reserveRepo.Create(ctx, tx, rsv)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("预约成功: reserveNo=%s, userID=%d, freeze=%d, credits=%d, weight=%d",
		rsv.ReserveNo, req.UserID, freezeAmount, creditsNeeded, weight)
	return rsv, nil
}

// Match 开奖中签（外部撮合流程回调）
// 按实际成交价生成持仓，冻结额与成交价的差额退回可用余额；算力不退
func (s *ReserveService) Match(ctx context.Context, reservationID, itemID, actualPrice int64, orderRef string) (*model.Reservation, error) {
	if actualPrice <= 0 {
		return nil, errs.InvalidInput("成交价必须大于0")
	}

	var rsv *model.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rsv, err = s.reserveRepo.GetByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if rsv.Status != model.ReserveStatusPending {
			return errs.InvalidState("预约单不在待开奖状态")
		}
		if actualPrice > rsv.FreezeAmount {
			return errs.Invariant("成交价超过冻结金额")
		}

		item, err := s.itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, rsv.UserID)
		if err != nil {
			return err
		}

		batchNo := idgen.GenerateBatchNo()
		refund := rsv.FreezeAmount - actualPrice
		if refund > 0 {
			_, err = s.ledger.ApplyDelta(ctx, tx, account, batchNo, LedgerOp{
				Pool:    model.PoolSpendable,
				Delta:   refund,
				BizType: model.BizTypeReserveMatch,
				BizRef:  rsv.ReserveNo,
				Memo:    "中签差额退款",
				Payload: &model.ReservePayload{ReserveNo: rsv.ReserveNo, ZoneID: rsv.ZoneID},
			})
			if err != nil {
				return err
			}
		}

		holding := &model.Holding{
			UserID:     rsv.UserID,
			ItemID:     item.ID,
			ZoneID:     rsv.ZoneID,
			PackageID:  rsv.PackageID,
			CostPrice:  actualPrice,
			Status:     model.HoldingStatusHeld,
			Origin:     model.AssetOriginNormal,
			AcquiredAt: time.Now(),
		}
		if err := s.holdingRepo.Create(ctx, tx, holding); err != nil {
			return err
		}

		now := time.Now()
		if err := s.reserveRepo.UpdateStatus(ctx, tx, rsv.ID,
			model.ReserveStatusPending, model.ReserveStatusMatched,
			map[string]interface{}{
				"holding_id": holding.ID,
				"order_ref":  orderRef,
				"matched_at": &now,
			}); err != nil {
			return err
		}

		rsv.Status = model.ReserveStatusMatched
		rsv.HoldingID = holding.ID
		rsv.OrderRef = orderRef

		return s.enqueueResult(ctx, tx, rsv, "matched")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("预约中签: reserveNo=%s, userID=%d, price=%d", rsv.ReserveNo, rsv.UserID, actualPrice)
	return rsv, nil
}

// Refund 未中签退款（外部撮合流程回调）
func (s *ReserveService) Refund(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	return s.release(ctx, reservationID, model.ReserveStatusRefunded,
		model.BizTypeReserveRefund, "未中签退款")
}

// Cancel 用户主动取消
func (s *ReserveService) Cancel(ctx context.Context, reservationID, userID int64) (*model.Reservation, error) {
	rsv, err := s.reserveRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if rsv.UserID != userID {
		return nil, errs.InvalidState("非本人预约")
	}
	return s.release(ctx, reservationID, model.ReserveStatusCancelled,
		model.BizTypeReserveCancel, "预约取消退款")
}

// release 解冻：整额退回余额与算力，状态单向流转保证只退一次
func (s *ReserveService) release(ctx context.Context, reservationID int64, toStatus int, bizType, memo string) (*model.Reservation, error) {
	var rsv *model.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rsv, err = s.reserveRepo.GetByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if rsv.Status != model.ReserveStatusPending {
			return errs.InvalidState("预约单已处理，请勿重复操作")
		}

		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, rsv.UserID)
		if err != nil {
			return err
		}

		batchNo := idgen.GenerateBatchNo()
		payload := &model.ReservePayload{
			ReserveNo:    rsv.ReserveNo,
			ZoneID:       rsv.ZoneID,
			CreditsUsed:  rsv.CreditsUsed,
			FreezeAmount: rsv.FreezeAmount,
		}
		_, err = s.ledger.ApplyBatch(ctx, tx, account, batchNo, []LedgerOp{
			{
				Pool:    model.PoolSpendable,
				Delta:   rsv.FreezeAmount,
				BizType: bizType,
				BizRef:  rsv.ReserveNo,
				Memo:    memo,
				Payload: payload,
			},
			{
				Pool:    model.PoolComputeCredits,
				Delta:   rsv.CreditsUsed,
				BizType: bizType,
				BizRef:  rsv.ReserveNo,
				Memo:    memo + "-算力返还",
				Payload: payload,
			},
		})
		if err != nil {
			return err
		}

		if err := s.reserveRepo.UpdateStatus(ctx, tx, rsv.ID,
			model.ReserveStatusPending, toStatus, nil); err != nil {
			return err
		}
		rsv.Status = toStatus

		return s.enqueueResult(ctx, tx, rsv, "released")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("预约解冻: reserveNo=%s, userID=%d, status=%d", rsv.ReserveNo, rsv.UserID, toStatus)
	return rsv, nil
}

// Get 预约状态查询
func (s *ReserveService) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	return s.reserveRepo.GetByID(ctx, id)
}

func (s *ReserveService) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.Reservation, int64, error) {
	return s.reserveRepo.ListByUserID(ctx, userID, page, pageSize)
}

func (s *ReserveService) enqueueResult(ctx context.Context, tx *gorm.DB, rsv *model.Reservation, event string) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":      event,
		"reserve_no": rsv.ReserveNo,
		"user_id":    rsv.UserID,
		"zone_id":    rsv.ZoneID,
		"status":     rsv.Status,
		"holding_id": rsv.HoldingID,
		"at":         time.Now().Format(time.RFC3339),
	})
	return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: rsv.ReserveNo,
		Topic:      s.cfg.Get().Kafka.Topic.ReserveResult,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}
