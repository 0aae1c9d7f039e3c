package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
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
// 寄售服务
// ============================================================================
//
// 挂单与购买结算是整个系统分支最多的两笔事务。
//
// 【挂单】免费判定按严格就近原则：只有该持仓最近一条寄售记录流拍且
// 未消耗过免费重挂权才豁免；其次消耗持仓自带免费次数；都没有则走
// 收费路径 —— 按实时挂单价收服务费（代理打折）并核销一张寄售券。
// 所有校验、扣费、核销、落单在一个事务内。
//
// 【购买结算】锁序固定：寄售单 → 买家 → 卖家，与佣金分发对上线账户的
// 加锁不会形成环。买家先扣可用余额、不足用可提现补；卖家按差额利润
// 模型分账；利润为正时佣金分发挂在同一事务同一批次，佣金失败回滚整笔。

type ConsignService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Manager
	accountRepo *repository.AccountRepository
	holdingRepo *repository.HoldingRepository
	itemRepo    *repository.ItemRepository
	consignRepo *repository.ConsignmentRepository
	couponRepo  *repository.CouponRepository
	orderRepo   *repository.TradeOrderRepository
	outboxRepo  *repository.OutboxRepository
	zoneSvc     *ZoneService
	commSvc     *CommissionService
	ledger      *LedgerService
}

func NewConsignService(db *gorm.DB, redisClient *redis.Client, cfg *config.Manager) *ConsignService {
	return &ConsignService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		accountRepo: repository.NewAccountRepository(db),
		holdingRepo: repository.NewHoldingRepository(db),
		itemRepo:    repository.NewItemRepository(db),
		consignRepo: repository.NewConsignmentRepository(db),
		couponRepo:  repository.NewCouponRepository(db),
		orderRepo:   repository.NewTradeOrderRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
		zoneSvc:     NewZoneService(db, cfg),
		commSvc:     NewCommissionService(db, cfg),
		ledger:      NewLedgerService(db),
	}
}

type ConsignRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	UserID    int64  `json:"user_id" binding:"required"`
	HoldingID int64  `json:"holding_id" binding:"required"`
	SessionID int64  `json:"session_id" binding:"required"`
}

// Consign 挂单寄售
func (s *ConsignService) Consign(ctx context.Context, req *ConsignRequest) (*model.Consignment, error) {
	// 幂等校验
	existing, err := s.consignRepo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	biz := s.cfg.Business()

	// 免费路径同样受交易时段约束
	if !tradeWindowOpen(biz, time.Now()) {
		return nil, errs.InvalidState(
			fmt.Sprintf("当前不在交易时段（%d:00-%d:00）", biz.TradeOpenHour, biz.TradeCloseHour))
	}

	consignLock := lock.NewConsignLock(s.redisClient, req.HoldingID, req.RequestID)
	if err := consignLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, errs.Wrap(errs.KindContention, "系统繁忙，请稍后重试", err)
	}
	defer consignLock.Unlock(ctx)

	// 获取锁后再次检查幂等
	existing, err = s.consignRepo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var out *model.Consignment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		holding, err := s.holdingRepo.GetByIDForUpdate(ctx, tx, req.HoldingID)
		if err != nil {
			return err
		}
		if holding.UserID != req.UserID {
			return errs.InvalidState("非本人持仓")
		}
		switch holding.Status {
		case model.HoldingStatusDelivered:
			return errs.InvalidState("持仓已提货出库，不可寄售")
		case model.HoldingStatusSold:
			return errs.InvalidState("持仓已售出")
		case model.HoldingStatusEarning:
			return errs.InvalidState("持仓收益中，不可寄售")
		}
		if holding.ConsignStatus == model.HoldingConsignListed {
			return errs.InvalidState("该持仓已在寄售中")
		}

		if biz.HoldingHours > 0 {
			unlockAt := holding.AcquiredAt.Add(time.Duration(biz.HoldingHours) * time.Hour)
			if time.Now().Before(unlockAt) {
				return errs.InvalidState(
					fmt.Sprintf("持仓未满%d小时，%s后可寄售",
						biz.HoldingHours, unlockAt.Format("01-02 15:04")))
			}
		}

		item, err := s.itemRepo.GetByID(ctx, holding.ItemID)
		if err != nil {
			return err
		}

		// 挂单价取实时市场价，市场价无效时才回退到取得成本
		listPrice := item.MarketPrice
		if listPrice <= 0 {
			listPrice = holding.CostPrice
		}

		zone, err := s.zoneSvc.Classify(ctx, listPrice)
		if err != nil {
			return err
		}

		consignNo := idgen.GenerateConsignNo()

		// 免费判定：严格就近，只看最近一条寄售记录
		waiveSource := model.WaiveSourceNone
		latest, err := s.consignRepo.GetLatestByHoldingID(ctx, tx, holding.ID)
		if err != nil {
			return err
		}
		if latest != nil && latest.Status == model.ConsignStatusExpired && !latest.FreeRelistUsed {
			consumed, err := s.consignRepo.ConsumeFreeRelist(ctx, tx, latest.ID)
			if err != nil {
				return err
			}
			if consumed {
				waiveSource = model.WaiveSourceRelist
			}
		}
		if waiveSource == model.WaiveSourceNone {
			consumed, err := s.holdingRepo.ConsumeFreeAttempt(ctx, tx, holding.ID)
			if err != nil {
				return err
			}
			if consumed {
				waiveSource = model.WaiveSourceAttempt
			}
		}

		var serviceFee int64
		var couponID int64
		var batchNo string
		if waiveSource == model.WaiveSourceNone {
			serviceFee, couponID, batchNo, err = s.chargeListingFee(
				ctx, tx, req, zone.ID, listPrice, consignNo, item.Name, biz)
			if err != nil {
				return err
			}
		}

		pkg, err := s.zoneSvc.ResolvePackage(ctx, tx, req.SessionID, zone, item.PackageID)
		if err != nil {
			return err
		}

		out = &model.Consignment{
			ConsignNo:     consignNo,
			RequestID:     req.RequestID,
			SellerID:      req.UserID,
			HoldingID:     holding.ID,
			ItemID:        item.ID,
			SessionID:     req.SessionID,
			ZoneID:        zone.ID,
			PackageID:     pkg.ID,
			ListPrice:     listPrice,
			OriginalPrice: holding.CostPrice,
			ServiceFeeAmt: serviceFee,
			CouponID:      couponID,
			WaiveSource:   waiveSource,
			Status:        model.ConsignStatusListed,
			BatchNo:       batchNo,
			ExpireAt:      time.Now().Add(time.Duration(biz.ListingHours) * time.Hour),
		}
		if err := s.consignRepo.Create(ctx, tx, out); err != nil {
			return err
		}
		if err := s.holdingRepo.MarkListed(ctx, tx, holding.ID); err != nil {
			return err
		}
		return s.zoneSvc.BumpPackageCount(ctx, tx, pkg.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("挂单成功: consignNo=%s, sellerID=%d, price=%d, waive=%d",
		out.ConsignNo, req.UserID, out.ListPrice, out.WaiveSource)
	return out, nil
}

// chargeListingFee 收费挂单路径：锁账户扣服务费并核销一张寄售券
// 费率热更后可为0，此时不产生流水，只核销券
func (s *ConsignService) chargeListingFee(ctx context.Context, tx *gorm.DB, req *ConsignRequest,
	zoneID, listPrice int64, consignNo, itemName string, biz config.BusinessConfig) (serviceFee, couponID int64, batchNo string, err error) {
	account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return 0, 0, "", err
	}

	feeRate := biz.FeeRate
	if account.AgentTier > 0 && biz.AgentFeeDiscount > 0 {
		feeRate *= biz.AgentFeeDiscount
	}
	serviceFee = mulRate(listPrice, feeRate)

	if account.ServiceFee < serviceFee {
		return 0, 0, "", errs.InsufficientFunds(
			fmt.Sprintf("手续费余额不足，当前%d，需要%d", account.ServiceFee, serviceFee))
	}

	coupon, err := s.couponRepo.FindAvailableForUpdate(ctx, tx, req.UserID, req.SessionID, zoneID)
	if err != nil {
		return 0, 0, "", err
	}
	if coupon == nil {
		return 0, 0, "", errs.InvalidState("没有本场次该专区可用的寄售券")
	}

	if serviceFee > 0 {
		batchNo = idgen.GenerateBatchNo()
		_, err = s.ledger.ApplyDelta(ctx, tx, account, batchNo, LedgerOp{
			Pool:    model.PoolServiceFee,
			Delta:   -serviceFee,
			BizType: model.BizTypeConsignFee,
			BizRef:  consignNo,
			Memo:    fmt.Sprintf("寄售服务费-%s", itemName),
			Payload: &model.TradePayload{ConsignNo: consignNo, ListPrice: listPrice},
		})
		if err != nil {
			return 0, 0, "", err
		}
	}

	used, err := s.couponRepo.MarkUsed(ctx, tx, coupon.ID, consignNo)
	if err != nil {
		return 0, 0, "", err
	}
	if !used {
		return 0, 0, "", errs.InvalidState("寄售券已被使用")
	}
	return serviceFee, coupon.ID, batchNo, nil
}

type PurchaseRequest struct {
	RequestID     string `json:"request_id" binding:"required"`
	BuyerID       int64  `json:"buyer_id" binding:"required"`
	ConsignmentID int64  `json:"consignment_id" binding:"required"`
}

type PurchaseResult struct {
	TradeNo   string `json:"trade_no"`
	ConsignNo string `json:"consign_no"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// Purchase 购买寄售藏品并结算
func (s *ConsignService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResult, error) {
	// 幂等校验
	existingOrder, err := s.orderRepo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existingOrder != nil {
		return &PurchaseResult{
			TradeNo:   existingOrder.TradeNo,
			ConsignNo: existingOrder.ConsignNo,
			Amount:    existingOrder.Amount,
			Status:    existingOrder.Status,
			Message:   "订单已存在",
		}, nil
	}

	biz := s.cfg.Business()

	tradeLock := lock.NewTradeLock(s.redisClient, req.BuyerID, req.RequestID)
	if err := tradeLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, errs.Wrap(errs.KindContention, "系统繁忙，请稍后重试", err)
	}
	defer tradeLock.Unlock(ctx)

	// 获取锁后再次检查幂等
	existingOrder, err = s.orderRepo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existingOrder != nil {
		return &PurchaseResult{
			TradeNo:   existingOrder.TradeNo,
			ConsignNo: existingOrder.ConsignNo,
			Amount:    existingOrder.Amount,
			Status:    existingOrder.Status,
			Message:   "订单已存在",
		}, nil
	}

	var result *PurchaseResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 固定锁序：寄售单 → 买家 → 卖家
		csg, err := s.consignRepo.GetByIDForUpdate(ctx, tx, req.ConsignmentID)
		if err != nil {
			return err
		}
		if csg.Status != model.ConsignStatusListed {
			return errs.InvalidState("该寄售单已下架")
		}
		if csg.SellerID == req.BuyerID {
			return errs.InvalidInput("不能购买自己的寄售")
		}

		buyer, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, req.BuyerID)
		if err != nil {
			return err
		}
		seller, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, csg.SellerID)
		if err != nil {
			return err
		}

		amount := csg.ListPrice
		spendPay, withdrawPay, ok := splitPayment(buyer.Spendable, buyer.Withdrawable, amount)
		if !ok {
			return errs.InsufficientFunds(
				fmt.Sprintf("余额不足，需要%d，可用+可提现共%d",
					amount, buyer.Spendable+buyer.Withdrawable))
		}

		holding, err := s.holdingRepo.GetByIDForUpdate(ctx, tx, csg.HoldingID)
		if err != nil {
			return err
		}

		tradeNo := idgen.GenerateTradeNo()
		batchNo := idgen.GenerateBatchNo()

		order := &model.TradeOrder{
			TradeNo:      tradeNo,
			RequestID:    req.RequestID,
			BuyerID:      req.BuyerID,
			SellerID:     csg.SellerID,
			ConsignNo:    csg.ConsignNo,
			Amount:       amount,
			SpendablePay: spendPay,
			WithdrawPay:  withdrawPay,
			Status:       model.TradeStatusCreated,
			BatchNo:      batchNo,
		}
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}

		tradePayload := &model.TradePayload{
			ConsignNo:     csg.ConsignNo,
			TradeNo:       tradeNo,
			ListPrice:     csg.ListPrice,
			OriginalPrice: csg.OriginalPrice,
		}

		// 买家混合扣款：先可用余额，不足部分用可提现补
		var buyerOps []LedgerOp
		if spendPay > 0 {
			buyerOps = append(buyerOps, LedgerOp{
				Pool:    model.PoolSpendable,
				Delta:   -spendPay,
				BizType: model.BizTypeTradePay,
				BizRef:  tradeNo,
				Memo:    "购买寄售藏品",
				Payload: tradePayload,
			})
		}
		if withdrawPay > 0 {
			buyerOps = append(buyerOps, LedgerOp{
				Pool:    model.PoolWithdrawable,
				Delta:   -withdrawPay,
				BizType: model.BizTypeTradePay,
				BizRef:  tradeNo,
				Memo:    "购买寄售藏品-可提现补足",
				Payload: tradePayload,
			})
		}
		if _, err := s.ledger.ApplyBatch(ctx, tx, buyer, batchNo, buyerOps); err != nil {
			return err
		}

		// 差额利润分账
		legacy := holding.Origin == model.AssetOriginLegacy
		st := computeSettlement(csg.ListPrice, csg.OriginalPrice, legacy, biz.FeeRate, biz.SplitRatio)

		sellerOps := []LedgerOp{{
			Pool:    model.PoolWithdrawable,
			Delta:   st.SellerPayout,
			BizType: model.BizTypeTradeIncome,
			BizRef:  tradeNo,
			Memo:    "寄售回款（本金+服务费返还+利润分成）",
			Payload: tradePayload,
		}}
		if st.LoyaltyShare > 0 {
			sellerOps = append(sellerOps, LedgerOp{
				Pool:    model.PoolLoyaltyPoints,
				Delta:   st.LoyaltyShare,
				BizType: model.BizTypeTradePoints,
				BizRef:  tradeNo,
				Memo:    "寄售利润积分",
				Payload: tradePayload,
			})
		}
		if _, err := s.ledger.ApplyBatch(ctx, tx, seller, batchNo, sellerOps); err != nil {
			return err
		}

		// 状态流转与交割
		now := time.Now()
		if err := s.consignRepo.UpdateStatus(ctx, tx, csg.ID,
			model.ConsignStatusListed, model.ConsignStatusSold,
			map[string]interface{}{"sold_at": &now}); err != nil {
			return err
		}
		if err := s.holdingRepo.MarkSold(ctx, tx, holding.ID); err != nil {
			return err
		}
		newHolding := &model.Holding{
			UserID:     req.BuyerID,
			ItemID:     csg.ItemID,
			ZoneID:     csg.ZoneID,
			PackageID:  csg.PackageID,
			CostPrice:  amount,
			Status:     model.HoldingStatusHeld,
			Origin:     model.AssetOriginNormal,
			AcquiredAt: now,
		}
		if err := s.holdingRepo.Create(ctx, tx, newHolding); err != nil {
			return err
		}

		// 下一轮市场价：随机上浮 4%-6%，反推毛价抵消转售费率
		markup := biz.MarkupMin + rand.Float64()*(biz.MarkupMax-biz.MarkupMin)
		if err := s.itemRepo.UpdateMarketPrice(ctx, tx, csg.ItemID,
			nextMarketPrice(amount, markup, biz.FeeRate)); err != nil {
			return err
		}

		// 利润为正时佣金分发，同事务同批次
		if st.Profit > 0 {
			if err := s.commSvc.Distribute(ctx, tx, batchNo, csg.ConsignNo, csg.SellerID, st.Profit); err != nil {
				return err
			}
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, tradeNo,
			model.TradeStatusCreated, model.TradeStatusPaid); err != nil {
			return err
		}

		msgPayload, _ := json.Marshal(map[string]interface{}{
			"trade_no":       tradeNo,
			"consign_no":     csg.ConsignNo,
			"buyer_id":       req.BuyerID,
			"seller_id":      csg.SellerID,
			"amount":         amount,
			"profit":         st.Profit,
			"fee_refund":     st.FeeRefund,
			"withdraw_share": st.WithdrawShare,
			"loyalty_share":  st.LoyaltyShare,
			"paid_at":        now.Format(time.RFC3339),
		})
		if err := s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
			MessageKey: tradeNo,
			Topic:      s.cfg.Get().Kafka.Topic.TradeSettled,
			Payload:    string(msgPayload),
			Status:     model.OutboxStatusPending,
		}); err != nil {
			return err
		}

		result = &PurchaseResult{
			TradeNo:   tradeNo,
			ConsignNo: csg.ConsignNo,
			Amount:    amount,
			Status:    model.TradeStatusPaid,
			Message:   "购买成功",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("成交结算: tradeNo=%s, buyerID=%d, amount=%d", result.TradeNo, req.BuyerID, result.Amount)
	return result, nil
}

// Cancel 卖家撤回寄售
// 服务费与寄售券不退；重新上架需新建寄售单
func (s *ConsignService) Cancel(ctx context.Context, consignmentID, userID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		csg, err := s.consignRepo.GetByIDForUpdate(ctx, tx, consignmentID)
		if err != nil {
			return err
		}
		if csg.SellerID != userID {
			return errs.InvalidState("非本人寄售")
		}
		if csg.Status != model.ConsignStatusListed {
			return errs.InvalidState("寄售单不在架上")
		}
		if err := s.consignRepo.UpdateStatus(ctx, tx, csg.ID,
			model.ConsignStatusListed, model.ConsignStatusCancelled, nil); err != nil {
			return err
		}
		return s.holdingRepo.ResetConsign(ctx, tx, csg.HoldingID)
	})
}

// Expire 流拍下架（后台任务触发），解除持仓挂单标记
// 流拍记录保留 free_relist_used=false，授予下一次免费重挂权
func (s *ConsignService) Expire(ctx context.Context, consignmentID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		csg, err := s.consignRepo.GetByIDForUpdate(ctx, tx, consignmentID)
		if err != nil {
			return err
		}
		if csg.Status != model.ConsignStatusListed {
			return errs.InvalidState("寄售单不在架上")
		}
		if time.Now().Before(csg.ExpireAt) {
			return errs.InvalidState("寄售单未到期")
		}
		if err := s.consignRepo.UpdateStatus(ctx, tx, csg.ID,
			model.ConsignStatusListed, model.ConsignStatusExpired, nil); err != nil {
			return err
		}
		return s.holdingRepo.ResetConsign(ctx, tx, csg.HoldingID)
	})
}

// ListExpired 供后台任务捞取到期在架单
func (s *ConsignService) ListExpired(ctx context.Context, limit int) ([]*model.Consignment, error) {
	return s.consignRepo.ListExpired(ctx, limit)
}

// Get 寄售状态查询
func (s *ConsignService) Get(ctx context.Context, id int64) (*model.Consignment, error) {
	return s.consignRepo.GetByID(ctx, id)
}

func (s *ConsignService) ListBySeller(ctx context.Context, sellerID int64, page, pageSize int) ([]*model.Consignment, int64, error) {
	return s.consignRepo.ListBySellerID(ctx, sellerID, page, pageSize)
}
