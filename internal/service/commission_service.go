package service

import (
	"context"
	"log"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"
	"collectmarket/internal/model"
	"collectmarket/internal/repository"

	"gorm.io/gorm"
)

// ============================================================================
// 佣金分发
// ============================================================================
//
// 从卖家沿邀请链向上回溯，固定最大层数 + 已访问集合防环。
// 三类佣金：
//   直推/间推：紧邻的一级、二级上线各拿固定比例，与代理等级无关
//   级差：回溯中每遇到比已结算等级更高的代理，发放名义比例的差额部分
//   平级：相邻两个代理等级相同时，后者只拿固定平级比例，防止扁平
//         团队按每跳全额累进比例重复取酬
//
// 佣金全部是入账，不存在余额不足；缺上线/缺某级代理只是跳过，不算错误。
// 所有写入都挂在原始成交事务与批次下，佣金失败会回滚整笔交易。

type CommissionService struct {
	db          *gorm.DB
	cfg         *config.Manager
	accountRepo *repository.AccountRepository
	commRepo    *repository.CommissionRepository
	ledger      *LedgerService
}

func NewCommissionService(db *gorm.DB, cfg *config.Manager) *CommissionService {
	return &CommissionService{
		db:          db,
		cfg:         cfg,
		accountRepo: repository.NewAccountRepository(db),
		commRepo:    repository.NewCommissionRepository(db),
		ledger:      NewLedgerService(db),
	}
}

// uplineAgent 回溯链上的一个节点
type uplineAgent struct {
	UserID int64
	Tier   int
}

// tierPayout 级差/平级发放计划
type tierPayout struct {
	UserID    int64
	Tier      int
	Rate      float64
	SameLevel bool
}

// planTierPayouts 按回溯顺序计算级差发放计划（纯函数，便于单测）
// tierRate 为 1-5 级的名义累进比例；实际发放为与上一个已结算等级的差额，
// 相邻平级改发固定 sameLevelRate，且同一级只发一次平级
func planTierPayouts(chain []uplineAgent, tierRate func(int) float64, sameLevelRate float64) []tierPayout {
	var payouts []tierPayout
	lastTier := 0
	lastRate := 0.0
	sameLevelPaid := false

	for _, a := range chain {
		if a.Tier <= 0 {
			continue
		}
		if a.Tier > lastTier {
			rate := tierRate(a.Tier) - lastRate
			if rate > 0 {
				payouts = append(payouts, tierPayout{
					UserID: a.UserID,
					Tier:   a.Tier,
					Rate:   rate,
				})
			}
			lastTier = a.Tier
			lastRate = tierRate(a.Tier)
			sameLevelPaid = false
			continue
		}
		if a.Tier == lastTier && !sameLevelPaid {
			payouts = append(payouts, tierPayout{
				UserID:    a.UserID,
				Tier:      a.Tier,
				Rate:      sameLevelRate,
				SameLevel: true,
			})
			sameLevelPaid = true
		}
		// 低于已结算等级的代理不参与级差
	}
	return payouts
}

// walkUpline 沿邀请链向上收集账户，最多 maxDepth 层，防环
func (s *CommissionService) walkUpline(ctx context.Context, sellerID int64, maxDepth int) ([]*model.Account, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	var chain []*model.Account
	visited := map[int64]bool{sellerID: true}
	current := sellerID

	for i := 0; i < maxDepth; i++ {
		account, err := s.accountRepo.GetByUserID(ctx, current)
		if err != nil {
			if errs.IsKind(err, errs.KindNotFound) {
				break
			}
			return nil, err
		}
		inviter := account.InviterID
		if inviter <= 0 || visited[inviter] {
			break
		}
		visited[inviter] = true

		up, err := s.accountRepo.GetByUserID(ctx, inviter)
		if err != nil {
			if errs.IsKind(err, errs.KindNotFound) {
				break
			}
			return nil, err
		}
		chain = append(chain, up)
		current = inviter
	}
	return chain, nil
}

// Distribute 在成交事务内分发佣金
// batchNo/saleRef 为原始成交的批次与寄售单号，所有佣金流水挂在同一批次下
func (s *CommissionService) Distribute(ctx context.Context, tx *gorm.DB, batchNo, saleRef string, sellerID int64, profit int64) error {
	if profit <= 0 {
		return nil
	}

	biz := s.cfg.Business()

	chain, err := s.walkUpline(ctx, sellerID, biz.MaxUplineDepth)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return nil
	}

	// 直推/间推：固定比例，与等级回溯无关
	if err := s.pay(ctx, tx, batchNo, saleRef, sellerID, chain[0].UserID,
		model.CommKindDirect, chain[0].AgentTier, biz.DirectRate, false,
		mulRate(profit, biz.DirectRate)); err != nil {
		return err
	}
	if len(chain) > 1 {
		if err := s.pay(ctx, tx, batchNo, saleRef, sellerID, chain[1].UserID,
			model.CommKindIndirect, chain[1].AgentTier, biz.IndirectRate, false,
			mulRate(profit, biz.IndirectRate)); err != nil {
			return err
		}
	}

	// 级差 + 平级
	agents := make([]uplineAgent, 0, len(chain))
	for _, a := range chain {
		agents = append(agents, uplineAgent{UserID: a.UserID, Tier: a.AgentTier})
	}
	for _, p := range planTierPayouts(agents, biz.TierRate, biz.SameLevelRate) {
		kind := model.CommKindTier
		if p.SameLevel {
			kind = model.CommKindSameLevel
		}
		if err := s.pay(ctx, tx, batchNo, saleRef, sellerID, p.UserID,
			kind, p.Tier, p.Rate, p.SameLevel, mulRate(profit, p.Rate)); err != nil {
			return err
		}
	}
	return nil
}

func (s *CommissionService) pay(ctx context.Context, tx *gorm.DB, batchNo, saleRef string, sellerID, beneficiaryID int64, kind string, tier int, rate float64, sameLevel bool, amount int64) error {
	if amount <= 0 {
		return nil
	}

	account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, beneficiaryID)
	if err != nil {
		// 上线账户缺失只跳过该笔，不阻断成交
		if errs.IsKind(err, errs.KindNotFound) {
			return nil
		}
		return err
	}

	memo := map[string]string{
		model.CommKindDirect:    "直推佣金",
		model.CommKindIndirect:  "间推佣金",
		model.CommKindTier:      "级差佣金",
		model.CommKindSameLevel: "平级佣金",
	}[kind]

	bizType := map[string]string{
		model.CommKindDirect:    model.BizTypeCommDirect,
		model.CommKindIndirect:  model.BizTypeCommIndirect,
		model.CommKindTier:      model.BizTypeCommTier,
		model.CommKindSameLevel: model.BizTypeCommSameLevel,
	}[kind]

	_, err = s.ledger.ApplyDelta(ctx, tx, account, batchNo, LedgerOp{
		Pool:    model.PoolWithdrawable,
		Delta:   amount,
		BizType: bizType,
		BizRef:  saleRef,
		Memo:    memo,
		Payload: &model.CommissionPayload{
			SellerID:  sellerID,
			Tier:      tier,
			Rate:      rate,
			SameLevel: sameLevel,
		},
	})
	if err != nil {
		return err
	}

	if err := s.commRepo.Create(ctx, tx, &model.CommissionRecord{
		BatchNo:       batchNo,
		SaleRef:       saleRef,
		SellerID:      sellerID,
		BeneficiaryID: beneficiaryID,
		Kind:          kind,
		Tier:          tier,
		Rate:          rate,
		Amount:        amount,
		SameLevel:     sameLevel,
	}); err != nil {
		return err
	}

	log.Printf("佣金入账: batchNo=%s, beneficiary=%d, kind=%s, amount=%d", batchNo, beneficiaryID, kind, amount)
	return nil
}
