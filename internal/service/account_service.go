package service

import (
	"context"
	"fmt"
	"log"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"
	"collectmarket/internal/model"
	"collectmarket/internal/repository"
	"collectmarket/pkg/idgen"

	"gorm.io/gorm"
)

// 账户服务：余额查询、充值入账、待激活释放、流水查询

type AccountService struct {
	db          *gorm.DB
	cfg         *config.Manager
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	ledger      *LedgerService
}

func NewAccountService(db *gorm.DB, cfg *config.Manager) *AccountService {
	return &AccountService{
		db:          db,
		cfg:         cfg,
		accountRepo: repository.NewAccountRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		ledger:      NewLedgerService(db),
	}
}

func (s *AccountService) GetAccount(ctx context.Context, userID int64) (*model.Account, error) {
	return s.accountRepo.GetOrCreate(ctx, userID)
}

type RechargeRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
	ChannelRef string `json:"channel_ref" binding:"required"` // 支付渠道回调单号
}

// Recharge 充值入账，金额计入可用余额
func (s *AccountService) Recharge(ctx context.Context, req *RechargeRequest) (*model.LedgerEntry, error) {
	if req.Amount <= 0 {
		return nil, errs.InvalidInput("充值金额必须大于0")
	}
	if _, err := s.accountRepo.GetOrCreate(ctx, req.UserID); err != nil {
		return nil, err
	}

	var entry *model.LedgerEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		entry, err = s.ledger.ApplyDelta(ctx, tx, account, idgen.GenerateBatchNo(), LedgerOp{
			Pool:    model.PoolSpendable,
			Delta:   req.Amount,
			BizType: model.BizTypeRecharge,
			BizRef:  req.ChannelRef,
			Memo:    "账户充值",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("充值入账: userID=%d, amount=%d, flowNo=%s", req.UserID, req.Amount, entry.FlowNo)
	return entry, nil
}

// Activate 激活账户，待激活金额一次性释放到可用余额
// 重复激活返回状态错误
func (s *AccountService) Activate(ctx context.Context, userID int64) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if account.Activated {
			return errs.InvalidState("账户已激活，请勿重复操作")
		}

		pending := account.PendingActivation
		if pending > 0 {
			batchNo := idgen.GenerateBatchNo()
			ops := []LedgerOp{
				{
					Pool:    model.PoolPendingActivation,
					Delta:   -pending,
					BizType: model.BizTypeActivate,
					BizRef:  fmt.Sprintf("%d", userID),
					Memo:    "账户激活-待激活金额释放",
				},
				{
					Pool:    model.PoolSpendable,
					Delta:   pending,
					BizType: model.BizTypeActivate,
					BizRef:  fmt.Sprintf("%d", userID),
					Memo:    "账户激活-转入可用余额",
				},
			}
			if _, err := s.ledger.ApplyBatch(ctx, tx, account, batchNo, ops); err != nil {
				return err
			}
		}

		ok, err := s.accountRepo.MarkActivated(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return errs.InvalidState("账户已激活，请勿重复操作")
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("账户激活: userID=%d", userID)
	return nil
}

// ListFlows 流水查询，支持池、业务类型、批次、时间段过滤
func (s *AccountService) ListFlows(ctx context.Context, q repository.FlowQuery) ([]*model.LedgerEntry, int64, error) {
	if q.Pool != "" && !model.ValidPool(q.Pool) {
		return nil, 0, errs.InvalidInput("无效的资金池")
	}
	return s.ledgerRepo.List(ctx, q)
}

func (s *AccountService) GetFlow(ctx context.Context, flowNo string) (*model.LedgerEntry, error) {
	return s.ledgerRepo.GetByFlowNo(ctx, flowNo)
}
