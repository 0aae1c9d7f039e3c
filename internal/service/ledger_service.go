package service

import (
	"context"
	"fmt"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"
	"collectmarket/internal/repository"
	"collectmarket/pkg/idgen"

	"gorm.io/gorm"
)

// ============================================================================
// 账本服务
// ============================================================================
//
// 所有资金池变动的唯一入口。调用约定：
// 1. 调用方先通过 GetByUserIDForUpdate 拿到账户行锁，锁持有到事务提交
// 2. 余额充足性必须在锁内复核 —— 锁外的预检只用于提前给出友好提示，
//    拿锁前后余额可能被并发操作改变，锁内复核不是可选项
// 3. 资金池缓存列与流水追加在同一事务内完成，要么都成功要么都回滚

// LedgerOp 单条资金池变动
type LedgerOp struct {
	Pool    string
	Delta   int64 // 正入负出
	BizType string
	BizRef  string
	Memo    string
	Payload interface{} // 按业务类型的附加信息变体，可为 nil
}

type LedgerService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{
		db:          db,
		accountRepo: repository.NewAccountRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
	}
}

// ApplyDelta 对已加锁账户应用一条资金池变动
// account 为锁内读出的最新账户，before 直接取其资金池当前值；
// 成功后回写 account 的内存值，batch 内多条变动的 before/after 可正确衔接
func (s *LedgerService) ApplyDelta(ctx context.Context, tx *gorm.DB, account *model.Account, batchNo string, op LedgerOp) (*model.LedgerEntry, error) {
	if !model.ValidPool(op.Pool) {
		return nil, errs.Invariant("未知资金池: " + op.Pool)
	}
	if op.Delta == 0 {
		return nil, errs.InvalidInput("变动金额不能为0")
	}

	before := account.PoolValue(op.Pool)
	if op.Delta < 0 && before+op.Delta < 0 {
		return nil, errs.InsufficientFunds(
			fmt.Sprintf("%s不足，当前%d，需要%d", poolLabel(op.Pool), before, -op.Delta))
	}
	after := before + op.Delta

	if err := s.accountRepo.SetPool(ctx, tx, account.UserID, op.Pool, after); err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		FlowNo:  idgen.GenerateFlowNo(),
		BatchNo: batchNo,
		UserID:  account.UserID,
		BizType: op.BizType,
		BizRef:  op.BizRef,
		Pool:    op.Pool,
		Delta:   op.Delta,
		Before:  before,
		After:   after,
		Memo:    op.Memo,
		Payload: model.MarshalPayload(op.Payload),
	}
	if err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	account.SetPoolValue(op.Pool, after)
	return entry, nil
}

// ApplyBatch 同一账户多池变动，整批共用批次号，任一条失败整体回滚
func (s *LedgerService) ApplyBatch(ctx context.Context, tx *gorm.DB, account *model.Account, batchNo string, ops []LedgerOp) ([]*model.LedgerEntry, error) {
	entries := make([]*model.LedgerEntry, 0, len(ops))
	for _, op := range ops {
		entry, err := s.ApplyDelta(ctx, tx, account, batchNo, op)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
