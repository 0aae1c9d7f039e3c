package repository

import (
	"context"
	"errors"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("账户不存在")
		}
		return nil, err
	}
	return &account, nil
}

// GetByUserIDForUpdate 加行锁读取账户
// 所有资金池变动必须先拿到行锁再读余额做校验，持有到事务提交，
// 防止两笔并发预约抽干同一余额的丢失更新
func (r *AccountRepository) GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("账户不存在")
		}
		return nil, err
	}
	return &account, nil
}

// SetPool 把资金池列写成绝对值
// 仅允许在持有该账户行锁的事务内调用，绝对值写入保证列与流水投影一致
func (r *AccountRepository) SetPool(ctx context.Context, tx *gorm.DB, userID int64, pool string, after int64) error {
	if !model.ValidPool(pool) {
		return errs.Invariant("未知资金池: " + pool)
	}
	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ?", userID).
		Update(pool, after)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("账户不存在")
	}
	return nil
}

// MarkActivated 待激活余额解锁一次性标记，已标记过返回0行
func (r *AccountRepository) MarkActivated(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ? AND activated = ?", userID, false).
		Update("activated", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *AccountRepository) GetOrCreate(ctx context.Context, userID int64) (*model.Account, error) {
	account, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}

	if !errs.IsKind(err, errs.KindNotFound) {
		return nil, err
	}

	newAccount := &model.Account{
		UserID: userID,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(newAccount).Error

	if err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}
