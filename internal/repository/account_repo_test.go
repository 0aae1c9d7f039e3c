package repository

import (
	"context"
	"testing"

	"collectmarket/internal/errs"
	"collectmarket/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gdb, mock
}

func TestAccountRepositoryGetByUserID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(gdb)
	ctx := context.Background()

	t.Run("存在", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `account` WHERE user_id = \\?").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "user_id", "spendable", "withdrawable", "activated"}).
				AddRow(1, 100, 50000, 20000, true))

		account, err := repo.GetByUserID(ctx, 100)
		assert.NoError(t, err)
		assert.Equal(t, int64(100), account.UserID)
		assert.Equal(t, int64(50000), account.Spendable)
		assert.Equal(t, int64(20000), account.Withdrawable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("不存在", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `account` WHERE user_id = \\?").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByUserID(ctx, 999)
		assert.True(t, errs.IsKind(err, errs.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepositorySetPool(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(gdb)
	ctx := context.Background()

	t.Run("正常写入", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `account` SET `spendable`=\\?").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SetPool(ctx, gdb, 100, model.PoolSpendable, 30000)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("账户不存在", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `account` SET `spendable`=\\?").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.SetPool(ctx, gdb, 999, model.PoolSpendable, 30000)
		assert.True(t, errs.IsKind(err, errs.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("非法资金池不落库", func(t *testing.T) {
		err := repo.SetPool(ctx, gdb, 100, "balance", 30000)
		assert.True(t, errs.IsKind(err, errs.KindInvariant))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepositoryMarkActivated(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewAccountRepository(gdb)
	ctx := context.Background()

	t.Run("首次激活", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `account` SET `activated`=.* WHERE user_id = \\? AND activated = \\?").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := repo.MarkActivated(ctx, gdb, 100)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("重复激活0行", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `account` SET `activated`=.* WHERE user_id = \\? AND activated = \\?").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := repo.MarkActivated(ctx, gdb, 100)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
