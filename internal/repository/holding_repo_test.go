package repository

import (
	"context"
	"testing"

	"collectmarket/internal/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// 同一持仓同时只能有一张在架寄售单：挂单标记是条件更新，
// 第二个并发请求命中0行，返回状态错误
func TestHoldingRepositoryMarkListed(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewHoldingRepository(gdb)
	ctx := context.Background()

	t.Run("首次挂单", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `holding` SET `consign_status`=.* WHERE id = \\? AND status = \\? AND consign_status = \\?").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.MarkListed(ctx, gdb, 9)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("并发重复挂单0行", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `holding` SET `consign_status`=.* WHERE id = \\? AND status = \\? AND consign_status = \\?").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.MarkListed(ctx, gdb, 9)
		assert.True(t, errs.IsKind(err, errs.KindInvalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHoldingRepositoryConsumeFreeAttempt(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewHoldingRepository(gdb)
	ctx := context.Background()

	t.Run("有余量扣减", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `holding` SET `free_attempts`=free_attempts - 1 WHERE id = \\? AND free_attempts > 0").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		consumed, err := repo.ConsumeFreeAttempt(ctx, gdb, 9)
		assert.NoError(t, err)
		assert.True(t, consumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("次数用尽0行", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `holding` SET `free_attempts`=free_attempts - 1 WHERE id = \\? AND free_attempts > 0").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		consumed, err := repo.ConsumeFreeAttempt(ctx, gdb, 9)
		assert.NoError(t, err)
		assert.False(t, consumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
