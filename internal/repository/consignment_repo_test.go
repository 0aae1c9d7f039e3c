package repository

import (
	"context"
	"testing"
	"time"

	"collectmarket/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestConsignmentRepositoryGetLatestByHoldingID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewConsignmentRepository(gdb)
	ctx := context.Background()

	t.Run("按id倒序只取最近一条", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `consignment` WHERE holding_id = \\? ORDER BY id DESC").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "consign_no", "holding_id", "status", "free_relist_used", "expire_at"}).
				AddRow(42, "CSG42", 9, model.ConsignStatusExpired, false, time.Now().Add(-time.Hour)))

		latest, err := repo.GetLatestByHoldingID(ctx, gdb, 9)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), latest.ID)
		assert.Equal(t, model.ConsignStatusExpired, latest.Status)
		assert.False(t, latest.FreeRelistUsed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("无寄售记录返回nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `consignment` WHERE holding_id = \\? ORDER BY id DESC").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		latest, err := repo.GetLatestByHoldingID(ctx, gdb, 9)
		assert.NoError(t, err)
		assert.Nil(t, latest)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// 免费重挂权的消耗条件：必须流拍状态且未消耗过，两个条件都进 WHERE，
// 不满足时0行返回 false，调用方落入下一条免费路径
func TestConsignmentRepositoryConsumeFreeRelist(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewConsignmentRepository(gdb)
	ctx := context.Background()

	t.Run("流拍且未消耗", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `consignment` SET `free_relist_used`=.* WHERE id = \\? AND status = \\? AND free_relist_used = \\?").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 42, model.ConsignStatusExpired, false).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		consumed, err := repo.ConsumeFreeRelist(ctx, gdb, 42)
		assert.NoError(t, err)
		assert.True(t, consumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("已消耗过0行", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `consignment` SET `free_relist_used`=.* WHERE id = \\? AND status = \\? AND free_relist_used = \\?").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		consumed, err := repo.ConsumeFreeRelist(ctx, gdb, 42)
		assert.NoError(t, err)
		assert.False(t, consumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
