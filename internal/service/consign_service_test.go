package service

import (
	"context"
	"testing"
	"time"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func testBiz(feeRate float64) config.BusinessConfig {
	return config.BusinessConfig{
		FeeRate:          feeRate,
		AgentFeeDiscount: 0.8,
		SplitRatio:       0.5,
	}
}

func newTestConsignService(t *testing.T) (*ConsignService, sqlmock.Sqlmock) {
	gdb, mock := newMockDB(t)
	cfg := config.NewStatic(&config.Config{Business: testBiz(0.03)})
	return NewConsignService(gdb, nil, cfg), mock
}

func accountRow(userID, serviceFee int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "service_fee", "agent_tier"}).
		AddRow(1, userID, serviceFee, 0)
}

func couponRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "session_id", "zone_id", "status", "expire_at"}).
		AddRow(id, 100, 5, 2, 0, time.Now().Add(24*time.Hour))
}

func TestChargeListingFee(t *testing.T) {
	ctx := context.Background()
	req := &ConsignRequest{RequestID: "req-1", UserID: 100, HoldingID: 9, SessionID: 5}

	t.Run("正常收费", func(t *testing.T) {
		svc, mock := newTestConsignService(t)

		mock.ExpectQuery("SELECT \\* FROM `account` WHERE user_id = \\?").
			WillReturnRows(accountRow(100, 5000))
		mock.ExpectQuery("SELECT \\* FROM `coupon` WHERE user_id = \\? AND session_id = \\? AND zone_id = \\?").
			WillReturnRows(couponRow(7))
		// 扣费：资金池列回写 + 流水追加
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `account` SET `service_fee`=\\?").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `ledger_entry`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `coupon` SET .* WHERE id = \\? AND status = \\?").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		fee, couponID, batchNo, err := svc.chargeListingFee(
			ctx, svc.db, req, 2, 100000, "CSG1", "测试藏品", testBiz(0.03))
		assert.NoError(t, err)
		assert.Equal(t, int64(3000), fee)
		assert.Equal(t, int64(7), couponID)
		assert.NotEmpty(t, batchNo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("费率为0只核销券不产生流水", func(t *testing.T) {
		svc, mock := newTestConsignService(t)

		mock.ExpectQuery("SELECT \\* FROM `account` WHERE user_id = \\?").
			WillReturnRows(accountRow(100, 0))
		mock.ExpectQuery("SELECT \\* FROM `coupon` WHERE user_id = \\? AND session_id = \\? AND zone_id = \\?").
			WillReturnRows(couponRow(7))
		// 没有 UPDATE `account` / INSERT `ledger_entry`
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `coupon` SET .* WHERE id = \\? AND status = \\?").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		fee, couponID, batchNo, err := svc.chargeListingFee(
			ctx, svc.db, req, 2, 100000, "CSG1", "测试藏品", testBiz(0))
		assert.NoError(t, err)
		assert.Equal(t, int64(0), fee)
		assert.Equal(t, int64(7), couponID)
		assert.Empty(t, batchNo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("手续费余额不足", func(t *testing.T) {
		svc, mock := newTestConsignService(t)

		mock.ExpectQuery("SELECT \\* FROM `account` WHERE user_id = \\?").
			WillReturnRows(accountRow(100, 1000))

		_, _, _, err := svc.chargeListingFee(
			ctx, svc.db, req, 2, 100000, "CSG1", "测试藏品", testBiz(0.03))
		assert.True(t, errs.IsKind(err, errs.KindInsufficientFunds))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("无可用寄售券", func(t *testing.T) {
		svc, mock := newTestConsignService(t)

		mock.ExpectQuery("SELECT \\* FROM `account` WHERE user_id = \\?").
			WillReturnRows(accountRow(100, 5000))
		mock.ExpectQuery("SELECT \\* FROM `coupon` WHERE user_id = \\? AND session_id = \\? AND zone_id = \\?").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, _, _, err := svc.chargeListingFee(
			ctx, svc.db, req, 2, 100000, "CSG1", "测试藏品", testBiz(0.03))
		assert.True(t, errs.IsKind(err, errs.KindInvalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
