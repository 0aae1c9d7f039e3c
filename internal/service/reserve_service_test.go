package service

import (
	"context"
	"testing"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// 加注超限必须在取锁、扣减之前就被拒绝，不能留下任何扣减
func TestReserveBoostOutOfRange(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewStatic(&config.Config{
		Business: config.BusinessConfig{
			BaseCredits:     10,
			MaxBoostCredits: 90,
		},
	})

	tests := []struct {
		name  string
		boost int64
	}{
		{"超过上限", 91},
		{"负数加注", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockDB(t)
			svc := NewReserveService(gdb, nil, cfg)

			// 只允许幂等预检这一条查询，之后直接拒绝
			mock.ExpectQuery("SELECT \\* FROM `reservation` WHERE request_id = \\?").
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			_, err := svc.Reserve(ctx, &ReserveRequest{
				RequestID:    "req-boost",
				UserID:       100,
				SessionID:    5,
				ZoneID:       2,
				BoostCredits: tt.boost,
			})
			assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
