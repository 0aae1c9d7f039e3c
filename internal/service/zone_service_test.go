package service

import (
	"context"
	"testing"

	"collectmarket/internal/config"
	"collectmarket/internal/errs"

	"github.com/stretchr/testify/assert"
)

func TestZoneBucket(t *testing.T) {
	const width = int64(50000) // 500元一档

	tests := []struct {
		name    string
		price   int64
		wantMin int64
		wantMax int64
	}{
		{"档内", 30000, 0, 50000},
		{"恰好档上限", 50000, 0, 50000},
		{"上限加一分", 50001, 50000, 100000},
		{"第二档", 80000, 50000, 100000},
		{"一分钱", 1, 0, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ZoneBucket(tt.price, width)
			assert.Equal(t, tt.wantMin, min)
			assert.Equal(t, tt.wantMax, max)
			// 归档后价格必然落在 (min, max] 内
			assert.Greater(t, tt.price, min)
			assert.LessOrEqual(t, tt.price, max)
		})
	}
}

func TestZoneName(t *testing.T) {
	assert.Equal(t, "500元区", ZoneName(50000))
	assert.Equal(t, "1000元区", ZoneName(100000))
}

// 非正价格在查库之前就拒绝，防止 ZoneBucket 对 price<=0 产生负档位专区
func TestClassifyRejectsNonPositivePrice(t *testing.T) {
	svc := NewZoneService(nil, config.NewStatic(&config.Config{}))

	_, err := svc.Classify(context.Background(), 0)
	assert.True(t, errs.IsKind(err, errs.KindInvalidInput))

	_, err = svc.Classify(context.Background(), -100)
	assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
}
