package service

import (
	"testing"
	"time"

	"collectmarket/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestMulRate(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   float64
		want   int64
	}{
		{"整除", 10000, 0.03, 300},
		{"四舍", 334, 0.03, 10},   // 10.02 -> 10
		{"五入", 5000, 0.0005, 3}, // 2.5 -> 3
		{"零金额", 0, 0.03, 0},
		{"零比例", 10000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mulRate(tt.amount, tt.rate))
		})
	}
}

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name          string
		listPrice     int64
		originalPrice int64
		legacy        bool
		feeRate       float64
		splitRatio    float64
		want          SettleResult
	}{
		{
			// 挂1000元、成本800元、费率3%、五五分成
			name:      "正常盈利",
			listPrice: 100000, originalPrice: 80000,
			feeRate: 0.03, splitRatio: 0.5,
			want: SettleResult{
				Profit:        20000,
				FeeRefund:     2400,
				Remaining:     17600,
				WithdrawShare: 8800,
				LoyaltyShare:  8800,
				SellerPayout:  91200,
			},
		},
		{
			// 平价卖出：利润为0，返还吃不到利润，剩余不为负
			name:      "平价卖出",
			listPrice: 80000, originalPrice: 80000,
			feeRate: 0.03, splitRatio: 0.5,
			want: SettleResult{
				Profit:        0,
				FeeRefund:     2400,
				Remaining:     0,
				WithdrawShare: 0,
				LoyaltyShare:  0,
				SellerPayout:  82400,
			},
		},
		{
			// 亏本卖出：利润归零而不是负数
			name:      "亏本卖出",
			listPrice: 70000, originalPrice: 80000,
			feeRate: 0.03, splitRatio: 0.5,
			want: SettleResult{
				Profit:        0,
				FeeRefund:     2400,
				Remaining:     0,
				WithdrawShare: 0,
				LoyaltyShare:  0,
				SellerPayout:  82400,
			},
		},
		{
			// 老资产不享受服务费返还
			name:      "老资产",
			listPrice: 100000, originalPrice: 80000,
			legacy:  true,
			feeRate: 0.03, splitRatio: 0.5,
			want: SettleResult{
				Profit:        20000,
				FeeRefund:     0,
				Remaining:     20000,
				WithdrawShare: 10000,
				LoyaltyShare:  10000,
				SellerPayout:  90000,
			},
		},
		{
			// 奇数剩余：可提现四舍五入，积分拿余数，两者之和不丢分
			name:      "奇数分成",
			listPrice: 80001, originalPrice: 80000,
			legacy:  true,
			feeRate: 0.03, splitRatio: 0.5,
			want: SettleResult{
				Profit:        1,
				FeeRefund:     0,
				Remaining:     1,
				WithdrawShare: 1,
				LoyaltyShare:  0,
				SellerPayout:  80001,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeSettlement(tt.listPrice, tt.originalPrice, tt.legacy, tt.feeRate, tt.splitRatio)
			assert.Equal(t, tt.want, got)
			// 分账对账：两份分成之和等于剩余利润
			assert.Equal(t, got.Remaining, got.WithdrawShare+got.LoyaltyShare)
		})
	}
}

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		name                    string
		spendable, withdrawable int64
		amount                  int64
		wantSpend, wantWithdraw int64
		wantOK                  bool
	}{
		{"可用余额足够", 10000, 5000, 8000, 8000, 0, true},
		{"需要可提现补足", 3000, 5000, 8000, 3000, 5000, true},
		{"恰好够", 3000, 5000, 8000, 3000, 5000, true},
		{"可用余额为零", 0, 8000, 8000, 0, 8000, true},
		{"合计不够", 3000, 4000, 8000, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spend, withdraw, ok := splitPayment(tt.spendable, tt.withdrawable, tt.amount)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSpend, spend)
			assert.Equal(t, tt.wantWithdraw, withdraw)
			if ok {
				assert.Equal(t, tt.amount, spend+withdraw)
			}
		})
	}
}

func TestNextMarketPrice(t *testing.T) {
	// 1000元挂单，上浮5%，费率3%：1050/0.97 = 1082.47... -> 108247分
	assert.Equal(t, int64(108247), nextMarketPrice(100000, 0.05, 0.03))
	// 费率为0时只剩上浮
	assert.Equal(t, int64(105000), nextMarketPrice(100000, 0.05, 0))
	// 费率异常兜底：不变价
	assert.Equal(t, int64(100000), nextMarketPrice(100000, 0.05, 1))
	// 上浮后的价格必然高于原价
	assert.Greater(t, nextMarketPrice(100000, 0.04, 0.03), int64(100000))
}

func TestTradeWindowOpen(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 30, 0, 0, time.Local)
	}

	biz := config.BusinessConfig{TradeOpenHour: 9, TradeCloseHour: 22}
	assert.False(t, tradeWindowOpen(biz, at(8)))
	assert.True(t, tradeWindowOpen(biz, at(9)))
	assert.True(t, tradeWindowOpen(biz, at(21)))
	assert.False(t, tradeWindowOpen(biz, at(22)))
	assert.False(t, tradeWindowOpen(biz, at(23)))

	// 全天开放
	allDay := config.BusinessConfig{}
	assert.True(t, tradeWindowOpen(allDay, at(3)))

	// 结束小时为0视为到午夜
	tillMidnight := config.BusinessConfig{TradeOpenHour: 9}
	assert.False(t, tradeWindowOpen(tillMidnight, at(8)))
	assert.True(t, tradeWindowOpen(tillMidnight, at(23)))
}
