package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPool(t *testing.T) {
	for _, pool := range []string{
		PoolSpendable, PoolWithdrawable, PoolServiceFee,
		PoolLoyaltyPoints, PoolComputeCredits, PoolPendingActivation,
	} {
		assert.True(t, ValidPool(pool), pool)
	}
	assert.False(t, ValidPool("balance"))
	assert.False(t, ValidPool(""))
}

func TestAccountPoolValue(t *testing.T) {
	a := &Account{}
	for i, pool := range []string{
		PoolSpendable, PoolWithdrawable, PoolServiceFee,
		PoolLoyaltyPoints, PoolComputeCredits, PoolPendingActivation,
	} {
		v := int64((i + 1) * 100)
		a.SetPoolValue(pool, v)
		assert.Equal(t, v, a.PoolValue(pool), pool)
	}
	// 六池互不串扰
	assert.Equal(t, int64(100), a.Spendable)
	assert.Equal(t, int64(600), a.PendingActivation)
}

func TestReserveTransitions(t *testing.T) {
	// 待撮合是唯一可流出的状态
	assert.True(t, CanReserveTransitionTo(ReserveStatusPending, ReserveStatusMatched))
	assert.True(t, CanReserveTransitionTo(ReserveStatusPending, ReserveStatusRefunded))
	assert.True(t, CanReserveTransitionTo(ReserveStatusPending, ReserveStatusCancelled))

	// 终态不可再流转
	for _, from := range []int{ReserveStatusMatched, ReserveStatusRefunded, ReserveStatusCancelled} {
		for _, to := range []int{ReserveStatusPending, ReserveStatusMatched, ReserveStatusRefunded, ReserveStatusCancelled} {
			assert.False(t, CanReserveTransitionTo(from, to))
		}
	}
}

func TestConsignTransitions(t *testing.T) {
	assert.True(t, CanConsignTransitionTo(ConsignStatusListed, ConsignStatusSold))
	assert.True(t, CanConsignTransitionTo(ConsignStatusListed, ConsignStatusCancelled))
	assert.True(t, CanConsignTransitionTo(ConsignStatusListed, ConsignStatusExpired))

	// 终态不可再流转
	for _, from := range []int{ConsignStatusSold, ConsignStatusCancelled, ConsignStatusExpired} {
		for _, to := range []int{ConsignStatusListed, ConsignStatusSold, ConsignStatusCancelled, ConsignStatusExpired} {
			assert.False(t, CanConsignTransitionTo(from, to))
		}
	}
}

func TestTradeTransitions(t *testing.T) {
	assert.True(t, CanTradeTransitionTo(TradeStatusCreated, TradeStatusPaid))
	assert.True(t, CanTradeTransitionTo(TradeStatusCreated, TradeStatusFailed))
	assert.False(t, CanTradeTransitionTo(TradeStatusPaid, TradeStatusFailed))
	assert.False(t, CanTradeTransitionTo(TradeStatusPaid, TradeStatusCreated))
	assert.False(t, CanTradeTransitionTo(TradeStatusFailed, TradeStatusPaid))
}

func TestPriceZoneContains(t *testing.T) {
	z := &PriceZone{MinPrice: 50000, MaxPrice: 100000}
	assert.False(t, z.Contains(50000)) // 下限开
	assert.True(t, z.Contains(50001))
	assert.True(t, z.Contains(100000)) // 上限闭
	assert.False(t, z.Contains(100001))
	assert.False(t, z.OpenEnded())

	// 不封顶专区
	open := &PriceZone{MinPrice: 500000, MaxPrice: 0}
	assert.True(t, open.OpenEnded())
	assert.True(t, open.Contains(500001))
	assert.True(t, open.Contains(99999999))
	assert.False(t, open.Contains(500000))
}

func TestMarshalPayload(t *testing.T) {
	assert.Equal(t, "", MarshalPayload(nil))

	got := MarshalPayload(&TradePayload{ConsignNo: "CSG1", ListPrice: 100})
	assert.Contains(t, got, `"consign_no":"CSG1"`)
	assert.Contains(t, got, `"list_price":100`)
}
