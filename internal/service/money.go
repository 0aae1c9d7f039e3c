package service

import (
	"math"
	"time"

	"collectmarket/internal/config"
	"collectmarket/internal/model"
)

// ============================================================================
// 结算纯计算
// ============================================================================
//
// 金额一律 int64 分；比例运算后四舍五入到分。
// 这里只做算术，不碰存储，方便单测穷举对账。

// mulRate 金额乘比例，四舍五入到分
func mulRate(amount int64, rate float64) int64 {
	return int64(math.Floor(float64(amount)*rate + 0.5))
}

// SettleResult 差额利润分账结果
type SettleResult struct {
	Profit        int64 // 差额利润 = max(0, 挂单价-成本价)
	FeeRefund     int64 // 服务费返还 = 成本价*费率，老资产为0
	Remaining     int64 // 扣除返还后的剩余利润
	WithdrawShare int64 // 剩余利润中计入可提现的部分
	LoyaltyShare  int64 // 剩余利润中计入积分的部分
	SellerPayout  int64 // 卖家可提现入账 = 本金 + 返还 + 可提现分成
}

// computeSettlement 差额利润模型分账
// 利润只看挂单价与取得成本的差额，与服务费无关；
// 老资产转换的持仓不享受服务费返还
func computeSettlement(listPrice, originalPrice int64, legacy bool, feeRate, splitRatio float64) SettleResult {
	profit := listPrice - originalPrice
	if profit < 0 {
		profit = 0
	}

	var feeRefund int64
	if !legacy {
		feeRefund = mulRate(originalPrice, feeRate)
	}

	remaining := profit - feeRefund
	if remaining < 0 {
		remaining = 0
	}

	withdrawShare := mulRate(remaining, splitRatio)
	loyaltyShare := remaining - withdrawShare

	return SettleResult{
		Profit:        profit,
		FeeRefund:     feeRefund,
		Remaining:     remaining,
		WithdrawShare: withdrawShare,
		LoyaltyShare:  loyaltyShare,
		SellerPayout:  originalPrice + feeRefund + withdrawShare,
	}
}

// splitPayment 混合支付拆分：先扣可用余额，不足部分用可提现余额补
// 两池合计不够时返回 false，调用方不得做任何扣减
func splitPayment(spendable, withdrawable, amount int64) (spendPay, withdrawPay int64, ok bool) {
	if spendable+withdrawable < amount {
		return 0, 0, false
	}
	spendPay = amount
	if spendPay > spendable {
		spendPay = spendable
	}
	withdrawPay = amount - spendPay
	return spendPay, withdrawPay, true
}

// nextMarketPrice 售出后的下一轮市场价
// 先按随机比例上浮得到目标净值，再除以 (1-费率) 反推毛价，
// 使下一轮卖家扣除服务费后净赚目标比例。保留原始公式，不做"修正"
func nextMarketPrice(listPrice int64, markup, feeRate float64) int64 {
	if feeRate >= 1 {
		return listPrice
	}
	target := float64(listPrice) * (1 + markup)
	return int64(math.Floor(target/(1-feeRate) + 0.5))
}

// tradeWindowOpen 是否处于每日交易开放时段
// 起止小时都为0表示全天开放；关闭小时为0（起始非0）视为到午夜
func tradeWindowOpen(biz config.BusinessConfig, now time.Time) bool {
	if biz.TradeOpenHour == 0 && biz.TradeCloseHour == 0 {
		return true
	}
	h := now.Hour()
	if biz.TradeCloseHour == 0 {
		return h >= biz.TradeOpenHour
	}
	return h >= biz.TradeOpenHour && h < biz.TradeCloseHour
}

// poolLabel 资金池的用户可见名称
func poolLabel(pool string) string {
	switch pool {
	case model.PoolSpendable:
		return "可用余额"
	case model.PoolWithdrawable:
		return "可提现余额"
	case model.PoolServiceFee:
		return "手续费余额"
	case model.PoolLoyaltyPoints:
		return "积分"
	case model.PoolComputeCredits:
		return "算力值"
	case model.PoolPendingActivation:
		return "待激活余额"
	}
	return pool
}
