package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testTierRates = []float64{0.03, 0.06, 0.09, 0.12, 0.15}

func testTierRate(tier int) float64 {
	if tier < 1 || tier > len(testTierRates) {
		return 0
	}
	return testTierRates[tier-1]
}

func TestPlanTierPayouts(t *testing.T) {
	const sameLevelRate = 0.01

	tests := []struct {
		name  string
		chain []uplineAgent
		want  []tierPayout
	}{
		{
			name:  "空链",
			chain: nil,
			want:  nil,
		},
		{
			name:  "单个一级代理",
			chain: []uplineAgent{{UserID: 10, Tier: 1}},
			want:  []tierPayout{{UserID: 10, Tier: 1, Rate: 0.03}},
		},
		{
			// 递增链：每级发与上一级的差额
			name: "递增链",
			chain: []uplineAgent{
				{UserID: 10, Tier: 1},
				{UserID: 20, Tier: 3},
				{UserID: 30, Tier: 5},
			},
			want: []tierPayout{
				{UserID: 10, Tier: 1, Rate: 0.03},
				{UserID: 20, Tier: 3, Rate: 0.09 - 0.03},
				{UserID: 30, Tier: 5, Rate: 0.15 - 0.09},
			},
		},
		{
			// 相邻平级发固定平级佣金，之后更高级按差额继续
			name: "平级后升级",
			chain: []uplineAgent{
				{UserID: 10, Tier: 1},
				{UserID: 20, Tier: 1},
				{UserID: 30, Tier: 2},
			},
			want: []tierPayout{
				{UserID: 10, Tier: 1, Rate: 0.03},
				{UserID: 20, Tier: 1, Rate: sameLevelRate, SameLevel: true},
				{UserID: 30, Tier: 2, Rate: 0.06 - 0.03},
			},
		},
		{
			// 同一级只发一次平级
			name: "三连平级",
			chain: []uplineAgent{
				{UserID: 10, Tier: 2},
				{UserID: 20, Tier: 2},
				{UserID: 30, Tier: 2},
			},
			want: []tierPayout{
				{UserID: 10, Tier: 2, Rate: 0.06},
				{UserID: 20, Tier: 2, Rate: sameLevelRate, SameLevel: true},
			},
		},
		{
			// 低于已结算等级的代理拿不到级差
			name: "高低高",
			chain: []uplineAgent{
				{UserID: 10, Tier: 3},
				{UserID: 20, Tier: 1},
				{UserID: 30, Tier: 4},
			},
			want: []tierPayout{
				{UserID: 10, Tier: 3, Rate: 0.09},
				{UserID: 30, Tier: 4, Rate: 0.12 - 0.09},
			},
		},
		{
			// 升级后又出现与新等级的平级，平级标记重置
			name: "升级后再平级",
			chain: []uplineAgent{
				{UserID: 10, Tier: 1},
				{UserID: 20, Tier: 1},
				{UserID: 30, Tier: 2},
				{UserID: 40, Tier: 2},
			},
			want: []tierPayout{
				{UserID: 10, Tier: 1, Rate: 0.03},
				{UserID: 20, Tier: 1, Rate: sameLevelRate, SameLevel: true},
				{UserID: 30, Tier: 2, Rate: 0.06 - 0.03},
				{UserID: 40, Tier: 2, Rate: sameLevelRate, SameLevel: true},
			},
		},
		{
			// 非代理节点跳过，不打断级差推进
			name: "链上混入普通用户",
			chain: []uplineAgent{
				{UserID: 10, Tier: 0},
				{UserID: 20, Tier: 2},
				{UserID: 30, Tier: 0},
				{UserID: 40, Tier: 3},
			},
			want: []tierPayout{
				{UserID: 20, Tier: 2, Rate: 0.06},
				{UserID: 40, Tier: 3, Rate: 0.09 - 0.06},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planTierPayouts(tt.chain, testTierRate, sameLevelRate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanTierPayoutsTotalNeverExceedsTopRate(t *testing.T) {
	// 级差本质：任意链的级差比例之和不超过链上最高等级的名义比例
	chains := [][]uplineAgent{
		{{UserID: 1, Tier: 1}, {UserID: 2, Tier: 2}, {UserID: 3, Tier: 3}, {UserID: 4, Tier: 4}, {UserID: 5, Tier: 5}},
		{{UserID: 1, Tier: 5}},
		{{UserID: 1, Tier: 2}, {UserID: 2, Tier: 5}},
		{{UserID: 1, Tier: 4}, {UserID: 2, Tier: 1}, {UserID: 3, Tier: 5}},
	}
	for _, chain := range chains {
		total := 0.0
		topTier := 0
		for _, p := range planTierPayouts(chain, testTierRate, 0.01) {
			if !p.SameLevel {
				total += p.Rate
			}
			if p.Tier > topTier {
				topTier = p.Tier
			}
		}
		assert.InDelta(t, testTierRate(topTier), total, 1e-9)
	}
}
