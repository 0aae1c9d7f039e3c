package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierRate(t *testing.T) {
	b := &BusinessConfig{TierRates: []float64{0.03, 0.06, 0.09, 0.12, 0.15}}

	assert.Equal(t, 0.03, b.TierRate(1))
	assert.Equal(t, 0.15, b.TierRate(5))
	assert.Equal(t, 0.0, b.TierRate(0))
	assert.Equal(t, 0.0, b.TierRate(6))
	assert.Equal(t, 0.0, b.TierRate(-1))
}

func TestStaticManager(t *testing.T) {
	m := NewStatic(&Config{
		Business: BusinessConfig{FeeRate: 0.03, SplitRatio: 0.5},
	})

	// Business 返回值拷贝，修改副本不影响管理器内的快照
	biz := m.Business()
	assert.Equal(t, 0.03, biz.FeeRate)
	biz.FeeRate = 0.99
	assert.Equal(t, 0.03, m.Business().FeeRate)

	assert.Equal(t, 0.5, m.Get().Business.SplitRatio)
}
