package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIDUnique(t *testing.T) {
	Init(1)

	const n = 10000
	seen := make(map[int64]struct{}, n)
	for i := 0; i < n; i++ {
		id := NextID()
		_, dup := seen[id]
		assert.False(t, dup, "重复ID: %d", id)
		seen[id] = struct{}{}
	}
}

func TestNextIDConcurrent(t *testing.T) {
	Init(1)

	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestBusinessNumbers(t *testing.T) {
	Init(1)

	tests := []struct {
		prefix string
		gen    func() string
	}{
		{"FLW", GenerateFlowNo},
		{"BAT", GenerateBatchNo},
		{"RSV", GenerateReserveNo},
		{"CSG", GenerateConsignNo},
		{"TRD", GenerateTradeNo},
	}
	for _, tt := range tests {
		no := tt.gen()
		assert.True(t, strings.HasPrefix(no, tt.prefix), no)
		// 前缀3 + 时间戳14 + 序号8
		assert.Len(t, no, 25)
		assert.NotEqual(t, no, tt.gen())
	}
}
