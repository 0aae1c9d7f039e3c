package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁
// ============================================================================
//
// 资金正确性由数据库行锁保证，这里的 Redis 锁只挡重复提交窗口：
// 同一用户的并发预约/购买请求先在这里串行化，降低数据库锁竞争。
//
// 加锁：SET key value NX EX timeout
//   - NX 保证互斥，EX 防止死锁
//   - value 记录持有者，释放时校验，防止误删他人锁
// 释放：Lua 脚本保证"校验+删除"原子执行
//
// ============================================================================

var ErrLockFailed = errors.New("获取分布式锁失败")

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string // 锁持有者标识
	expiration time.Duration
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
// Lua 脚本先校验 value 再删除，锁超时被他人取得后不会误删
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewTradeLock 购买锁（按买家维度）
// 同一买家的购买请求串行，不同买家互不影响
func NewTradeLock(client *redis.Client, buyerID int64, requestID string) *DistributedLock {
	key := fmt.Sprintf("trade:lock:user:%d", buyerID)
	return NewDistributedLock(client, key, requestID, 30*time.Second)
}

// NewReserveLock 预约锁（按用户维度）
func NewReserveLock(client *redis.Client, userID int64, requestID string) *DistributedLock {
	key := fmt.Sprintf("reserve:lock:user:%d", userID)
	return NewDistributedLock(client, key, requestID, 30*time.Second)
}

// NewConsignLock 挂单锁（按持仓维度），挡同一持仓的并发重复挂单
func NewConsignLock(client *redis.Client, holdingID int64, requestID string) *DistributedLock {
	key := fmt.Sprintf("consign:lock:holding:%d", holdingID)
	return NewDistributedLock(client, key, requestID, 30*time.Second)
}
