package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidInput, KindOf(InvalidInput("参数错误")))
	assert.Equal(t, KindInvalidState, KindOf(InvalidState("状态错误")))
	assert.Equal(t, KindInsufficientFunds, KindOf(InsufficientFunds("余额不足")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("不存在")))
	assert.Equal(t, KindContention, KindOf(Contention("锁冲突")))
	assert.Equal(t, KindInvariant, KindOf(Invariant("账本不一致")))

	assert.Equal(t, KindUnknown, KindOf(errors.New("其他错误")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	inner := Contention("锁冲突")
	wrapped := fmt.Errorf("取消预约失败: %w", inner)
	assert.Equal(t, KindContention, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindContention))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("redis: nil")
	err := Wrap(KindContention, "系统繁忙", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "系统繁忙")
	assert.Contains(t, err.Error(), "redis: nil")
}

func TestMySQLContention(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	lockWait := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}
	dupKey := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	assert.Equal(t, KindContention, KindOf(deadlock))
	assert.Equal(t, KindContention, KindOf(fmt.Errorf("结算失败: %w", lockWait)))
	assert.Equal(t, KindUnknown, KindOf(dupKey))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Contention("锁冲突")))
	assert.True(t, Retryable(&mysql.MySQLError{Number: 1213}))
	assert.False(t, Retryable(InsufficientFunds("余额不足")))
	assert.False(t, Retryable(Invariant("账本不一致")))
	assert.False(t, Retryable(nil))
}
