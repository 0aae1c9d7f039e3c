package errs

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ============================================================================
// 业务错误分类
// ============================================================================
//
// 六类错误，处理策略各不相同：
//   InvalidInput      参数非法，直接返回调用方
//   InvalidState      对象生命周期状态不允许该操作
//   InsufficientFunds 资金池余额不足（必须在行锁内判定）
//   NotFound          关联对象不存在
//   Contention        锁等待超时/死锁，唯一允许调用方自动重试的类别
//   Invariant         内部一致性校验失败，视为致命错误，整体回滚
//
// 所有资金变动都在单个业务事务内完成，任何错误触发整体回滚，不存在部分提交。

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindInvalidState
	KindInsufficientFunds
	KindNotFound
	KindContention
	KindInvariant
)

// Error 带分类的业务错误
// Msg 面向用户展示，不携带批次号、堆栈等内部信息
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func InvalidInput(msg string) *Error      { return newErr(KindInvalidInput, msg, nil) }
func InvalidState(msg string) *Error      { return newErr(KindInvalidState, msg, nil) }
func InsufficientFunds(msg string) *Error { return newErr(KindInsufficientFunds, msg, nil) }
func NotFound(msg string) *Error          { return newErr(KindNotFound, msg, nil) }
func Contention(msg string) *Error        { return newErr(KindContention, msg, nil) }
func Invariant(msg string) *Error         { return newErr(KindInvariant, msg, nil) }

// Wrap 保留底层错误的同时附加分类与用户可见信息
func Wrap(kind Kind, msg string, err error) *Error {
	return newErr(kind, msg, err)
}

// KindOf 提取错误分类，非业务错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isMySQLContention(err) {
		return KindContention
	}
	return KindUnknown
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable 只有锁竞争类错误允许调用方自动重试
func Retryable(err error) bool {
	return KindOf(err) == KindContention
}

// MySQL 1205: 锁等待超时；1213: 死锁被回滚
func isMySQLContention(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1205 || myErr.Number == 1213
	}
	return false
}
