// Package xerrors 定义跨上下文共享的业务错误分类
package xerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 错误类别
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindTransport         Kind = "transport"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string
	// 校验失败的字段
	Fields []string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New 创建指定类别的错误
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// MissingFields 缺少必填字段
func MissingFields(fields ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// Invalid 字段格式不合法
func Invalid(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...), Fields: []string{field}}
}

// NotFound 实体不存在
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// InsufficientStock 库存不足
func InsufficientStock(productID string, requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, requested, available),
	}
}

// Transport 外部投递失败
func Transport(cause error, message string) *Error {
	return Wrap(KindTransport, cause, message)
}

// Unauthorized 未认证
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden 无权限
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Conflict 状态冲突
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf 返回错误链中第一个业务错误的类别，非业务错误视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断错误链中是否包含指定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As 提取业务错误
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
