package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindStorage      ErrorKind = "storage"
)

// Error 业务错误
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError 请求参数错误
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFoundError 资源不存在
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewConflictError 与已有数据冲突
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewInvalidStateError 当前状态不允许该操作
func NewInvalidStateError(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// NewStorageError 存储层错误
func NewStorageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf 返回错误分类,非业务错误返回空字符串
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ""
}

// IsValidation 是否为参数错误
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound 是否为资源不存在
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict 是否为冲突
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsInvalidState 是否为状态错误
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsStorage 是否为存储错误
func IsStorage(err error) bool { return KindOf(err) == KindStorage }

// classify 把仓储层错误归类为业务错误
func classify(err error, notFound string, op string) error {
	switch {
	case err == nil:
		return nil
	case KindOf(err) != "":
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NewNotFoundError(notFound)
	case isDuplicateKey(err):
		return &Error{Kind: KindConflict, Message: "record already exists", Err: err}
	default:
		return NewStorageError(op, err)
	}
}

// isDuplicateKey 识别唯一约束冲突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
