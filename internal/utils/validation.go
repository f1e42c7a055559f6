package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]+$`)

// ValidateID 验证路径参数中的 ID
// 记录 ID 为 UUID,员工 ID 由外部系统分配,允许邮箱形式
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(id) > 64 {
		return ErrIDTooLong
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// ParseMonthYear 解析 month/year 查询参数,缺省为 0
func ParseMonthYear(month, year string) (int, int, error) {
	m, err := parseOptionalInt(month)
	if err != nil {
		return 0, 0, ErrInvalidMonth
	}
	y, err := parseOptionalInt(year)
	if err != nil {
		return 0, 0, ErrInvalidYear
	}
	return m, y, nil
}

func parseOptionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// 错误定义
var (
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
	ErrInvalidMonth    = &ValidationError{Code: "INVALID_MONTH", Message: "month must be a number"}
	ErrInvalidYear     = &ValidationError{Code: "INVALID_YEAR", Message: "year must be a number"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
