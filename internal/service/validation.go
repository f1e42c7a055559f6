package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// requestValidator 返回共享的校验器,字段名使用 json 标签
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateRequest 校验请求结构体,返回 ValidationError
func validateRequest(req interface{}) error {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError(err.Error())
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		name := fieldPath(fe)
		if fe.Tag() == "required" {
			missing = append(missing, name)
			continue
		}
		invalid = append(invalid, name+" must be "+describeTag(fe))
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, strings.Join(invalid, "; "))
	}
	return NewValidationError(strings.Join(parts, "; "))
}

// fieldPath 去掉顶层结构体名,保留嵌套路径
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "one of [" + fe.Param() + "]"
	case "min":
		return "at least " + fe.Param()
	case "max":
		return "at most " + fe.Param()
	case "gte":
		return ">= " + fe.Param()
	case "lte":
		return "<= " + fe.Param()
	default:
		return "valid " + fe.Tag()
	}
}
