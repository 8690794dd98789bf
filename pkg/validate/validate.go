// Package validate 基于 go-playground/validator 的结构体校验，错误转换为 xerrors 校验错误
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator 返回共享的校验器，字段名取 json 标签
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return instance
}

// Struct 校验结构体；缺失的必填字段合并为一个 MissingFields 错误，其余取第一条规则错误。
// extra 为调用方自行判定缺失的字段，排在规则缺失字段之后。
func Struct(v any, extra ...string) error {
	err := Validator().Struct(v)
	if err == nil {
		if len(extra) > 0 {
			return xerrors.MissingFields(extra...)
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return xerrors.Wrap(xerrors.KindValidation, err, "invalid input")
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	missing = append(missing, extra...)
	if len(missing) > 0 {
		return xerrors.MissingFields(missing...)
	}

	fe := verrs[0]
	return xerrors.Invalid(fe.Field(), "%s must satisfy %s %s", fe.Field(), fe.Tag(), fe.Param())
}
