package application

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// 表单与 JSON 提交的价格、库存可能是字符串或数字，统一在此转换

func parsePrice(v any) (decimal.Decimal, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, xerrors.Invalid("price", "price must be a number")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || price.IsNegative() {
		return decimal.Zero, xerrors.Invalid("price", "price must be a non-negative number")
	}
	return price, nil
}

func parseStock(v any) (int, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return 0, xerrors.Invalid("stock", "stock must be a non-negative integer")
	}
	stock, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || stock < 0 {
		return 0, xerrors.Invalid("stock", "stock must be a non-negative integer")
	}
	return stock, nil
}

func parseRating(v any) (float64, error) {
	rating, err := cast.ToFloat64E(v)
	if err != nil || rating < 0 || rating > 5 {
		return 0, xerrors.Invalid("rating", "rating must be between 0 and 5")
	}
	return rating, nil
}

func parseImages(v any) ([]string, error) {
	images, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, xerrors.Invalid("images", "images must be a list of URLs")
	}
	return images, nil
}

func parseText(field string, v any) (string, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", xerrors.Invalid(field, "%s must be text", field)
	}
	return strings.TrimSpace(s), nil
}
