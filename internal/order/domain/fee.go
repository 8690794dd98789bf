package domain

import "github.com/shopspring/decimal"

var (
	deliveryRate = decimal.RequireFromString("0.05")
	pickupRate   = decimal.RequireFromString("0.02")
)

// DeliveryFee 配送费：送货上门为基础金额的 5%，自提为 2%，其他方式不收费
func DeliveryFee(option DeliveryOption, base decimal.Decimal) decimal.Decimal {
	switch option {
	case DeliveryHome:
		return base.Mul(deliveryRate)
	case DeliveryPickup:
		return base.Mul(pickupRate)
	default:
		return decimal.Zero
	}
}
