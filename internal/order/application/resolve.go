package application

import (
	accountdomain "github.com/wyfcoding/storefront/internal/account/domain"
	"github.com/wyfcoding/storefront/internal/order/domain"
)

const (
	unknownProduct  = "Unknown product"
	unknownCustomer = "Unknown customer"
)

// resolveAddress 未提供收货地址时使用账户默认地址，两者都没有时返回 false
func resolveAddress(given *domain.Address, customer *accountdomain.Account) (domain.Address, bool) {
	if given != nil && !given.IsZero() {
		return *given, true
	}
	if customer != nil && !customer.Address.IsZero() {
		a := customer.Address
		return domain.Address{State: a.State, Area: a.Area, Street: a.Street, Address: a.Address}, true
	}
	return domain.Address{}, false
}

func customerName(a *accountdomain.Account) string {
	if a == nil || a.Name == "" {
		return unknownCustomer
	}
	return a.Name
}
