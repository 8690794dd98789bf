package domain

import (
	"fmt"

	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// TransitionPolicy 状态迁移合法性检查
type TransitionPolicy interface {
	Check(from, to OrderStatus) error
}

// PermissiveTransitions 管理员可在任意两个状态之间切换，默认策略
type PermissiveTransitions struct{}

func (PermissiveTransitions) Check(_, to OrderStatus) error {
	if _, ok := ParseStatus(string(to)); !ok {
		return xerrors.Invalid("status", "unknown order status: %s", to)
	}
	return nil
}

// LinearTransitions 严格策略：pending → confirmed → delivered，pending/confirmed 可拒绝，终态不可再变更
type LinearTransitions struct{}

var linear = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusDelivered, StatusRejected},
}

func (LinearTransitions) Check(from, to OrderStatus) error {
	if err := (PermissiveTransitions{}).Check(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	for _, allowed := range linear[from] {
		if allowed == to {
			return nil
		}
	}
	return xerrors.Conflict(fmt.Sprintf("cannot move order from %s to %s", from, to))
}
