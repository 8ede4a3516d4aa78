// internal/service/order/workflow/table.go
package workflow

import (
	"storefront/internal/service/order/domain"
)

// Table 是进程级不可变的流转目录，启动时构建完成后只读。
type Table struct {
	transitions []Transition
}

// NewTable 以声明顺序构建流转表。
func NewTable(transitions []Transition) *Table {
	ts := make([]Transition, len(transitions))
	copy(ts, transitions)
	return &Table{transitions: ts}
}

// TableOption 在默认表的基础上做受限的定制。
type TableOption func(transitions []Transition)

// WithExtraGuard 给指定名字的流转追加一个守卫键。
// 用于从配置挂载 CEL 规则守卫等部署期策略。
func WithExtraGuard(transitionName, guardKey string) TableOption {
	return func(transitions []Transition) {
		for i := range transitions {
			if transitions[i].Name == transitionName {
				transitions[i].Guards = append(transitions[i].Guards, guardKey)
			}
		}
	}
}

// NewDefaultTable 返回标准的订单生命周期流转表：
//   - pending → paid → shipped → fulfilled
//   - pending/paid → cancelled
//   - fulfilled → refunded / returned
//
// cancelled、refunded、returned 是终结状态，没有任何出边。
func NewDefaultTable(opts ...TableOption) *Table {
	transitions := []Transition{
		{
			Name:         "mark_paid",
			FromStatuses: []domain.Status{domain.StatusPending},
			ToStatus:     domain.StatusPaid,
			Guards:       []string{"role_allowed", "payment_authorized"},
			Effects:      []string{"capture_payment", "reserve_inventory", "send_notification", "emit_webhook"},
			Description:  "Mark order as paid (captures authorized payment, reserves inventory).",
		},
		{
			Name:         "ship",
			FromStatuses: []domain.Status{domain.StatusPaid},
			ToStatus:     domain.StatusShipped,
			Guards:       []string{"role_allowed", "inventory_available"},
			Effects:      []string{"send_notification", "emit_webhook"},
			Description:  "Mark order as shipped (notify customer).",
		},
		{
			Name:         "fulfill",
			FromStatuses: []domain.Status{domain.StatusShipped},
			ToStatus:     domain.StatusFulfilled,
			Guards:       []string{"role_allowed"},
			Effects:      []string{"send_notification", "emit_webhook"},
			Description:  "Mark order as fulfilled (delivered/complete).",
		},
		{
			Name:         "cancel",
			FromStatuses: []domain.Status{domain.StatusPending, domain.StatusPaid},
			ToStatus:     domain.StatusCancelled,
			Guards:       []string{"role_allowed"},
			Effects:      []string{"release_inventory", "send_notification", "emit_webhook"},
			Description:  "Cancel order (release inventory; external refunds can be handled separately).",
		},
		{
			Name:         "refund",
			FromStatuses: []domain.Status{domain.StatusFulfilled},
			ToStatus:     domain.StatusRefunded,
			Guards:       []string{"role_allowed"},
			Effects:      []string{"refund_payment", "release_inventory", "send_notification", "emit_webhook"},
			Description:  "Refund order after fulfillment (may be partial based on params).",
		},
		{
			Name:         "return",
			FromStatuses: []domain.Status{domain.StatusFulfilled},
			ToStatus:     domain.StatusReturned,
			Guards:       []string{"role_allowed"},
			Effects:      []string{"release_inventory", "send_notification", "emit_webhook"},
			Description:  "Mark order as returned (stock operations handled by effect).",
		},
	}
	for _, opt := range opts {
		opt(transitions)
	}
	return NewTable(transitions)
}

// Transitions 返回声明顺序的全部定义。
func (t *Table) Transitions() []Transition {
	return t.transitions
}

// TransitionsFromState 返回所有可以从 from 出发的定义，保持声明顺序。
func (t *Table) TransitionsFromState(from domain.Status) []Transition {
	var out []Transition
	for _, tr := range t.transitions {
		if tr.AllowsFrom(from) {
			out = append(out, tr)
		}
	}
	return out
}

// SelectTransition 返回第一条来源集合含 from 且目标为 to 的定义。
func (t *Table) SelectTransition(from, to domain.Status) (Transition, bool) {
	for _, tr := range t.transitions {
		if tr.ToStatus == to && tr.AllowsFrom(from) {
			return tr, true
		}
	}
	return Transition{}, false
}
