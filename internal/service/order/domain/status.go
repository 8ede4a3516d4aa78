// internal/service/order/domain/status.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending   Status = "pending"   // 订单已创建，等待支付
	StatusPaid      Status = "paid"      // 已支付
	StatusShipped   Status = "shipped"   // 已发货
	StatusFulfilled Status = "fulfilled" // 已送达/完成
	StatusCancelled Status = "cancelled" // 已取消 (用户主动或系统)
	StatusRefunded  Status = "refunded"  // 已退款
	StatusReturned  Status = "returned"  // 已退货
)

// AllStatuses 是状态枚举的全集，按生命周期顺序排列。
var AllStatuses = []Status{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusFulfilled,
	StatusCancelled,
	StatusRefunded,
	StatusReturned,
}

// IsValid 报告 s 是否是枚举的合法成员。
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal 报告 s 是否是终结状态。终结状态没有任何出边流转。
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusRefunded, StatusReturned:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
