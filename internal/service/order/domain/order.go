// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"time"
)

// Order 是订单聚合的根实体。
// 状态字段只允许通过 workflow.Service 修改，任何直接赋值都会破坏
// 流转表的不变量。
type Order struct {
	ID     string
	Email  string
	Status Status

	// 简单的收货/联系信息
	Name    string
	Street  string
	City    string
	Zip     string
	Country string
	Phone   string

	// 金额单位为分，落库时持久化快照
	Total int64

	Items []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem 是订单内的单个商品行。
type OrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice int64 // 单位为分
	Currency  string
}

// Subtotal 返回该行的小计金额。
func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// NewOrder 工厂函数，创建一个处于 pending 初始状态的订单。
func NewOrder(id, email string, items []OrderItem) (*Order, error) {
	if id == "" || email == "" || len(items) == 0 {
		return nil, errors.New("cannot create order with empty required fields")
	}
	now := time.Now()
	o := &Order{
		ID:        id,
		Email:     email,
		Status:    StatusPending, // 初始状态
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.ComputeTotal()
	return o, nil
}

// ComputeTotal 重新计算并持久化订单总额快照。
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	o.Total = total
	return total
}
