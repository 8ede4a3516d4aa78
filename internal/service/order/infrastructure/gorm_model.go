// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID     string `gorm:"primaryKey;size:36"`
	Email  string `gorm:"size:254"`
	Status string `gorm:"size:20;index"`

	Name    string `gorm:"size:200"`
	Street  string `gorm:"size:200"`
	City    string `gorm:"size:120"`
	Zip     string `gorm:"size:20"`
	Country string `gorm:"size:2"`
	Phone   string `gorm:"size:30"`

	Total int64

	CreatedAt time.Time
	UpdatedAt time.Time

	// 关联关系
	Items []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表
type OrderItemModel struct {
	ID        int64  `gorm:"primaryKey"`
	OrderID   string `gorm:"size:36;index"`
	ProductID string `gorm:"size:64"`
	Quantity  int
	UnitPrice int64
	Currency  string `gorm:"size:3"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderTransitionLogModel 对应数据库中的 order_transition_log 表。
// 只插入、不更新：这张表同时是审计日志和幂等判定的持久化载体，
// idempotency_key 上的唯一索引是幂等语义的硬约束（MySQL 的唯一索引
// 允许多个 NULL，键缺省的记录不受影响）。
type OrderTransitionLogModel struct {
	ID         int64  `gorm:"primaryKey"`
	OrderID    string `gorm:"size:36;index"`
	FromStatus string `gorm:"size:20"`
	ToStatus   string `gorm:"size:20"`

	ActorID    sql.NullString `gorm:"size:64"`
	ActorLabel string         `gorm:"size:150"`
	Note       string         `gorm:"type:text"`

	Metadata string `gorm:"type:json"`

	IdempotencyKey sql.NullString `gorm:"size:64;uniqueIndex"`
	CreatedAt      time.Time
}

// TableName 指定 GORM 应该使用的表名
func (OrderTransitionLogModel) TableName() string {
	return "order_transition_log"
}
