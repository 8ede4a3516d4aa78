// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrOrderNotFound 表示订单不存在。
var ErrOrderNotFound = errors.New("order not found")

// TransitionLog 是一次已执行流转的审计记录。
// 只插入、永不更新或删除；IdempotencyKey 非空时在整张表上唯一，
// 幂等重放的判定依赖这条存储层约束。
type TransitionLog struct {
	ID         int64
	OrderID    string
	FromStatus Status
	ToStatus   Status

	// ActorID 仅在主体已认证时记录
	ActorID    string
	ActorLabel string
	Note       string

	// Metadata 记录流转名、原始参数和各效果的执行结果
	Metadata map[string]interface{}

	IdempotencyKey string
	CreatedAt      time.Time
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// FindByID 根据 ID 查找一个订单聚合。
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByIDForUpdate 以排他锁读取订单，阻塞其他并发的锁定读。
	// 必须在 TxManager.InTransaction 的回调内调用。
	FindByIDForUpdate(ctx context.Context, id string) (*Order, error)

	// UpdateStatus 只写入状态和更新时间两个字段。
	UpdateStatus(ctx context.Context, id string, status Status) error

	// Save 保存一个订单聚合（用于创建）。
	Save(ctx context.Context, order *Order) error
}

// TransitionLogRepository 定义了审计日志的持久化接口。
type TransitionLogRepository interface {
	// Insert 以 insert-if-absent 语义写入一条审计记录。
	// 幂等键冲突时不报错：返回已存在的记录且 inserted=false，
	// 调用方应将其视为一次成功的幂等重放。
	Insert(ctx context.Context, entry *TransitionLog) (log *TransitionLog, inserted bool, err error)

	// FindByOrderAndKey 按订单和幂等键查找；不存在时返回 (nil, nil)。
	FindByOrderAndKey(ctx context.Context, orderID, idempotencyKey string) (*TransitionLog, error)
}

// TxManager 提供原子工作单元。fn 内通过 ctx 取到的仓储操作
// 同属一个事务，fn 返回错误则整体回滚。
type TxManager interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
