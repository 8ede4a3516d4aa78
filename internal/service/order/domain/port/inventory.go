// internal/service/order/domain/port/inventory.go
package port

import (
	"context"

	"storefront/internal/service/order/domain"
)

// InventoryService 负责库存的预占和释放。
// 两个操作都以订单为幂等单位：同一订单重复预占/释放不产生二次扣减。
type InventoryService interface {
	Reserve(ctx context.Context, order *domain.Order) error
	Release(ctx context.Context, order *domain.Order) error
}
