// internal/service/order/infrastructure/adapter/inventory_redis_adapter.go
package adapter

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/order/domain"
)

const (
	reserveScriptName = "inventory_reserve"
	releaseScriptName = "inventory_release"
)

// reserveScript 原子地完成"打标 + 扣减"：
// KEYS[1] 订单预占标记集合, KEYS[2] 商品预占计数 hash
// ARGV 为 productID, quantity 的平铺列表。
// 订单已打标时直接返回 0，保证同一订单重复预占不产生二次扣减。
const reserveScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
    return 0
end
for i = 1, #ARGV, 2 do
    redis.call('HINCRBY', KEYS[2], ARGV[i], ARGV[i+1])
end
redis.call('SET', KEYS[1], '1')
return 1
`

// releaseScript 是 reserveScript 的逆操作，同样以订单标记做幂等。
const releaseScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
for i = 1, #ARGV, 2 do
    redis.call('HINCRBY', KEYS[2], ARGV[i], -ARGV[i+1])
end
redis.call('DEL', KEYS[1])
return 1
`

// InventoryRedisAdapter 是 port.InventoryService 的 Redis 实现。
// 预占量记在一个按商品维度的 hash 上，订单级的标记键保证
// Reserve/Release 对同一订单可以安全地重复调用。
type InventoryRedisAdapter struct {
	redisClient *redis.Client
}

// NewInventoryRedisAdapter 创建库存适配器实例。
// 它在创建时会加载所有需要的 Lua 脚本。
func NewInventoryRedisAdapter(redisClient *redis.Client) (*InventoryRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(reserveScriptName, reserveScript); err != nil {
		return nil, errors.Wrap(err, "failed to load inventory reserve script")
	}
	if err := redisClient.LoadScriptFromContent(releaseScriptName, releaseScript); err != nil {
		return nil, errors.Wrap(err, "failed to load inventory release script")
	}
	return &InventoryRedisAdapter{redisClient: redisClient}, nil
}

func (a *InventoryRedisAdapter) Reserve(ctx context.Context, order *domain.Order) error {
	return a.run(ctx, reserveScriptName, order)
}

func (a *InventoryRedisAdapter) Release(ctx context.Context, order *domain.Order) error {
	return a.run(ctx, releaseScriptName, order)
}

func (a *InventoryRedisAdapter) run(ctx context.Context, script string, order *domain.Order) error {
	markerKey := fmt.Sprintf("inventory:orders:{%s}", order.ID)
	reservedKey := "inventory:reserved"

	args := make([]interface{}, 0, len(order.Items)*2)
	for _, item := range order.Items {
		args = append(args, item.ProductID, item.Quantity)
	}

	_, err := a.redisClient.RunScript(ctx, script, []string{markerKey, reservedKey}, args...)
	if err != nil {
		return errors.Wrapf(err, "inventory adapter failed to run %s", script)
	}
	return nil
}
