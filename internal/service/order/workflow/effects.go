// internal/service/order/workflow/effects.go
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/service/order/domain/port"
)

// 内置效果。每个效果都必须容忍以相同上下文重复执行：
// 请求重试可能与幂等检查窗口竞争，引擎也不保证效果与状态写入原子。
// 去重责任在各适配器（Kafka 下游按 event_id 去重、库存脚本按订单打标、
// 支付网关按订单号幂等）。

// BuiltinDeps 汇集内置效果依赖的外部适配器。
type BuiltinDeps struct {
	Payments  port.PaymentGateway
	Inventory port.InventoryService
	Notifier  port.NotificationProducer
	Webhooks  port.WebhookEmitter

	// 守卫相关
	DefaultPermissions []string
}

// RegisterBuiltins 把全部内置守卫和效果注册到 reg。
// 进程初始化时调用一次；键冲突说明重复初始化，直接返回错误。
func RegisterBuiltins(reg *Registry, deps BuiltinDeps) error {
	guards := map[string]GuardFunc{
		"role_allowed":        NewRoleAllowedGuard(deps.DefaultPermissions),
		"payment_authorized":  GuardPaymentAuthorized,
		"inventory_available": GuardInventoryAvailable,
	}
	for key, fn := range guards {
		if err := reg.RegisterGuard(key, fn); err != nil {
			return err
		}
	}

	effects := map[string]EffectFunc{
		"capture_payment": func(ctx context.Context, tc *TransitionContext) error {
			return deps.Payments.Capture(ctx, tc.Order)
		},
		"refund_payment": func(ctx context.Context, tc *TransitionContext) error {
			return deps.Payments.Refund(ctx, tc.Order, tc.Params)
		},
		"reserve_inventory": func(ctx context.Context, tc *TransitionContext) error {
			return deps.Inventory.Reserve(ctx, tc.Order)
		},
		"release_inventory": func(ctx context.Context, tc *TransitionContext) error {
			return deps.Inventory.Release(ctx, tc.Order)
		},
		"send_notification": NewStatusChangedEffect(func(ctx context.Context, ev *port.StatusChangedEvent) error {
			return deps.Notifier.NotifyStatusChanged(ctx, ev)
		}),
		"emit_webhook": NewStatusChangedEffect(func(ctx context.Context, ev *port.StatusChangedEvent) error {
			return deps.Webhooks.Emit(ctx, ev)
		}),
	}
	for key, fn := range effects {
		if err := reg.RegisterEffect(key, fn); err != nil {
			return err
		}
	}
	return nil
}

// NewStatusChangedEffect 把一个事件投递函数包装成效果：
// 从流转上下文构造 StatusChangedEvent 再交给投递函数。
func NewStatusChangedEffect(deliver func(ctx context.Context, ev *port.StatusChangedEvent) error) EffectFunc {
	return func(ctx context.Context, tc *TransitionContext) error {
		ev := &port.StatusChangedEvent{
			EventID:    uuid.New().String(),
			OrderID:    tc.Order.ID,
			FromStatus: tc.FromStatus,
			ToStatus:   tc.Order.Status,
			Transition: tc.TransitionName,
			ActorLabel: actorLabel(tc),
			OccurredAt: time.Now(),
		}
		return deliver(ctx, ev)
	}
}

func actorLabel(tc *TransitionContext) string {
	if tc.ActorLabel != "" {
		return tc.ActorLabel
	}
	if tc.Actor != nil {
		return tc.Actor.DisplayName()
	}
	return ""
}
