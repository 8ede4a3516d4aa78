// internal/service/order/domain/port/notification.go
package port

import (
	"context"
	"time"

	"storefront/internal/service/order/domain"
)

// StatusChangedEvent 是订单状态变更的对外事件契约。
// Kafka 通知和 webhook 负载共用这一个结构。
type StatusChangedEvent struct {
	EventID    string        `json:"event_id"`
	OrderID    string        `json:"order_id"`
	FromStatus domain.Status `json:"from"`
	ToStatus   domain.Status `json:"to"`
	Transition string        `json:"transition"`
	ActorLabel string        `json:"actor_label"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NotificationProducer 把状态变更事件投递到消息系统。
// 实现必须容忍同一事件被重复投递。
type NotificationProducer interface {
	NotifyStatusChanged(ctx context.Context, event *StatusChangedEvent) error
}
