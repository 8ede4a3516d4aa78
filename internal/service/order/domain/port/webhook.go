// internal/service/order/domain/port/webhook.go
package port

import "context"

// WebhookEmitter 把状态变更事件推送给已登记的下游回调地址。
// 下游按 event_id 去重，重复推送是安全的。
type WebhookEmitter interface {
	Emit(ctx context.Context, event *StatusChangedEvent) error
}
