// internal/service/order/infrastructure/adapter/webhook_http_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain/port"
)

// WebhookHTTPAdapter 是 port.WebhookEmitter 的 HTTP 实现。
// 把状态变更事件逐个 POST 给已登记的回调地址；单个地址失败
// 不阻断其余地址，全部失败才向上返回错误。
type WebhookHTTPAdapter struct {
	client    *httpclient.Client
	endpoints []string
}

func NewWebhookHTTPAdapter(client *httpclient.Client, endpoints []string) *WebhookHTTPAdapter {
	return &WebhookHTTPAdapter{client: client, endpoints: endpoints}
}

func (a *WebhookHTTPAdapter) Emit(ctx context.Context, event *port.StatusChangedEvent) error {
	if len(a.endpoints) == 0 {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	var delivered int
	for _, endpoint := range a.endpoints {
		if err := a.client.PostJSON(ctx, endpoint, body); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("endpoint", endpoint).
				Str("event_id", event.EventID).
				Msg("webhook delivery failed")
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return errors.Errorf("webhook delivery failed for all %d endpoints", len(a.endpoints))
	}
	return nil
}
