// internal/service/order/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/order/domain/port"
)

// NotificationKafkaAdapter 是 port.NotificationProducer 的 Kafka 实现。
// 事件按订单号分区，保证同一订单的状态事件有序；
// 下游消费方按 event_id 去重，重复投递是安全的。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) NotifyStatusChanged(ctx context.Context, event *port.StatusChangedEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal status changed event")
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(event.OrderID), eventBytes); err != nil {
		return errors.Wrap(err, "failed to produce status changed event")
	}
	return nil
}
