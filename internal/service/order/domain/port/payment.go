// internal/service/order/domain/port/payment.go
package port

import (
	"context"

	"storefront/internal/service/order/domain"
)

// PaymentGateway 是支付系统的挂载点。
// 本仓库只提供空实现；真实网关在启动时注入，且必须支持
// 以订单号为幂等键的重复调用。
type PaymentGateway interface {
	// Capture 请求扣款（捕获已授权的支付意图）。
	Capture(ctx context.Context, order *domain.Order) error
	// Refund 按 params 全额或部分退款。
	Refund(ctx context.Context, order *domain.Order, params map[string]interface{}) error
}

// NoopPaymentGateway 是 PaymentGateway 的空实现。
type NoopPaymentGateway struct{}

func (NoopPaymentGateway) Capture(ctx context.Context, order *domain.Order) error {
	return nil
}

func (NoopPaymentGateway) Refund(ctx context.Context, order *domain.Order, params map[string]interface{}) error {
	return nil
}
