// internal/service/order/application/dto.go
package application

import (
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/workflow"
)

// TransitionRequestDTO 是执行流转的入参。
type TransitionRequestDTO struct {
	ToStatus       string                 `json:"to_status"`
	Note           string                 `json:"note"`
	Params         map[string]interface{} `json:"params"`
	IdempotencyKey string                 `json:"idempotency_key"`
	DryRun         bool                   `json:"dry_run"`
}

// TransitionResultDTO 是执行流转的出参。
type TransitionResultDTO struct {
	Success    bool     `json:"success"`
	Code       string   `json:"code,omitempty"`
	FromStatus string   `json:"from_status"`
	ToStatus   string   `json:"to_status,omitempty"`
	Messages   []string `json:"messages,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Idempotent bool     `json:"idempotent"`
	LogID      int64    `json:"log_id,omitempty"`
}

func toResultDTO(result workflow.TransitionResult) *TransitionResultDTO {
	return &TransitionResultDTO{
		Success:    result.Success,
		Code:       string(result.Code),
		FromStatus: result.FromStatus.String(),
		ToStatus:   result.ToStatus.String(),
		Messages:   result.Messages,
		Errors:     result.Errors,
		Idempotent: result.Idempotent,
		LogID:      result.LogID,
	}
}

// TransitionOptionDTO 描述当前状态下的一条可选流转。
type TransitionOptionDTO struct {
	Name        string   `json:"name"`
	ToStatus    string   `json:"to_status"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions,omitempty"`
	Allowed     bool     `json:"allowed"`
	Reason      string   `json:"reason,omitempty"`
}

// OrderDTO 是订单的对外视图。
type OrderDTO struct {
	ID      string         `json:"id"`
	Email   string         `json:"email"`
	Status  string         `json:"status"`
	Total   int64          `json:"total"`
	Items   []OrderItemDTO `json:"items"`
	Created string         `json:"created_at"`
	Updated string         `json:"updated_at"`
}

type OrderItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
}

func toOrderDTO(order *domain.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Currency:  it.Currency,
		})
	}
	return &OrderDTO{
		ID:      order.ID,
		Email:   order.Email,
		Status:  order.Status.String(),
		Total:   order.Total,
		Items:   items,
		Created: order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Updated: order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
