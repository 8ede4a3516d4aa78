// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"database/sql"
	"encoding/json"

	"storefront/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, it := range model.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Currency:  it.Currency,
		})
	}
	return &domain.Order{
		ID:        model.ID,
		Email:     model.Email,
		Status:    domain.Status(model.Status),
		Name:      model.Name,
		Street:    model.Street,
		City:      model.City,
		Zip:       model.Zip,
		Country:   model.Country,
		Phone:     model.Phone,
		Total:     model.Total,
		Items:     items,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// FromDomainOrder 将领域模型转换为数据库模型 (用于插入)
func FromDomainOrder(order *domain.Order) *OrderModel {
	if order == nil {
		return nil
	}
	items := make([]OrderItemModel, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemModel{
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Currency:  it.Currency,
		})
	}
	return &OrderModel{
		ID:        order.ID,
		Email:     order.Email,
		Status:    order.Status.String(),
		Name:      order.Name,
		Street:    order.Street,
		City:      order.City,
		Zip:       order.Zip,
		Country:   order.Country,
		Phone:     order.Phone,
		Total:     order.Total,
		Items:     items,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

// ToDomainTransitionLog 将审计记录的数据库模型转换为领域模型
func ToDomainTransitionLog(model *OrderTransitionLogModel) *domain.TransitionLog {
	if model == nil {
		return nil
	}
	var metadata map[string]interface{}
	if model.Metadata != "" {
		// 元数据损坏不应让读取路径整体失败，按空表处理
		_ = json.Unmarshal([]byte(model.Metadata), &metadata)
	}
	return &domain.TransitionLog{
		ID:             model.ID,
		OrderID:        model.OrderID,
		FromStatus:     domain.Status(model.FromStatus),
		ToStatus:       domain.Status(model.ToStatus),
		ActorID:        model.ActorID.String,
		ActorLabel:     model.ActorLabel,
		Note:           model.Note,
		Metadata:       metadata,
		IdempotencyKey: model.IdempotencyKey.String,
		CreatedAt:      model.CreatedAt,
	}
}

// FromDomainTransitionLog 将领域模型转换为数据库模型 (用于插入)
func FromDomainTransitionLog(entry *domain.TransitionLog) (*OrderTransitionLogModel, error) {
	if entry == nil {
		return nil, nil
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, err
	}
	model := &OrderTransitionLogModel{
		OrderID:    entry.OrderID,
		FromStatus: entry.FromStatus.String(),
		ToStatus:   entry.ToStatus.String(),
		ActorLabel: entry.ActorLabel,
		Note:       entry.Note,
		Metadata:   string(metadata),
	}
	if entry.ActorID != "" {
		model.ActorID = sql.NullString{String: entry.ActorID, Valid: true}
	}
	if entry.IdempotencyKey != "" {
		model.IdempotencyKey = sql.NullString{String: entry.IdempotencyKey, Valid: true}
	}
	return model, nil
}
