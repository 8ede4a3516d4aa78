// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
	"storefront/internal/service/order/workflow"
)

// TransitionBroadcaster 把已提交的流转事件推送给实时监听方
// （如管理端的 websocket hub）。推送失败不影响流转结果。
type TransitionBroadcaster interface {
	BroadcastTransition(event *port.StatusChangedEvent)
}

// OrderApplicationService 负责业务流程编排：加载聚合、调用流转引擎、
// 记录指标并把结果转换为对外 DTO。引擎语义全部在 workflow.Service 内。
type OrderApplicationService struct {
	orderRepo   domain.OrderRepository
	workflowSvc *workflow.Service
	tracer      trace.Tracer
	broadcaster TransitionBroadcaster // 可为 nil
}

func NewOrderApplicationService(
	orderRepo domain.OrderRepository,
	workflowSvc *workflow.Service,
	tracer trace.Tracer,
	broadcaster TransitionBroadcaster,
) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo:   orderRepo,
		workflowSvc: workflowSvc,
		tracer:      tracer,
		broadcaster: broadcaster,
	}
}

// GetOrder 返回订单的对外视图。
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return toOrderDTO(order), nil
}

// ListTransitions 返回订单当前状态下的可选流转。
// actor 为 nil 时进入纯查询模式，不评估守卫。
func (s *OrderApplicationService) ListTransitions(ctx context.Context, orderID string, actor domain.Actor) ([]TransitionOptionDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListTransitions")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var tc *workflow.TransitionContext
	if actor != nil {
		tc = &workflow.TransitionContext{Order: order, Actor: actor}
	}
	attempts, err := s.workflowSvc.AllowedTransitions(ctx, order, tc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	options := make([]TransitionOptionDTO, 0, len(attempts))
	for _, a := range attempts {
		options = append(options, TransitionOptionDTO{
			Name:        a.Transition.Name,
			ToStatus:    a.Transition.ToStatus.String(),
			Description: a.Transition.Description,
			Permissions: a.Transition.Permissions,
			Allowed:     a.Allowed,
			Reason:      a.Reason,
		})
	}
	return options, nil
}

// ExecuteTransition 执行一次流转并返回结果 DTO。
func (s *OrderApplicationService) ExecuteTransition(ctx context.Context, orderID string, actor domain.Actor, actorLabel string, req *TransitionRequestDTO) (*TransitionResultDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ExecuteTransition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("transition.to", req.ToStatus),
	))
	defer span.End()

	to := domain.Status(req.ToStatus)
	if !to.IsValid() {
		// 非法的目标状态连流转表查询都不必做
		return &TransitionResultDTO{
			Success: false,
			Code:    string(workflow.FailureUndefinedTransition),
			Errors:  []string{"unknown target status: " + req.ToStatus},
		}, nil
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	start := time.Now()
	result, err := s.workflowSvc.Transition(ctx, order, to, workflow.TransitionRequest{
		Actor:          actor,
		ActorLabel:     actorLabel,
		Note:           req.Note,
		Params:         req.Params,
		IdempotencyKey: req.IdempotencyKey,
		DryRun:         req.DryRun,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition execution failed")
		return nil, err
	}

	s.record(result, to, req.DryRun, time.Since(start))

	if result.Success && !result.Idempotent && !req.DryRun {
		logger.Ctx(ctx).Info().
			Str("order_id", orderID).
			Str("from", result.FromStatus.String()).
			Str("to", result.ToStatus.String()).
			Msg("order transition committed")
		s.broadcast(result, order, actorLabel, actor)
	}
	return toResultDTO(result), nil
}

func (s *OrderApplicationService) record(result workflow.TransitionResult, to domain.Status, dryRun bool, elapsed time.Duration) {
	outcome := "success"
	if !result.Success {
		outcome = string(result.Code)
	}
	metrics.TransitionsTotal.WithLabelValues(to.String(), outcome).Inc()
	if result.Idempotent {
		metrics.TransitionReplays.Inc()
	}
	if !dryRun {
		metrics.TransitionDuration.Observe(elapsed.Seconds())
	}
}

func (s *OrderApplicationService) broadcast(result workflow.TransitionResult, order *domain.Order, actorLabel string, actor domain.Actor) {
	if s.broadcaster == nil {
		return
	}
	label := actorLabel
	if label == "" && actor != nil {
		label = actor.DisplayName()
	}
	s.broadcaster.BroadcastTransition(&port.StatusChangedEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.ID,
		FromStatus: result.FromStatus,
		ToStatus:   result.ToStatus,
		ActorLabel: label,
		OccurredAt: time.Now(),
	})
}
