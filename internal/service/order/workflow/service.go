// internal/service/order/workflow/service.go
package workflow

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

// Service 是订单流转的唯一权威入口。
// 它从流转表选择定义、评估守卫、在行级排他锁下完成幂等检查与
// 二次校验，然后写状态、跑效果、落审计。
type Service struct {
	table    *Table
	registry *Registry
	orders   domain.OrderRepository
	logs     domain.TransitionLogRepository
	tx       domain.TxManager
	tracer   trace.Tracer
}

// NewService 构造流转服务。构造时对注册表做一次全量校验，
// 任何缺失的守卫/效果键都在这里失败，不会漏到请求路径上。
func NewService(
	table *Table,
	registry *Registry,
	orders domain.OrderRepository,
	logs domain.TransitionLogRepository,
	tx domain.TxManager,
	tracer trace.Tracer,
) (*Service, error) {
	if err := registry.Validate(table); err != nil {
		return nil, errors.Wrap(err, "workflow registry validation failed")
	}
	return &Service{
		table:    table,
		registry: registry,
		orders:   orders,
		logs:     logs,
		tx:       tx,
		tracer:   tracer,
	}, nil
}

// TransitionRequest 携带一次执行请求的调用方输入。
type TransitionRequest struct {
	Actor          domain.Actor
	ActorLabel     string
	Note           string
	Params         map[string]interface{}
	IdempotencyKey string
	DryRun         bool
}

// TransitionsForState 返回从 status 出发的全部定义。
func (s *Service) TransitionsForState(status domain.Status) []Transition {
	return s.table.TransitionsFromState(status)
}

// AllowedTransitions 评估当前状态下的每条出边。
// tc 为 nil 时进入纯查询模式：不评估守卫，全部标记为允许，
// 用于管理端展示可选操作。
func (s *Service) AllowedTransitions(ctx context.Context, order *domain.Order, tc *TransitionContext) ([]TransitionAttempt, error) {
	var attempts []TransitionAttempt
	for _, t := range s.table.TransitionsFromState(order.Status) {
		if tc == nil {
			attempts = append(attempts, TransitionAttempt{Transition: t, Allowed: true})
			continue
		}
		ok, reason, err := s.evaluateGuards(ctx, t, tc)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, TransitionAttempt{Transition: t, Allowed: ok, Reason: reason})
	}
	return attempts, nil
}

// CanTransition 评估一次到 to 的流转是否当前被允许，不产生任何副作用。
func (s *Service) CanTransition(ctx context.Context, order *domain.Order, to domain.Status, tc *TransitionContext) (TransitionAttempt, error) {
	t, ok := s.table.SelectTransition(order.Status, to)
	if !ok {
		return TransitionAttempt{
			Transition: Transition{
				Name:         fmt.Sprintf("to:%s", to),
				FromStatuses: []domain.Status{order.Status},
				ToStatus:     to,
			},
			Allowed: false,
			Reason:  fmt.Sprintf("Transition from %s to %s is not defined", order.Status, to),
		}, nil
	}
	allowed, reason, err := s.evaluateGuards(ctx, t, tc)
	if err != nil {
		return TransitionAttempt{}, err
	}
	return TransitionAttempt{Transition: t, Allowed: allowed, Reason: reason}, nil
}

// errReplayRollback 用于在事务内发现幂等键冲突时回滚本次状态写入。
// 对调用方不可见。
var errReplayRollback = errors.New("idempotency key conflict, rolling back for replay")

// Transition 执行一次到 to 的流转。
//
// 业务失败（未定义的流转、守卫拒绝、并发状态变更）通过返回的
// TransitionResult 上报；error 只承载基础设施故障。
func (s *Service) Transition(ctx context.Context, order *domain.Order, to domain.Status, req TransitionRequest) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Transition", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.status", order.Status.String()),
		attribute.String("transition.to", to.String()),
		attribute.Bool("transition.dry_run", req.DryRun),
	))
	defer span.End()

	params := req.Params
	if params == nil {
		params = map[string]interface{}{}
	}

	// 1. 乐观路径：用未加锁的状态选择定义。这次选择不是权威的，
	//    只用来在加锁之前拦掉明显非法的请求。
	def, ok := s.table.SelectTransition(order.Status, to)
	if !ok {
		return TransitionResult{
			Success:    false,
			Code:       FailureUndefinedTransition,
			FromStatus: order.Status,
			Errors:     []string{fmt.Sprintf("No transition defined from %s to %s", order.Status, to)},
		}, nil
	}

	tc := &TransitionContext{
		Order:          order,
		Actor:          req.Actor,
		ActorLabel:     req.ActorLabel,
		Note:           req.Note,
		Params:         params,
		IdempotencyKey: req.IdempotencyKey,
		DryRun:         req.DryRun,
	}

	// 2. 守卫评估，遇到第一个拒绝即停止。
	allowed, reason, err := s.evaluateGuards(ctx, def, tc)
	if err != nil {
		return TransitionResult{}, err
	}
	if !allowed {
		if reason == "" {
			reason = "Transition blocked by guard"
		}
		return TransitionResult{
			Success:    false,
			Code:       FailureGuardRejected,
			FromStatus: order.Status,
			Errors:     []string{reason},
		}, nil
	}

	// 3. 试运行：不加锁、不落库、不跑效果，结果仅供参考。
	if req.DryRun {
		return TransitionResult{
			Success:    true,
			FromStatus: order.Status,
			ToStatus:   to,
			Messages:   []string{fmt.Sprintf("Dry-run OK: %s → %s via %s", order.Status, to, def.Name)},
		}, nil
	}

	var result TransitionResult
	txErr := s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		// 4. 锁定订单行，串行化同一订单上的并发真实流转。
		locked, err := s.orders.FindByIDForUpdate(txCtx, order.ID)
		if err != nil {
			return errors.Wrapf(err, "failed to lock order %s", order.ID)
		}
		span.AddEvent("row lock acquired")

		// 5. 幂等检查。只有拿到锁之后这个检查才是可靠的。
		if req.IdempotencyKey != "" {
			existing, err := s.logs.FindByOrderAndKey(txCtx, locked.ID, req.IdempotencyKey)
			if err != nil {
				return errors.Wrap(err, "idempotency lookup failed")
			}
			if existing != nil {
				span.AddEvent("idempotent replay")
				result = replayResult(existing)
				return nil
			}
		}

		// 6. 用锁定后的最新状态重新选择定义。另一个写入方可能在
		//    第 1 步和第 4 步之间改掉了状态。
		latest, ok := s.table.SelectTransition(locked.Status, to)
		if !ok {
			result = TransitionResult{
				Success:    false,
				Code:       FailureConcurrentStateChange,
				FromStatus: locked.Status,
				Errors:     []string{fmt.Sprintf("State changed concurrently; %s → %s not allowed", locked.Status, to)},
			}
			return nil
		}

		// 7. 写入新状态（只更新 status 和 updated_at）。
		prev := locked.Status
		if err := s.orders.UpdateStatus(txCtx, locked.ID, to); err != nil {
			return errors.Wrapf(err, "failed to update order %s status", locked.ID)
		}
		locked.Status = to

		// 8. 按声明顺序执行效果。效果失败不回滚状态：效果面向的
		//    都是可重试的外部系统，失败记入审计元数据供事后补救。
		effectMsgs := s.runEffects(txCtx, latest, locked, prev, req, params)

		// 9. 落审计记录。幂等键的全局唯一由存储层约束兜底，
		//    冲突说明同一个键已被并发的首次执行占用，按重放处理。
		entry := s.buildLogEntry(locked, prev, to, latest, req, params, effectMsgs)
		inserted, stored, err := s.insertLog(txCtx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			span.AddEvent("idempotency key conflict treated as replay")
			result = replayResult(stored)
			return errReplayRollback
		}

		result = TransitionResult{
			Success:    true,
			FromStatus: prev,
			ToStatus:   to,
			Messages:   append([]string{fmt.Sprintf("%s → %s via %s", prev, to, latest.Name)}, effectMsgs...),
			LogID:      stored.ID,
		}
		return nil
	})
	if txErr != nil && !errors.Is(txErr, errReplayRollback) {
		span.RecordError(txErr)
		return TransitionResult{}, txErr
	}

	// 让调用方手里的实体与持久化状态保持一致
	if result.Success && !result.Idempotent {
		order.Status = result.ToStatus
	}
	return result, nil
}

// evaluateGuards 按声明顺序评估守卫，返回第一个拒绝的原因。
func (s *Service) evaluateGuards(ctx context.Context, t Transition, tc *TransitionContext) (bool, string, error) {
	for _, key := range t.Guards {
		guard, err := s.registry.Guard(key)
		if err != nil {
			// 构造时已做过校验，这里只会在表被运行期篡改时发生
			return false, "", err
		}
		ok, reason := guard(ctx, tc)
		if !ok {
			if reason == "" {
				reason = fmt.Sprintf("Guard failed: %s", key)
			}
			return false, reason, nil
		}
	}
	return true, "", nil
}

// runEffects 在锁内执行效果并收集每个效果的完成消息。
func (s *Service) runEffects(ctx context.Context, t Transition, locked *domain.Order, prev domain.Status, req TransitionRequest, params map[string]interface{}) []string {
	msgs := make([]string, 0, len(t.Effects))
	for _, key := range t.Effects {
		effect, err := s.registry.Effect(key)
		if err != nil {
			// 同 evaluateGuards，正常运行不可达
			msgs = append(msgs, fmt.Sprintf("effect:%s:error", key))
			continue
		}
		effectCtx := &TransitionContext{
			Order:          locked,
			Actor:          req.Actor,
			ActorLabel:     req.ActorLabel,
			Note:           req.Note,
			Params:         params,
			IdempotencyKey: req.IdempotencyKey,
			FromStatus:     prev,
			TransitionName: t.Name,
		}
		if err := effect(ctx, effectCtx); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("order_id", locked.ID).
				Str("effect", key).
				Msg("effect execution failed, transition committed regardless")
			msgs = append(msgs, fmt.Sprintf("effect:%s:error", key))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("effect:%s:ok", key))
	}
	return msgs
}

func (s *Service) buildLogEntry(locked *domain.Order, prev, to domain.Status, t Transition, req TransitionRequest, params map[string]interface{}, effectMsgs []string) *domain.TransitionLog {
	entry := &domain.TransitionLog{
		OrderID:        locked.ID,
		FromStatus:     prev,
		ToStatus:       to,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
		Metadata: map[string]interface{}{
			"transition": t.Name,
			"params":     params,
			"effects":    effectMsgs,
		},
	}
	if req.Actor != nil && req.Actor.IsAuthenticated() {
		entry.ActorID = req.Actor.ID()
	}
	entry.ActorLabel = req.ActorLabel
	if entry.ActorLabel == "" && req.Actor != nil {
		entry.ActorLabel = req.Actor.DisplayName()
	}
	return entry
}

func (s *Service) insertLog(ctx context.Context, entry *domain.TransitionLog) (bool, *domain.TransitionLog, error) {
	stored, inserted, err := s.logs.Insert(ctx, entry)
	if err != nil {
		return false, nil, errors.Wrap(err, "failed to write transition log")
	}
	return inserted, stored, nil
}

// replayResult 把一条已存在的审计记录还原成幂等重放的结果。
func replayResult(log *domain.TransitionLog) TransitionResult {
	return TransitionResult{
		Success:    true,
		FromStatus: log.FromStatus,
		ToStatus:   log.ToStatus,
		Messages:   []string{"Idempotent replay"},
		Idempotent: true,
		LogID:      log.ID,
	}
}
