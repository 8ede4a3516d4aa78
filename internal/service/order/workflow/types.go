// internal/service/order/workflow/types.go
package workflow

import (
	"context"
	"errors"

	"storefront/internal/service/order/domain"
)

// 引擎的错误分类。
// ErrDuplicateKey / ErrUnknownKey 属于配置错误，必须在启动校验阶段
// 暴露出来；其余三类是逐请求的业务失败，通过 TransitionResult 上报。
var (
	ErrUndefinedTransition   = errors.New("no transition defined")
	ErrGuardRejected         = errors.New("transition blocked by guard")
	ErrConcurrentStateChange = errors.New("order status changed concurrently")
	ErrDuplicateKey          = errors.New("key already registered")
	ErrUnknownKey            = errors.New("unknown registry key")
)

// FailureCode 标识一次失败流转的类别，调用方可以据此区分
// 并发冲突（提示刷新重试）和普通的非法请求。
type FailureCode string

const (
	FailureNone                  FailureCode = ""
	FailureUndefinedTransition   FailureCode = "undefined_transition"
	FailureGuardRejected         FailureCode = "guard_rejected"
	FailureConcurrentStateChange FailureCode = "concurrent_state_change"
)

// GuardFunc 是流转守卫：返回是否放行，以及拒绝原因（放行时为空串）。
type GuardFunc func(ctx context.Context, tc *TransitionContext) (allowed bool, reason string)

// EffectFunc 是流转效果。效果必须容忍以相同上下文重复执行：
// 请求重试可能与幂等检查窗口竞争导致效果重跑，引擎也不会因为
// 效果报错而回滚已提交的状态变更。
type EffectFunc func(ctx context.Context, tc *TransitionContext) error

// Transition 是一条声明式的流转定义。
// 同一 (from, to) 组合命中多条定义时，按声明顺序取第一条——
// 这是对表内容的一种宽容，不是可依赖的语义。
type Transition struct {
	Name         string
	FromStatuses []domain.Status
	ToStatus     domain.Status
	Guards       []string // 按序评估，遇到第一个拒绝即停止
	Effects      []string // 状态写入后按序执行
	Permissions  []string // 可选的权限码申明，供 role_allowed 守卫和管理端展示
	Description  string
}

// AllowsFrom 报告 from 是否在来源状态集合内。
func (t Transition) AllowsFrom(from domain.Status) bool {
	for _, s := range t.FromStatuses {
		if s == from {
			return true
		}
	}
	return false
}

// TransitionContext 是单次流转尝试的执行上下文，传递给所有守卫和效果。
// 追踪句柄随函数入参的 context.Context 传递，不在该结构体内。
type TransitionContext struct {
	Order *domain.Order

	// Actor 为 nil 表示匿名或系统主体
	Actor domain.Actor
	// ActorLabel 是 Actor 缺失时的兜底展示名
	ActorLabel string

	Note   string
	Params map[string]interface{}

	// IdempotencyKey 为空表示调用方不要求去重
	IdempotencyKey string
	DryRun         bool

	// 以下两个字段由引擎在执行效果前填充，守卫阶段为零值。
	FromStatus     domain.Status
	TransitionName string
}

// TransitionAttempt 是一次"是否允许流转"的评估结果，评估过程不产生任何副作用。
type TransitionAttempt struct {
	Transition Transition
	Allowed    bool
	Reason     string
}

// TransitionResult 是一次流转执行的结果，也是引擎对外的唯一返回契约。
// 调用方必须先看 Success 分支，再以 Idempotent 判断是否真的发生了新执行。
type TransitionResult struct {
	Success    bool
	Code       FailureCode
	FromStatus domain.Status
	ToStatus   domain.Status // 失败时为空
	Messages   []string
	Errors     []string
	Idempotent bool
	LogID      int64 // 写入的审计记录 ID，未写入时为 0
}
