// internal/service/order/workflow/rule/cel_guard.go
package rule

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"storefront/internal/service/order/workflow"
)

// NewCELGuard 把一个 CEL 表达式编译成守卫。
// 表达式在两个变量上求值：
//   - order:  {id, status, email, total, country}
//   - params: 调用方传入的自由参数表
//
// 表达式必须产出 bool。编译错误在启动阶段返回，属于配置错误；
// 求值错误按拒绝处理并带上原因，避免规则故障放行敏感流转。
func NewCELGuard(expression string) (workflow.GuardFunc, error) {
	env, err := cel.NewEnv(
		cel.Variable("order", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid rule expression %q", expression)
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Errorf("rule expression %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build program for %q", expression)
	}

	return func(ctx context.Context, tc *workflow.TransitionContext) (bool, string) {
		order := map[string]interface{}{
			"id":      tc.Order.ID,
			"status":  tc.Order.Status.String(),
			"email":   tc.Order.Email,
			"total":   tc.Order.Total,
			"country": tc.Order.Country,
		}
		params := tc.Params
		if params == nil {
			params = map[string]interface{}{}
		}

		out, _, err := program.Eval(map[string]interface{}{
			"order":  order,
			"params": params,
		})
		if err != nil {
			return false, fmt.Sprintf("rule evaluation failed: %v", err)
		}
		allowed, ok := out.Value().(bool)
		if !ok {
			return false, "rule did not produce a boolean"
		}
		if !allowed {
			return false, fmt.Sprintf("rejected by rule: %s", expression)
		}
		return true, ""
	}, nil
}
