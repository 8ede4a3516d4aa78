// internal/service/order/workflow/guards.go
package workflow

import (
	"context"
	"fmt"
)

// 内置守卫。payment_authorized / inventory_available 是恒放行的占位，
// 真实系统在启动时用外部系统的实现覆盖这两个键位。

// GuardPaymentAuthorized 占位：放行。真实实现应校验支付意图的授权状态。
func GuardPaymentAuthorized(ctx context.Context, tc *TransitionContext) (bool, string) {
	return true, ""
}

// GuardInventoryAvailable 占位：放行。真实实现应检查/锁定库存预占。
func GuardInventoryAvailable(ctx context.Context, tc *TransitionContext) (bool, string) {
	return true, ""
}

// NewRoleAllowedGuard 返回权限守卫：要求主体已认证，并持有所需的全部权限。
// 所需权限取 params["required_perms"]，缺省时退回 defaultPerms。
func NewRoleAllowedGuard(defaultPerms []string) GuardFunc {
	return func(ctx context.Context, tc *TransitionContext) (bool, string) {
		required := requiredPerms(tc.Params, defaultPerms)
		actor := tc.Actor
		if actor == nil || !actor.IsAuthenticated() {
			return false, "Authentication required"
		}
		for _, perm := range required {
			if !actor.HasPermission(perm) {
				return false, fmt.Sprintf("Missing permission: %s", perm)
			}
		}
		return true, ""
	}
}

func requiredPerms(params map[string]interface{}, defaults []string) []string {
	if params == nil {
		return defaults
	}
	raw, ok := params["required_perms"]
	if !ok {
		return defaults
	}
	switch v := raw.(type) {
	case []string:
		if len(v) > 0 {
			return v
		}
	case []interface{}:
		// JSON 反序列化得到的参数走这个分支
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaults
}
