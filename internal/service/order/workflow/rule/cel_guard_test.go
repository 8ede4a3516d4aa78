package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/workflow"
)

func tcWithOrder(total int64, params map[string]interface{}) *workflow.TransitionContext {
	return &workflow.TransitionContext{
		Order: &domain.Order{
			ID:      "o-1",
			Email:   "buyer@example.com",
			Status:  domain.StatusFulfilled,
			Total:   total,
			Country: "DE",
		},
		Params: params,
	}
}

func TestCELGuardAllowsAndRejects(t *testing.T) {
	guard, err := NewCELGuard("order.total <= 100000")
	require.NoError(t, err)

	ok, reason := guard(context.Background(), tcWithOrder(99_00, nil))
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = guard(context.Background(), tcWithOrder(2000_00, nil))
	assert.False(t, ok)
	assert.Contains(t, reason, "rejected by rule")
}

func TestCELGuardReadsParams(t *testing.T) {
	guard, err := NewCELGuard(`params.reason == "damaged"`)
	require.NoError(t, err)

	ok, _ := guard(context.Background(), tcWithOrder(0, map[string]interface{}{"reason": "damaged"}))
	assert.True(t, ok)

	// params 里没有 reason：求值出错，按拒绝处理
	ok, reason := guard(context.Background(), tcWithOrder(0, nil))
	assert.False(t, ok)
	assert.Contains(t, reason, "rule evaluation failed")
}

func TestCELGuardCompileErrors(t *testing.T) {
	_, err := NewCELGuard("order.total <=")
	assert.Error(t, err)

	// 合法表达式，但产出的不是 bool
	_, err = NewCELGuard("order.status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must evaluate to bool")
}
