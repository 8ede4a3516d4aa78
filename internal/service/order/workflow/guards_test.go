package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAllowedGuard(t *testing.T) {
	guard := NewRoleAllowedGuard([]string{"order.change"})

	t.Run("nil actor", func(t *testing.T) {
		ok, reason := guard(context.Background(), &TransitionContext{})
		assert.False(t, ok)
		assert.Equal(t, "Authentication required", reason)
	})

	t.Run("unauthenticated actor", func(t *testing.T) {
		ok, reason := guard(context.Background(), &TransitionContext{
			Actor: &testActor{id: "anon", authenticated: false},
		})
		assert.False(t, ok)
		assert.Equal(t, "Authentication required", reason)
	})

	t.Run("missing permission", func(t *testing.T) {
		ok, reason := guard(context.Background(), &TransitionContext{
			Actor: &testActor{id: "u1", authenticated: true},
		})
		assert.False(t, ok)
		assert.Equal(t, "Missing permission: order.change", reason)
	})

	t.Run("default permission satisfied", func(t *testing.T) {
		ok, reason := guard(context.Background(), &TransitionContext{Actor: adminActor()})
		assert.True(t, ok)
		assert.Empty(t, reason)
	})

	t.Run("params override defaults", func(t *testing.T) {
		ok, reason := guard(context.Background(), &TransitionContext{
			Actor:  adminActor(),
			Params: map[string]interface{}{"required_perms": []string{"order.refund"}},
		})
		assert.False(t, ok)
		assert.Equal(t, "Missing permission: order.refund", reason)
	})

	t.Run("params from json decoding", func(t *testing.T) {
		// JSON 反序列化得到 []interface{}，守卫必须能处理
		ok, _ := guard(context.Background(), &TransitionContext{
			Actor:  adminActor(),
			Params: map[string]interface{}{"required_perms": []interface{}{"order.change"}},
		})
		assert.True(t, ok)
	})

	t.Run("empty override falls back to defaults", func(t *testing.T) {
		ok, _ := guard(context.Background(), &TransitionContext{
			Actor:  adminActor(),
			Params: map[string]interface{}{"required_perms": []interface{}{}},
		})
		assert.True(t, ok)
	})
}
