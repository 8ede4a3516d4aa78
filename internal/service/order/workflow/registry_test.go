package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/order/domain"
)

func allowGuard(ctx context.Context, tc *TransitionContext) (bool, string) { return true, "" }
func noopEffect(ctx context.Context, tc *TransitionContext) error         { return nil }

func TestRegistryDuplicateKey(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterGuard("g", allowGuard))
	err := reg.RegisterGuard("g", allowGuard)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	require.NoError(t, reg.RegisterEffect("e", noopEffect))
	err = reg.RegisterEffect("e", noopEffect)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRegistryUnknownKey(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Guard("missing")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = reg.Effect("missing")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestRegistryValidate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterGuard("g", allowGuard))
	require.NoError(t, reg.RegisterEffect("e", noopEffect))

	table := NewTable([]Transition{{
		Name:         "mark_paid",
		FromStatuses: []domain.Status{domain.StatusPending},
		ToStatus:     domain.StatusPaid,
		Guards:       []string{"g"},
		Effects:      []string{"e"},
	}})
	assert.NoError(t, reg.Validate(table))

	broken := NewTable([]Transition{{
		Name:         "mark_paid",
		FromStatuses: []domain.Status{domain.StatusPending},
		ToStatus:     domain.StatusPaid,
		Effects:      []string{"vanish"},
	}})
	err := reg.Validate(broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "mark_paid")
}

func TestNewServiceRejectsUnresolvedTable(t *testing.T) {
	// 注册表缺键必须在构造阶段失败，不能漏到请求路径
	store := newMemStore()
	_, err := NewService(NewDefaultTable(), NewRegistry(),
		&memOrderRepo{store: store}, &memLogRepo{store: store}, &memTxManager{store: store}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKey)
}
