package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
	"storefront/internal/service/order/workflow"
)

// 编排层测试只关心流程接线，引擎语义由 workflow 包自己的测试覆盖。

type stubOrderRepo struct {
	orders map[string]*domain.Order
}

func (r *stubOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *stubOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *stubOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

type stubLogRepo struct {
	entries []*domain.TransitionLog
}

func (r *stubLogRepo) Insert(ctx context.Context, entry *domain.TransitionLog) (*domain.TransitionLog, bool, error) {
	cp := *entry
	cp.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, &cp)
	return &cp, true, nil
}

func (r *stubLogRepo) FindByOrderAndKey(ctx context.Context, orderID, key string) (*domain.TransitionLog, error) {
	for _, e := range r.entries {
		if e.OrderID == orderID && e.IdempotencyKey == key {
			return e, nil
		}
	}
	return nil, nil
}

type passthroughTx struct{}

func (passthroughTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type captureBroadcaster struct {
	events []*port.StatusChangedEvent
}

func (b *captureBroadcaster) BroadcastTransition(event *port.StatusChangedEvent) {
	b.events = append(b.events, event)
}

func newAppFixture(t *testing.T) (*OrderApplicationService, *stubOrderRepo, *captureBroadcaster) {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")

	reg := workflow.NewRegistry()
	require.NoError(t, reg.RegisterGuard("role_allowed", workflow.NewRoleAllowedGuard([]string{"order.change"})))
	require.NoError(t, reg.RegisterGuard("payment_authorized", workflow.GuardPaymentAuthorized))
	require.NoError(t, reg.RegisterGuard("inventory_available", workflow.GuardInventoryAvailable))
	for _, key := range []string{
		"capture_payment", "refund_payment",
		"reserve_inventory", "release_inventory",
		"send_notification", "emit_webhook",
	} {
		require.NoError(t, reg.RegisterEffect(key, func(ctx context.Context, tc *workflow.TransitionContext) error {
			return nil
		}))
	}

	orders := &stubOrderRepo{orders: map[string]*domain.Order{}}
	svc, err := workflow.NewService(workflow.NewDefaultTable(), reg, orders, &stubLogRepo{}, passthroughTx{}, tracer)
	require.NoError(t, err)

	broadcaster := &captureBroadcaster{}
	return NewOrderApplicationService(orders, svc, tracer, broadcaster), orders, broadcaster
}

func seedOrder(t *testing.T, repo *stubOrderRepo, id string, status domain.Status) {
	t.Helper()
	order, err := domain.NewOrder(id, "buyer@example.com", []domain.OrderItem{
		{ProductID: "sku-1", Quantity: 1, UnitPrice: 2500, Currency: "EUR"},
	})
	require.NoError(t, err)
	order.Status = status
	repo.orders[id] = order
}

func operator() domain.Actor {
	return &StaticActor{
		ActorID:       "op-1",
		Authenticated: true,
		Name:          "Operator",
		Permissions:   map[string]bool{"order.change": true},
	}
}

func TestExecuteTransitionHappyPath(t *testing.T) {
	app, repo, broadcaster := newAppFixture(t)
	seedOrder(t, repo, "o-1", domain.StatusPending)

	result, err := app.ExecuteTransition(context.Background(), "o-1", operator(), "", &TransitionRequestDTO{
		ToStatus: "paid",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "pending", result.FromStatus)
	assert.Equal(t, "paid", result.ToStatus)
	assert.Equal(t, domain.StatusPaid, repo.orders["o-1"].Status)

	require.Len(t, broadcaster.events, 1)
	event := broadcaster.events[0]
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "o-1", event.OrderID)
	assert.Equal(t, domain.StatusPending, event.FromStatus)
	assert.Equal(t, domain.StatusPaid, event.ToStatus)
	assert.Equal(t, "Operator", event.ActorLabel)
}

func TestExecuteTransitionUnknownTargetStatus(t *testing.T) {
	app, repo, broadcaster := newAppFixture(t)
	seedOrder(t, repo, "o-1", domain.StatusPending)

	result, err := app.ExecuteTransition(context.Background(), "o-1", operator(), "", &TransitionRequestDTO{
		ToStatus: "archived",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, string(workflow.FailureUndefinedTransition), result.Code)
	assert.Contains(t, result.Errors[0], "archived")
	assert.Empty(t, broadcaster.events)
}

func TestExecuteTransitionDryRunDoesNotBroadcast(t *testing.T) {
	app, repo, broadcaster := newAppFixture(t)
	seedOrder(t, repo, "o-1", domain.StatusPending)

	result, err := app.ExecuteTransition(context.Background(), "o-1", operator(), "", &TransitionRequestDTO{
		ToStatus: "paid",
		DryRun:   true,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusPending, repo.orders["o-1"].Status)
	assert.Empty(t, broadcaster.events)
}

func TestExecuteTransitionOrderNotFound(t *testing.T) {
	app, _, _ := newAppFixture(t)

	_, err := app.ExecuteTransition(context.Background(), "missing", operator(), "", &TransitionRequestDTO{
		ToStatus: "paid",
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListTransitions(t *testing.T) {
	app, repo, _ := newAppFixture(t)
	seedOrder(t, repo, "o-1", domain.StatusPending)

	// 纯查询模式
	options, err := app.ListTransitions(context.Background(), "o-1", nil)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "mark_paid", options[0].Name)
	assert.Equal(t, "paid", options[0].ToStatus)
	assert.True(t, options[0].Allowed)

	// 带主体评估：匿名主体被权限守卫拒绝
	options, err = app.ListTransitions(context.Background(), "o-1", &StaticActor{})
	require.NoError(t, err)
	for _, opt := range options {
		assert.False(t, opt.Allowed)
		assert.Equal(t, "Authentication required", opt.Reason)
	}
}

func TestGetOrder(t *testing.T) {
	app, repo, _ := newAppFixture(t)
	seedOrder(t, repo, "o-1", domain.StatusPaid)

	dto, err := app.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", dto.ID)
	assert.Equal(t, "paid", dto.Status)
	assert.Equal(t, int64(2500), dto.Total)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "sku-1", dto.Items[0].ProductID)
}
