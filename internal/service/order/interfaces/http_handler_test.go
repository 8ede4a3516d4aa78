package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/service/order/application"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/workflow"
)

type memOrders struct {
	orders map[string]*domain.Order
}

func (r *memOrders) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *memOrders) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *memOrders) Save(ctx context.Context, order *domain.Order) error {
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

type memLogs struct {
	entries []*domain.TransitionLog
}

func (r *memLogs) Insert(ctx context.Context, entry *domain.TransitionLog) (*domain.TransitionLog, bool, error) {
	cp := *entry
	cp.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, &cp)
	return &cp, true, nil
}

func (r *memLogs) FindByOrderAndKey(ctx context.Context, orderID, key string) (*domain.TransitionLog, error) {
	for _, e := range r.entries {
		if e.OrderID == orderID && e.IdempotencyKey == key {
			return e, nil
		}
	}
	return nil, nil
}

type noTx struct{}

func (noTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestServer(t *testing.T, orders *memOrders) *httptest.Server {
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

	svc, err := workflow.NewService(workflow.NewDefaultTable(), reg, orders, &memLogs{}, noTx{}, tracer)
	require.NoError(t, err)

	app := application.NewOrderApplicationService(orders, svc, tracer, nil)
	mux := http.NewServeMux()
	NewOrderHandler(app, nil).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func seedOrders(t *testing.T, status domain.Status) *memOrders {
	t.Helper()
	order, err := domain.NewOrder("o-1", "buyer@example.com", []domain.OrderItem{
		{ProductID: "sku-1", Quantity: 1, UnitPrice: 2500, Currency: "EUR"},
	})
	require.NoError(t, err)
	order.Status = status
	return &memOrders{orders: map[string]*domain.Order{"o-1": order}}
}

func postTransition(t *testing.T, server *httptest.Server, orderID, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/orders/"+orderID+"/transitions", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

var adminHeaders = map[string]string{
	"X-Actor-Id":    "admin-1",
	"X-Actor-Name":  "Admin One",
	"X-Actor-Perms": "order.change",
}

func TestGetOrderEndpoint(t *testing.T) {
	server := newTestServer(t, seedOrders(t, domain.StatusPending))

	resp, err := http.Get(server.URL + "/orders/o-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto application.OrderDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dto))
	assert.Equal(t, "o-1", dto.ID)
	assert.Equal(t, "pending", dto.Status)

	resp404, err := http.Get(server.URL + "/orders/missing")
	require.NoError(t, err)
	defer resp404.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp404.StatusCode)
}

func TestExecuteTransitionEndpoint(t *testing.T) {
	orders := seedOrders(t, domain.StatusPending)
	server := newTestServer(t, orders)

	resp := postTransition(t, server, "o-1", `{"to_status":"paid"}`, adminHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result application.TransitionResultDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "paid", result.ToStatus)
	assert.Equal(t, domain.StatusPaid, orders.orders["o-1"].Status)
}

func TestExecuteTransitionEndpointStatusMapping(t *testing.T) {
	t.Run("missing to_status", func(t *testing.T) {
		server := newTestServer(t, seedOrders(t, domain.StatusPending))
		resp := postTransition(t, server, "o-1", `{}`, adminHeaders)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("guard rejected", func(t *testing.T) {
		server := newTestServer(t, seedOrders(t, domain.StatusPending))
		// 匿名请求被权限守卫拒绝
		resp := postTransition(t, server, "o-1", `{"to_status":"paid"}`, nil)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var result application.TransitionResultDTO
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "guard_rejected", result.Code)
	})

	t.Run("undefined transition", func(t *testing.T) {
		server := newTestServer(t, seedOrders(t, domain.StatusPending))
		resp := postTransition(t, server, "o-1", `{"to_status":"shipped"}`, adminHeaders)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var result application.TransitionResultDTO
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "undefined_transition", result.Code)
	})

	t.Run("order not found", func(t *testing.T) {
		server := newTestServer(t, seedOrders(t, domain.StatusPending))
		resp := postTransition(t, server, "missing", `{"to_status":"paid"}`, adminHeaders)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListTransitionsEndpoint(t *testing.T) {
	server := newTestServer(t, seedOrders(t, domain.StatusPending))

	resp, err := http.Get(server.URL + "/orders/o-1/transitions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Transitions []application.TransitionOptionDTO `json:"transitions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Transitions, 2)
	assert.Equal(t, "mark_paid", body.Transitions[0].Name)
	assert.True(t, body.Transitions[0].Allowed)

	// evaluate=true 且主体缺权限：出边仍然返回，但标记为不允许
	req, err := http.NewRequest(http.MethodGet, server.URL+"/orders/o-1/transitions?evaluate=true", nil)
	require.NoError(t, err)
	req.Header.Set("X-Actor-Id", "viewer-1")
	respEval, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer respEval.Body.Close()
	require.NoError(t, json.NewDecoder(respEval.Body).Decode(&body))
	require.Len(t, body.Transitions, 2)
	for _, opt := range body.Transitions {
		assert.False(t, opt.Allowed)
		assert.Equal(t, "Missing permission: order.change", opt.Reason)
	}
}
