// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/order/application"
	"storefront/internal/service/order/domain"
)

// OrderHandler 封装了 order 服务的 HTTP 处理器。
// 这是一层薄胶水：认证信息从请求头还原，业务全部委托给应用服务。
type OrderHandler struct {
	service *application.OrderApplicationService
	hub     *PushHub
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service *application.OrderApplicationService, hub *PushHub) *OrderHandler {
	return &OrderHandler{service: service, hub: hub}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /orders/{id}", h.getOrderHandler)
	mux.HandleFunc("GET /orders/{id}/transitions", h.listTransitionsHandler)
	mux.HandleFunc("POST /orders/{id}/transitions", h.executeTransitionHandler)
	if h.hub != nil {
		mux.HandleFunc("/ws", h.hub.ServeWS)
	}
}

func (h *OrderHandler) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	order, err := h.service.GetOrder(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) listTransitionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	// evaluate=true 时带主体评估守卫，否则只做展示用的出边枚举
	var actor domain.Actor
	if r.URL.Query().Get("evaluate") == "true" {
		actor = actorFromHeaders(r)
	}
	options, err := h.service.ListTransitions(ctx, r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transitions": options})
}

func (h *OrderHandler) executeTransitionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var req application.TransitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ToStatus == "" {
		http.Error(w, "to_status is required", http.StatusBadRequest)
		return
	}

	actor := actorFromHeaders(r)
	result, err := h.service.ExecuteTransition(ctx, r.PathValue("id"), actor, r.Header.Get("X-Actor-Label"), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		// 并发冲突单独给 409，提示调用方刷新重试
		if result.Code == "concurrent_state_change" {
			status = http.StatusConflict
		} else {
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, result)
}

// actorFromHeaders 从请求头还原执行主体。
// 网关在认证之后注入这些头；没有 X-Actor-Id 视为匿名请求。
func actorFromHeaders(r *http.Request) domain.Actor {
	id := r.Header.Get("X-Actor-Id")
	if id == "" {
		return nil
	}
	perms := make(map[string]bool)
	for _, p := range strings.Split(r.Header.Get("X-Actor-Perms"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms[p] = true
		}
	}
	return &application.StaticActor{
		ActorID:       id,
		Authenticated: true,
		Name:          r.Header.Get("X-Actor-Name"),
		Permissions:   perms,
	}
}

func extractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrOrderNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
