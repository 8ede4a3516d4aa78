// internal/service/order/interfaces/push_hub.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain/port"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 管理端部署在同一内网，允许所有来源
		return true
	},
}

// PushHub 维护所有活跃的管理端连接，把已提交的流转事件广播给它们。
// 推送是尽力而为的：慢客户端的缓冲写满即断开，不反压业务路径。
type PushHub struct {
	register   chan *pushClient
	unregister chan *pushClient
	broadcast  chan []byte

	lock    sync.RWMutex
	clients map[*pushClient]bool
}

func NewPushHub() *PushHub {
	return &PushHub{
		register:   make(chan *pushClient),
		unregister: make(chan *pushClient),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*pushClient]bool),
	}
}

// Run 驱动 hub 的注册/注销/广播循环，ctx 取消时关闭所有连接。
func (h *PushHub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client] = true
			h.lock.Unlock()
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.lock.Unlock()
		case msg := <-h.broadcast:
			h.lock.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// 写缓冲已满，踢掉慢客户端
					go func(c *pushClient) { h.unregister <- c }(client)
				}
			}
			h.lock.RUnlock()
		case <-ctx.Done():
			h.lock.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.lock.Unlock()
			return nil
		}
	}
}

// BroadcastTransition 实现 application.TransitionBroadcaster。
func (h *PushHub) BroadcastTransition(event *port.StatusChangedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("failed to marshal push event")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		// 广播队列已满时丢弃，业务路径不等待
		logger.Logger.Warn().Msg("push hub broadcast queue full, event dropped")
	}
}

// ServeWS 把 HTTP 连接升级为 WebSocket 并挂到 hub 上。
func (h *PushHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &pushClient{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// pushClient 是一个WebSocket连接的代表
type pushClient struct {
	hub  *PushHub
	conn *websocket.Conn
	send chan []byte
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// writePump 把 send channel 中的消息写入 websocket，并维持心跳。
func (c *pushClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只消费心跳响应，连接断开时负责注销。
func (c *pushClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
