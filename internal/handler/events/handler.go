package events

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/zhouzirui/persona-probe/backend/internal/service/chat"
	"github.com/zhouzirui/persona-probe/backend/pkg/utils"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	eventBuffer  = 32
)

// Handler 通过 WebSocket 推送会话生命周期事件
type Handler struct {
	registry *chatService.Registry
	events   *chatService.Broadcaster
	upgrader websocket.Upgrader
}

// New 创建事件推送处理器
func New(registry *chatService.Registry, events *chatService.Broadcaster) *Handler {
	return &Handler{
		registry: registry,
		events:   events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes 注册 WebSocket 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/ws", h.handleWebSocket)
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 先发送当前会话快照，然后持续推送注册表事件
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "event feed unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before the snapshot so no event falls between the two.
	feed, unsubscribe := h.events.Subscribe(eventBuffer)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go h.readLoop(conn, cancel)

	log.Printf("[events] subscriber connected from %s", r.RemoteAddr)

	if err := h.write(conn, outgoingMessage{
		Type:      "snapshot",
		Data:      h.registry.ListSummaries(ctx),
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[events] subscriber %s disconnected", r.RemoteAddr)
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			msg := outgoingMessage{
				Type:      string(ev.Type),
				SessionID: ev.SessionID,
				Timestamp: ev.At.UnixMilli(),
			}
			if ev.Summary != nil {
				msg.Data = ev.Summary
			}
			if err := h.write(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop 丢弃客户端消息，仅用于感知断开与处理 pong
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[events] read error: %v", err)
			}
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[events] failed to send %s: %v", msg.Type, err)
		return err
	}
	return nil
}
