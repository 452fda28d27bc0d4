package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/docarchive/backend/internal/auth"
	"github.com/docarchive/backend/internal/events"
	"github.com/docarchive/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const wsWriteTimeout = 10 * time.Second

// AuditFeedHub relays newly recorded audit logs to connected admin websockets.
type AuditFeedHub struct {
	jwtSecret   string
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
}

func NewAuditFeedHub(jwtSecret string, subscriber events.Subscriber, log *zap.Logger) *AuditFeedHub {
	return &AuditFeedHub{
		jwtSecret:   jwtSecret,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *AuditFeedHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.ChannelAudit, h.broadcast)
}

// relayed reports whether an audit channel event belongs on the live feed.
func relayed(event events.Event) bool {
	return event.Type == events.EventLogRecorded
}

func (h *AuditFeedHub) broadcast(event events.Event) {
	if !relayed(event) {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for actorID, conns := range h.connections {
		for _, conn := range conns {
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				h.log.Debug("ws set deadline failed", zap.String("actor_id", actorID.String()), zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("ws write failed", zap.String("actor_id", actorID.String()), zap.Error(err))
			}
		}
	}
}

// ConnectionCount reports the number of open feed sockets.
func (h *AuditFeedHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.connections {
		n += len(conns)
	}
	return n
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *AuditFeedHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"error","message":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.jwtSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"error","message":"invalid token"}`))
		conn.Close()
		return
	}
	if !rbac.HasPermission(claims.ActorModel, rbac.PermViewAuditLogs) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"error","message":"permission denied"}`))
		conn.Close()
		return
	}

	actorID := claims.ActorID

	h.mu.Lock()
	h.connections[actorID] = append(h.connections[actorID], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[actorID]
		for i, c := range conns {
			if c == conn {
				h.connections[actorID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[actorID]) == 0 {
			delete(h.connections, actorID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
