package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/loadhaul/backend/internal/auth"
	"github.com/loadhaul/backend/internal/config"
	"github.com/loadhaul/backend/internal/events"
	"go.uber.org/zap"
)

// WSHub fans escrow lifecycle events out to connected clients. The UI uses
// this to flip shipment cards (funded, in transit, released) without polling.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn // account -> conns
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[string][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamEscrow, func(event events.Event) {
		h.broadcast(event)
	})
}

// broadcast delivers an event to its escrow's participants only. Events carry
// escrow ids and payout amounts; an authenticated session alone must not see
// other parties' traffic.
func (h *WSHub) broadcast(event events.Event) {
	accounts := eventRecipients(event)
	if len(accounts) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, account := range accounts {
		for _, conn := range h.connections[account] {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

// eventRecipients extracts the participant accounts from an event payload.
// Events arrive JSON-decoded off redis, so the list is []any; events with no
// participant list address nobody.
func eventRecipients(event events.Event) []string {
	raw, ok := event.Payload["participants"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		accounts := make([]string, 0, len(v))
		for _, item := range v {
			if account, ok := item.(string); ok && account != "" {
				accounts = append(accounts, account)
			}
		}
		return accounts
	default:
		return nil
	}
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

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	account := claims.Account

	h.mu.Lock()
	h.connections[account] = append(h.connections[account], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[account]
		for i, c := range conns {
			if c == conn {
				h.connections[account] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[account]) == 0 {
			delete(h.connections, account)
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
