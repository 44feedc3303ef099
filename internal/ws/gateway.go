package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-sync-service/internal/auth"
	"chat-sync-service/internal/models"
	"chat-sync-service/internal/observability"
	"chat-sync-service/internal/routing"
	"chat-sync-service/internal/store"
	"chat-sync-service/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway is the per-connection boundary: it authenticates the acting
// identity, decodes inbound events, invokes the routing engine and
// ships outbound events back onto connections through the hub.
type Gateway struct {
	hub       *Hub
	engine    *routing.Engine
	verifier  *auth.Verifier
	audit     *telemetry.AuditEmitter
	queueSize int
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, engine *routing.Engine, verifier *auth.Verifier, audit *telemetry.AuditEmitter, queueSize int) *Gateway {
	return &Gateway{hub: hub, engine: engine, verifier: verifier, audit: audit, queueSize: queueSize}
}

// Handle upgrades the connection, registers the client and starts the
// pumps.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-sync-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, err := g.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      identity.ID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(identity, conn, info, g.queueSize)

	if displaced := g.hub.Register(client); displaced != nil {
		displaced.Abort()
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.audit.Emit(ctx, "info", fmt.Sprintf("ws connect conn_id=%s", info.ConnID), info.RequestID, &identity.ID)

	g.engine.Connect(identity, info.ConnID)

	go client.writePump()
	go g.readLoop(client)
}

// readLoop processes one connection's inbound events in arrival
// order. On exit it triggers leave exactly once, no matter which path
// detected the disconnect.
func (g *Gateway) readLoop(client *Client) {
	identity := client.Identity()
	info := client.Info()
	var closeReason string

	defer func() {
		client.Abort()
		g.hub.Remove(client)
		// Disconnect keys the leave on this connection's id, so even
		// if a reconnect already replaced the registry entry between
		// the hub removal and here, the new connection stays online.
		g.engine.Disconnect(identity.ID, info.ConnID)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.audit.Emit(context.Background(), "info",
			fmt.Sprintf("ws disconnect conn_id=%s duration_ms=%d reason=%q",
				info.ConnID, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			info.RequestID, &identity.ID)
	}()

	conn := client.conn
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var evt models.InboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			// A connection speaking the wrong protocol is
			// unrecoverable; terminate it alone.
			g.sendError(client, models.NewErrorEvent("bad_payload", "malformed event payload"))
			closeReason = "malformed payload"
			return
		}

		switch evt.Event {
		case models.EventSendMessage:
			g.handleSend(client, identity, evt.Data)
		case models.EventDeleteMessage:
			g.handleDelete(client, identity, evt.Data)
		default:
			g.sendError(client, models.NewErrorEvent("unknown_event", "unknown event type"))
		}
	}
}

func (g *Gateway) handleSend(client *Client, identity models.Identity, data json.RawMessage) {
	var p models.SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		g.sendError(client, models.NewErrorEvent("bad_payload", "malformed send_message payload"))
		return
	}
	msg, err := g.engine.Send(identity, p)
	if err != nil {
		g.sendError(client, errorEvent(err))
		return
	}
	g.audit.Emit(context.Background(), "info",
		fmt.Sprintf("message sent id=%d private=%t", msg.ID, msg.Private),
		client.Info().RequestID, &identity.ID)
}

func (g *Gateway) handleDelete(client *Client, identity models.Identity, data json.RawMessage) {
	var p models.DeleteMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		g.sendError(client, models.NewErrorEvent("bad_payload", "malformed delete_message payload"))
		return
	}
	_, flipped, err := g.engine.Delete(identity, p.MessageID)
	if err != nil {
		g.sendError(client, errorEvent(err))
		return
	}
	if flipped {
		g.audit.Emit(context.Background(), "info",
			fmt.Sprintf("message deleted id=%d", p.MessageID),
			client.Info().RequestID, &identity.ID)
	}
}

// sendError echoes an error event to the acting connection only.
func (g *Gateway) sendError(client *Client, event models.OutboundEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if !client.Enqueue(payload) {
		client.Abort()
	}
}

// errorEvent maps store errors onto wire error codes.
func errorEvent(err error) models.OutboundEvent {
	switch {
	case errors.Is(err, store.ErrEmptyMessage):
		return models.NewErrorEvent("empty_message", "message body and attachment are both empty")
	case errors.Is(err, store.ErrInvalidReply):
		return models.NewErrorEvent("invalid_reply", "reply target does not exist")
	case errors.Is(err, store.ErrMessageNotFound):
		return models.NewErrorEvent("not_found", "message not found")
	case errors.Is(err, store.ErrForbidden):
		return models.NewErrorEvent("forbidden", "not allowed to delete message")
	default:
		return models.NewErrorEvent("internal", "internal error")
	}
}

// authenticate extracts the session token from the Authorization
// header or the token query parameter, the browser fallback.
func (g *Gateway) authenticate(c *gin.Context) (models.Identity, error) {
	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	parts := strings.SplitN(token, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return models.Identity{}, auth.ErrInvalidToken
	}
	return g.verifier.Verify(parts[1])
}
