package websocket

import (
	"context"
	"encoding/json"
	"time"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/models"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024

	// inbound frames per second, with a small burst for reconnect catch-up
	inboundRate  = 10
	inboundBurst = 20
)

// InboundHandler processes frames a client sends
type InboundHandler interface {
	Handle(ctx context.Context, c *Client, msg IncomingMessage)
}

// Client represents one WebSocket session of a user
type Client struct {
	ID   string // Connection ID
	User models.User
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte

	handler InboundHandler
	limiter *rate.Limiter
}

// NewClient creates a new WebSocket client
func NewClient(user models.User, conn *websocket.Conn, hub *Hub, handler InboundHandler) *Client {
	return &Client{
		ID:      uuid.NewString(),
		User:    user,
		Conn:    conn,
		Hub:     hub,
		Send:    make(chan []byte, 256),
		handler: handler,
		limiter: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read error", zap.String("conn_id", c.ID), zap.Error(err))
			}
			break
		}

		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.ReplyError("", apperror.InvalidArg("INVALID_FRAME", "frame is not valid JSON"))
			continue
		}

		if !c.limiter.Allow() {
			c.ReplyError(incoming.Ref, apperror.New(apperror.CodeUnavailable, "RATE_LIMITED", "too many messages, slow down"))
			continue
		}

		if c.handler != nil {
			c.handler.Handle(ctx, c, incoming)
		}
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.log.Debug("websocket write error", zap.String("conn_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Reply sends a message to this session only
func (c *Client) Reply(msg WSMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.Hub.sendToClient(c, msg)
}

// ReplyAck confirms the frame identified by ref
func (c *Client) ReplyAck(ref string, data interface{}) {
	c.Reply(WSMessage{Type: EventAck, Payload: AckPayload{Ref: ref, Data: data}})
}

// ReplyError reports err for the frame identified by ref
func (c *Client) ReplyError(ref string, err error) {
	c.Reply(WSMessage{Type: EventError, Payload: ErrorPayload{
		Ref:     ref,
		Code:    string(apperror.CodeOf(err)),
		Reason:  apperror.ReasonOf(err),
		Message: apperror.MessageOf(err),
	}})
}
