package handlers

import (
	"kawanchat/server/internal/chat"
	"kawanchat/server/internal/friends"
	"kawanchat/server/internal/presence"
	ws "kawanchat/server/internal/websocket"

	"go.uber.org/zap"
)

// Handler serves the HTTP and websocket API
type Handler struct {
	friends    *friends.Ledger
	chat       *chat.Service
	presence   *presence.Tracker
	hub        *ws.Hub
	dispatcher ws.InboundHandler
	log        *zap.Logger
}

// New builds the handlers. The ledger, chat service and tracker back the
// REST routes; the hub and dispatcher serve the websocket.
func New(ledger *friends.Ledger, chatService *chat.Service, tracker *presence.Tracker, hub *ws.Hub, dispatcher ws.InboundHandler, log *zap.Logger) *Handler {
	return &Handler{
		friends:    ledger,
		chat:       chatService,
		presence:   tracker,
		hub:        hub,
		dispatcher: dispatcher,
		log:        log,
	}
}
