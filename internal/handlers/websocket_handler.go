package handlers

import (
	"context"
	"log"
	"time"

	"github.com/chatwave/chatwave-backend/internal/handlers/ws"
	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/presence"
	"github.com/chatwave/chatwave-backend/internal/service"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const pongTimeout = 90 * time.Second

type WebSocketHandler struct {
	chatService    *service.ChatService
	messageService *service.MessageService
	statusService  *service.StatusService
	userService    *service.UserService
	presence       presence.Store
	hub            *ws.Hub
}

func NewWebSocketHandler(chatService *service.ChatService, messageService *service.MessageService, statusService *service.StatusService, userService *service.UserService, presenceStore presence.Store) *WebSocketHandler {
	return &WebSocketHandler{
		chatService:    chatService,
		messageService: messageService,
		statusService:  statusService,
		userService:    userService,
		presence:       presenceStore,
		hub:            ws.NewHub(),
	}
}

// GetHub returns the hub instance (useful for sending events from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

// HandleWebSocket drives one connection through its lifecycle: register
// presence, join rooms, reconcile missed deliveries, process inbound events,
// and run the disconnect sequence when the transport closes.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	username, _ := c.Locals("username").(string)
	ctx := context.Background()

	// The token was already verified before the upgrade; an unknown user is
	// still rejected here so no partial state is ever registered for one.
	if _, err := h.userService.GetProfile(userID); err != nil {
		log.Printf("ws: rejecting connection for unknown user_id=%d", userID)
		c.Close()
		return
	}

	connID := uuid.NewString()
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	h.hub.Register(connID, userID, username, c, supportsGzip)
	c.SetPongHandler(func(string) error {
		h.hub.MarkPong(connID)
		return c.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	c.SetReadDeadline(time.Now().Add(pongTimeout))

	defer h.runDisconnectSequence(ctx, connID, userID, username)

	h.runJoinedTransition(ctx, connID, userID, username)

	msgCtx := &ws.MessageContext{
		Ctx:            ctx,
		ConnID:         connID,
		UserID:         userID,
		Username:       username,
		Hub:            h.hub,
		ChatService:    h.chatService,
		MessageService: h.messageService,
		StatusService:  h.statusService,
		Presence:       h.presence,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("ws: read ended for conn %s: %v", connID, err)
			break
		}

		// Decompress if binary message (gzip compressed)
		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("ws: decompress failed conn %s: %v", connID, err)
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("ws: bad frame from conn %s: %v", connID, err)
			continue
		}

		if err := msg.Process(msgCtx); err != nil {
			log.Printf("ws: processing %s from conn %s failed: %v", msg.GetType(), connID, err)
		}
	}
}

// runJoinedTransition performs the Authenticated→Joined steps. Store errors
// here degrade the catch-up rather than tearing the connection down.
func (h *WebSocketHandler) runJoinedTransition(ctx context.Context, connID string, userID uint, username string) {
	// Presence reconciliation: overwrite the stored set with the transport's
	// live connections for this user, then read the resulting cardinality.
	// This must happen before the first-connection decision.
	liveConns := h.hub.RoomConnIDs(ws.UserRoom(userID))
	openCount, err := h.presence.PruneAndSync(ctx, userID, liveConns)
	if err != nil {
		log.Printf("ws: presence sync failed user_id=%d: %v", userID, err)
		if regErr := h.presence.RegisterConnection(ctx, userID, connID); regErr != nil {
			log.Printf("ws: presence register fallback failed user_id=%d: %v", userID, regErr)
		}
		openCount, _ = h.presence.CountLive(ctx, userID)
	}

	chats, err := h.chatService.ListChatsForUser(userID)
	if err != nil {
		log.Printf("ws: chat load failed user_id=%d, proceeding without catch-up: %v", userID, err)
		return
	}

	for i := range chats {
		h.hub.JoinRoom(connID, ws.ChatRoom(chats[i].ID))
	}

	h.sendPresenceSnapshot(ctx, connID, userID, chats)

	if openCount == 1 {
		for i := range chats {
			room := ws.ChatRoom(chats[i].ID)
			h.hub.BroadcastToRoom(room, ws.OnlineEvent(chats[i].ID, userID, username))
			h.hub.BroadcastToRoom(room, ws.Event{Type: ws.EvUserConnectedToChat, Payload: ws.ChatMembershipPayload{
				ChatID:   chats[i].ID,
				UserID:   userID,
				Username: username,
			}})
		}
		log.Printf("ws: user_id=%d is now online in %d chats", userID, len(chats))
	}

	// Delivery catch-up runs on every connect, not only the first: a second
	// device must also converge messages it never saw.
	for i := range chats {
		updates, err := h.statusService.DeliveryCatchUp(&chats[i], userID)
		if err != nil {
			log.Printf("ws: delivery catch-up failed chat_id=%d user_id=%d: %v", chats[i].ID, userID, err)
			continue
		}
		room := ws.ChatRoom(chats[i].ID)
		for _, update := range updates {
			h.hub.BroadcastToRoom(room, ws.DeliveryUpdateEvent(update.ChatID, update.MessageID, update.UserID, update.DeliveredToAll))
		}
	}
}

// sendPresenceSnapshot tells the new connection whether each peer is online,
// so the client can render presence without waiting for transitions.
func (h *WebSocketHandler) sendPresenceSnapshot(ctx context.Context, connID string, userID uint, chats []models.Chat) {
	seen := make(map[uint]bool)
	for i := range chats {
		for _, p := range chats[i].Participants {
			if p.ID == userID || seen[p.ID] {
				continue
			}
			seen[p.ID] = true

			live, err := h.presence.CountLive(ctx, p.ID)
			if err != nil {
				log.Printf("ws: presence lookup failed user_id=%d: %v", p.ID, err)
				continue
			}

			var event ws.Event
			if live > 0 {
				event = ws.OnlineEvent(0, p.ID, p.Username)
			} else {
				lastSeen, err := h.presence.LastSeen(ctx, p.ID)
				if err != nil || lastSeen == nil {
					lastSeen = p.LastSeen
				}
				event = ws.OfflineEvent(0, p.ID, p.Username, lastSeen)
			}
			if err := h.hub.SendToConn(connID, event); err != nil {
				return
			}
		}
	}
}

// runDisconnectSequence deregisters presence and, when the user's last
// connection closed, broadcasts offline status and sweeps typing indicators.
func (h *WebSocketHandler) runDisconnectSequence(ctx context.Context, connID string, userID uint, username string) {
	h.hub.Unregister(connID)

	_, wentOffline, err := h.presence.RemoveConnection(ctx, userID, connID)
	if err != nil {
		log.Printf("ws: presence removal failed user_id=%d conn=%s: %v", userID, connID, err)
		return
	}
	if !wentOffline {
		return
	}

	lastSeen := time.Now().UTC()
	if err := h.userService.RecordLastSeen(userID, lastSeen); err != nil {
		log.Printf("ws: last-seen persist failed user_id=%d: %v", userID, err)
	}

	chats, err := h.chatService.ListChatsForUser(userID)
	if err != nil {
		log.Printf("ws: chat load failed during disconnect user_id=%d: %v", userID, err)
		return
	}

	chatIDs := make([]uint, 0, len(chats))
	for i := range chats {
		chatIDs = append(chatIDs, chats[i].ID)
		h.hub.BroadcastToRoom(ws.ChatRoom(chats[i].ID), ws.OfflineEvent(chats[i].ID, userID, username, &lastSeen))
	}
	log.Printf("ws: user_id=%d is now offline in %d chats", userID, len(chats))

	cleared, err := h.presence.ClearAllTyping(ctx, userID, chatIDs)
	if err != nil {
		log.Printf("ws: typing sweep failed user_id=%d: %v", userID, err)
	}
	for _, chatID := range cleared {
		h.hub.BroadcastToRoom(ws.ChatRoom(chatID), ws.TypingEvent(chatID, userID, username, false))
	}
}
