package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Conn is the subset of the websocket connection the hub writes to. Narrowed
// to an interface so hub tests can run against fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ClientConnection wraps one WebSocket connection with metadata. A user may
// hold any number of these at once, one per device or tab.
type ClientConnection struct {
	ConnID       string
	UserID       uint
	Username     string
	Conn         Conn
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}

	writeMu sync.Mutex
}

// UserRoom is the personal broadcast group spanning all of one user's
// connections.
func UserRoom(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

// ChatRoom is the broadcast group for one chat.
func ChatRoom(chatID uint) string {
	return fmt.Sprintf("chat-%d", chatID)
}

// Hub manages all active WebSocket connections and their room memberships.
type Hub struct {
	clients      map[string]*ClientConnection
	rooms        map[string]map[string]bool // room -> connIDs
	clientRooms  map[string]map[string]bool // connID -> rooms
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[string]*ClientConnection),
		rooms:        make(map[string]map[string]bool),
		clientRooms:  make(map[string]map[string]bool),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring and joins it to
// the user's personal room.
func (h *Hub) Register(connID string, userID uint, username string, conn Conn, supportsGzip bool) *ClientConnection {
	clientConn := &ClientConnection{
		ConnID:       connID,
		UserID:       userID,
		Username:     username,
		Conn:         conn,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	h.clientsMux.Lock()
	h.clients[connID] = clientConn
	h.clientsMux.Unlock()

	h.JoinRoom(connID, UserRoom(userID))

	go h.pingRoutine(clientConn)

	log.Printf("conn %s registered user_id=%d (total: %d, gzip: %v)", connID, userID, h.Count(), supportsGzip)
	return clientConn
}

// MarkPong records a pong from the client, used by the health checker.
func (h *Hub) MarkPong(connID string) {
	h.clientsMux.Lock()
	if client, exists := h.clients[connID]; exists {
		client.LastPong = time.Now()
	}
	h.clientsMux.Unlock()
}

// Unregister removes a client connection and all its room memberships.
func (h *Hub) Unregister(connID string) {
	h.clientsMux.Lock()
	client, exists := h.clients[connID]
	if exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		select {
		case <-client.CloseChan:
		default:
			close(client.CloseChan)
		}
		delete(h.clients, connID)
	}
	for room := range h.clientRooms[connID] {
		delete(h.rooms[room], connID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clientRooms, connID)
	count := len(h.clients)
	h.clientsMux.Unlock()

	if exists {
		log.Printf("conn %s unregistered user_id=%d (total: %d)", connID, client.UserID, count)
	}
}

// JoinRoom adds the connection to a broadcast room.
func (h *Hub) JoinRoom(connID, room string) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	if _, exists := h.clients[connID]; !exists {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][connID] = true
	if h.clientRooms[connID] == nil {
		h.clientRooms[connID] = make(map[string]bool)
	}
	h.clientRooms[connID][room] = true
}

// LeaveRoom removes the connection from a broadcast room.
func (h *Hub) LeaveRoom(connID, room string) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	delete(h.rooms[room], connID)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	delete(h.clientRooms[connID], room)
}

// InRoom reports whether the connection is a member of the room.
func (h *Hub) InRoom(connID, room string) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return h.clientRooms[connID][room]
}

// RoomConnIDs returns the live connection IDs in a room. For a personal room
// this is the transport layer's authoritative answer to "how many live
// connections does this user have", which feeds presence reconciliation.
func (h *Hub) RoomConnIDs(room string) []string {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	members := h.rooms[room]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// SendToConn sends data to one specific connection.
func (h *Hub) SendToConn(connID string, data interface{}) error {
	h.clientsMux.RLock()
	clientConn, exists := h.clients[connID]
	h.clientsMux.RUnlock()

	if !exists {
		return fmt.Errorf("connection %s not registered", connID)
	}
	return h.write(clientConn, data)
}

// BroadcastToRoom sends data to every connection in the room.
func (h *Hub) BroadcastToRoom(room string, data interface{}) {
	h.broadcast(room, "", data)
}

// BroadcastToRoomExcept sends data to every connection in the room except
// one, used so a typing user does not receive their own indicator.
func (h *Hub) BroadcastToRoomExcept(room, exceptConnID string, data interface{}) {
	h.broadcast(room, exceptConnID, data)
}

func (h *Hub) broadcast(room, exceptConnID string, data interface{}) {
	h.clientsMux.RLock()
	targets := make([]*ClientConnection, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		if connID == exceptConnID {
			continue
		}
		if client, exists := h.clients[connID]; exists {
			targets = append(targets, client)
		}
	}
	h.clientsMux.RUnlock()

	for _, client := range targets {
		if err := h.write(client, data); err != nil {
			log.Printf("broadcast to conn %s failed: %v", client.ConnID, err)
			h.Unregister(client.ConnID)
		}
	}
}

func (h *Hub) write(client *ClientConnection, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	// Compress if supported and beneficial (> 512 bytes)
	finalData := jsonData
	frameType := websocket.TextMessage
	if client.SupportsGzip && len(jsonData) > 512 {
		if compressed, err := CompressMessage(jsonData); err == nil && len(compressed) < len(jsonData) {
			finalData = compressed
			frameType = websocket.BinaryMessage
		}
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	return client.Conn.WriteMessage(frameType, finalData)
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// pingRoutine sends periodic ping messages to keep the connection alive.
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ping routine recovered for conn %s: %v", client.ConnID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			client.writeMu.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			client.writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed for conn %s: %v", client.ConnID, err)
				h.Unregister(client.ConnID)
				return
			}
		}
	}
}

// connectionHealthChecker removes connections that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.clientsMux.RLock()
		dead := make([]string, 0)
		now := time.Now()
		for connID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				dead = append(dead, connID)
			}
		}
		h.clientsMux.RUnlock()

		for _, connID := range dead {
			log.Printf("removing dead conn %s (no pong received)", connID)
			h.Unregister(connID)
		}
	}
}
