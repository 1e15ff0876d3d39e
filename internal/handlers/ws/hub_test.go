package ws

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// fakeConn records frames written to it in place of a real websocket.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) lastFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func TestRegisterJoinsPersonalRoom(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Register("conn-1", 7, "alice", conn, false)
	defer hub.Unregister("conn-1")

	if !hub.InRoom("conn-1", UserRoom(7)) {
		t.Errorf("connection not in personal room after register")
	}
	if hub.Count() != 1 {
		t.Errorf("Count() = %d, want 1", hub.Count())
	}
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	hub.Register("conn-1", 7, "alice", &fakeConn{}, false)
	hub.Register("conn-2", 7, "alice", &fakeConn{}, false)
	defer hub.Unregister("conn-1")
	defer hub.Unregister("conn-2")

	ids := hub.RoomConnIDs(UserRoom(7))
	if len(ids) != 2 {
		t.Errorf("personal room has %d connections, want 2", len(ids))
	}

	hub.Unregister("conn-1")
	ids = hub.RoomConnIDs(UserRoom(7))
	if len(ids) != 1 || ids[0] != "conn-2" {
		t.Errorf("after one disconnect room = %v, want [conn-2]", ids)
	}
}

func TestJoinAndLeaveRoom(t *testing.T) {
	hub := NewHub()
	hub.Register("conn-1", 7, "alice", &fakeConn{}, false)
	defer hub.Unregister("conn-1")

	room := ChatRoom(42)
	hub.JoinRoom("conn-1", room)
	if !hub.InRoom("conn-1", room) {
		t.Errorf("connection not in chat room after join")
	}

	hub.LeaveRoom("conn-1", room)
	if hub.InRoom("conn-1", room) {
		t.Errorf("connection still in chat room after leave")
	}
	if len(hub.RoomConnIDs(room)) != 0 {
		t.Errorf("room not empty after last member left")
	}
}

func TestJoinRoomUnknownConnIsIgnored(t *testing.T) {
	hub := NewHub()
	hub.JoinRoom("ghost", ChatRoom(1))
	if hub.InRoom("ghost", ChatRoom(1)) {
		t.Errorf("unregistered connection joined a room")
	}
}

func TestUnregisterCleansAllRooms(t *testing.T) {
	hub := NewHub()
	hub.Register("conn-1", 7, "alice", &fakeConn{}, false)
	hub.JoinRoom("conn-1", ChatRoom(1))
	hub.JoinRoom("conn-1", ChatRoom(2))

	hub.Unregister("conn-1")

	for _, room := range []string{UserRoom(7), ChatRoom(1), ChatRoom(2)} {
		if len(hub.RoomConnIDs(room)) != 0 {
			t.Errorf("room %s still has members after unregister", room)
		}
	}
	if hub.Count() != 0 {
		t.Errorf("Count() = %d after unregister, want 0", hub.Count())
	}
}

func TestBroadcastToRoom(t *testing.T) {
	hub := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	connC := &fakeConn{}
	hub.Register("conn-a", 1, "alice", connA, false)
	hub.Register("conn-b", 2, "bob", connB, false)
	hub.Register("conn-c", 3, "carol", connC, false)
	defer hub.Unregister("conn-a")
	defer hub.Unregister("conn-b")
	defer hub.Unregister("conn-c")

	room := ChatRoom(9)
	hub.JoinRoom("conn-a", room)
	hub.JoinRoom("conn-b", room)

	hub.BroadcastToRoom(room, Event{Type: EvTyping, Payload: TypingPayload{ChatID: 9, UserID: 1, Username: "alice", IsTyping: true}})

	if connA.frameCount() != 1 || connB.frameCount() != 1 {
		t.Errorf("room members got %d/%d frames, want 1/1", connA.frameCount(), connB.frameCount())
	}
	if connC.frameCount() != 0 {
		t.Errorf("non-member received a broadcast")
	}

	var event struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(connA.lastFrame(), &event); err != nil {
		t.Fatalf("broadcast frame is not JSON: %v", err)
	}
	if event.Type != EvTyping {
		t.Errorf("frame type = %q, want %q", event.Type, EvTyping)
	}
}

func TestBroadcastToRoomExcept(t *testing.T) {
	hub := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	hub.Register("conn-a", 1, "alice", connA, false)
	hub.Register("conn-b", 2, "bob", connB, false)
	defer hub.Unregister("conn-a")
	defer hub.Unregister("conn-b")

	room := ChatRoom(9)
	hub.JoinRoom("conn-a", room)
	hub.JoinRoom("conn-b", room)

	hub.BroadcastToRoomExcept(room, "conn-a", Event{Type: EvTyping})

	if connA.frameCount() != 0 {
		t.Errorf("excluded connection received the broadcast")
	}
	if connB.frameCount() != 1 {
		t.Errorf("other member got %d frames, want 1", connB.frameCount())
	}
}

func TestSendToConn(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register("conn-1", 7, "alice", conn, false)
	defer hub.Unregister("conn-1")

	if err := hub.SendToConn("conn-1", Event{Type: "pong"}); err != nil {
		t.Fatalf("SendToConn error: %v", err)
	}
	if conn.frameCount() != 1 {
		t.Errorf("got %d frames, want 1", conn.frameCount())
	}

	if err := hub.SendToConn("ghost", Event{Type: "pong"}); err == nil {
		t.Errorf("SendToConn to unknown connection succeeded")
	}
}

func TestWriteCompressesLargeFrames(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register("conn-1", 7, "alice", conn, true)
	defer hub.Unregister("conn-1")

	payload := bytes.Repeat([]byte("a"), 2048)
	if err := hub.SendToConn("conn-1", Event{Type: EvNewMessage, Payload: string(payload)}); err != nil {
		t.Fatalf("SendToConn error: %v", err)
	}

	frame := conn.lastFrame()
	if len(frame) >= 2048 {
		t.Errorf("large frame not compressed: %d bytes", len(frame))
	}

	decompressed, err := DecompressMessage(frame)
	if err != nil {
		t.Fatalf("DecompressMessage error: %v", err)
	}
	var event struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(decompressed, &event); err != nil {
		t.Fatalf("decompressed frame is not JSON: %v", err)
	}
	if event.Type != EvNewMessage {
		t.Errorf("frame type = %q, want %q", event.Type, EvNewMessage)
	}
}
