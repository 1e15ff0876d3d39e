// Package presence tracks which users currently have live connections and
// which users are typing in which chats. Backed by redis so every server
// process observes one truth; an in-memory store backs single-process
// deployments and tests.
package presence

import (
	"context"
	"time"
)

// TypingTTL bounds how long a typing indicator survives without a refresh,
// so cleanup is self-healing even when an explicit stop event is lost.
const TypingTTL = 10 * time.Second

// Store is the shared presence state mutated by concurrent connection
// handlers. Implementations must make every operation atomic; callers never
// hold a lock across a Store call.
type Store interface {
	// RegisterConnection adds connID to the user's live set.
	RegisterConnection(ctx context.Context, userID uint, connID string) error

	// PruneAndSync overwrites the user's live set with exactly the connection
	// IDs the transport currently reports, returning the new cardinality.
	// Running it on every connect self-heals drift from missed disconnects.
	PruneAndSync(ctx context.Context, userID uint, liveConnIDs []string) (int64, error)

	// CountLive returns the number of live connections for the user.
	CountLive(ctx context.Context, userID uint) (int64, error)

	// RemoveConnection removes connID from the live set. When the set becomes
	// empty it records the last-seen timestamp and reports wentOffline.
	RemoveConnection(ctx context.Context, userID uint, connID string) (remaining int64, wentOffline bool, err error)

	// LastSeen returns the recorded last-seen time, or nil if none.
	LastSeen(ctx context.Context, userID uint) (*time.Time, error)

	// SetTyping marks the user as typing in the chat for TypingTTL.
	SetTyping(ctx context.Context, chatID, userID uint, username string) error

	// ClearTyping removes the indicator, reporting whether it was present.
	ClearTyping(ctx context.Context, chatID, userID uint) (bool, error)

	// ClearAllTyping sweeps the user's indicators across the given chats and
	// returns the chat IDs that actually held one.
	ClearAllTyping(ctx context.Context, userID uint, chatIDs []uint) ([]uint, error)
}
