package room

import "context"

// Repository persists rooms as whole documents.
//
// Save is a compare-and-swap on Room.Version: it succeeds only if the stored
// record still carries the version the caller loaded (or none exists when
// Version is zero), then increments Version on the passed room and refreshes
// the record's expiry. A mismatch yields ErrConflict; a room deleted after it
// was loaded yields ErrNotFound.
type Repository interface {
	Load(ctx context.Context, roomID string) (*Room, error)
	Save(ctx context.Context, r *Room) error
	Delete(ctx context.Context, roomID string) error
}

// Event is published after a room change has been persisted.
type Event struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	Status     Status `json:"status"`
	PlayerName string `json:"playerName,omitempty"`
}

const (
	EventRoomUpdated     = "room_updated"
	EventPlayerJoined    = "player_joined"
	EventResultSubmitted = "result_submitted"
	EventRoomStarted     = "room_started"
	EventRoomEnded       = "room_ended"
	EventRoomRestarted   = "room_restarted"
	EventRoomClosed      = "room_closed"
)

// Notifier receives room events. Publish must not block.
type Notifier interface {
	Publish(roomID string, ev Event)
}
