package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playperu/minigames/internal/room"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_000_000)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	r := &room.Room{RoomID: "a", GameID: room.GameClickCounter, Status: room.StatusLobby, DurationSec: 60, StageCount: 1}
	if err := m.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := m.Load(ctx, "a"); err != nil {
		t.Fatalf("expected room before ttl, got %v", err)
	}
	// Saving refreshes the expiry.
	if err := m.Save(ctx, r); err != nil {
		t.Fatalf("second save: %v", err)
	}
	now = now.Add(59 * time.Second)
	if _, err := m.Load(ctx, "a"); err != nil {
		t.Fatalf("expected refreshed room, got %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := m.Load(ctx, "a"); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("expected ErrNotFound after ttl, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty store, got %d", m.Len())
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	r := &room.Room{RoomID: "a", GameID: room.GameClickCounter, Status: room.StatusLobby, Players: []room.Player{{PlayerID: "p", Name: "Ann"}}}
	if err := m.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	r.Players[0].Name = "changed"

	got, _ := m.Load(ctx, "a")
	if got.Players[0].Name != "Ann" {
		t.Errorf("store shares memory with caller: %q", got.Players[0].Name)
	}
}
