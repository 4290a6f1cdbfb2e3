package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/minigames/internal/room"
)

func TestRoomFeed(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := env.svc.CreateRoom(ctx, room.CreateInput{GameID: room.GameClickCounter})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	wsURL := "ws" + srv.URL[len("http"):] + "/api/rooms/" + created.RoomID + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var msg FeedMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Type != feedSnapshot || msg.Room == nil || msg.Room.Status != room.StatusLobby {
		t.Fatalf("expected lobby snapshot, got %+v", msg)
	}

	if _, err := env.svc.Join(ctx, created.RoomID, "Bảo"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := env.svc.Start(ctx, created.RoomID, created.AdminKey); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, want := range []string{room.EventPlayerJoined, room.EventRoomStarted} {
		msg = FeedMessage{}
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		if msg.Type != want {
			t.Errorf("got %q, want %q", msg.Type, want)
		}
	}
	if msg.Room == nil || msg.Room.Status != room.StatusRunning {
		t.Errorf("expected running room after start, got %+v", msg.Room)
	}

	if err := env.svc.Close(ctx, created.RoomID, created.AdminKey); err != nil {
		t.Fatalf("close: %v", err)
	}
	msg = FeedMessage{}
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read close: %v", err)
	}
	if msg.Type != room.EventRoomClosed {
		t.Errorf("got %q, want %q", msg.Type, room.EventRoomClosed)
	}

	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Errorf("expected normal closure, got %v", err)
	}
}
