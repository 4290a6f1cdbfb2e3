package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/playperu/minigames/internal/room"
)

type sseEvent struct {
	name string
	msg  FeedMessage
}

func readSSE(t *testing.T, rd *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev.msg); err != nil {
				t.Fatalf("decoding data: %v", err)
			}
		case line == "" && ev.name != "":
			return ev
		}
	}
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := env.svc.CreateRoom(ctx, room.CreateInput{GameID: room.GameClickCounter})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/rooms/"+created.RoomID+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q, want text/event-stream", got)
	}
	rd := bufio.NewReader(resp.Body)

	first := readSSE(t, rd)
	if first.name != feedSnapshot || first.msg.Room == nil || first.msg.Room.RoomID != created.RoomID {
		t.Fatalf("expected snapshot first, got %+v", first)
	}

	if _, err := env.svc.Join(ctx, created.RoomID, "Ann"); err != nil {
		t.Fatalf("join: %v", err)
	}
	joined := readSSE(t, rd)
	if joined.name != room.EventPlayerJoined || joined.msg.Event.PlayerName != "Ann" {
		t.Fatalf("expected player_joined for Ann, got %+v", joined)
	}
	if joined.msg.Room == nil || joined.msg.Room.PlayerCount != 1 {
		t.Errorf("expected room with 1 player attached, got %+v", joined.msg.Room)
	}

	if err := env.svc.Close(ctx, created.RoomID, created.AdminKey); err != nil {
		t.Fatalf("close: %v", err)
	}
	closed := readSSE(t, rd)
	if closed.name != room.EventRoomClosed || closed.msg.Room != nil {
		t.Fatalf("expected room_closed without room, got %+v", closed)
	}
}

func TestEventsUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/rooms/missing/events", nil)
	expectStatus(t, w, http.StatusNotFound)
	if n := env.broker.Subscribers("missing"); n != 0 {
		t.Errorf("expected subscription to be dropped, got %d", n)
	}
}
