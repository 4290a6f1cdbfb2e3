package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/minigames/internal/room"
)

// FeedMessage is pushed to SSE and WebSocket subscribers. Room is the public
// state right after the event; it is absent once the room is closed.
type FeedMessage struct {
	Type  string           `json:"type"`
	Event *room.Event      `json:"event,omitempty"`
	Room  *room.PublicRoom `json:"room,omitempty"`
}

const feedSnapshot = "snapshot"

// feedFor builds the message for ev, attaching the current public room.
func feedFor(ctx context.Context, svc *room.Service, ev room.Event) FeedMessage {
	msg := FeedMessage{Type: ev.Type, Event: &ev}
	if ev.Type == room.EventRoomClosed {
		return msg
	}
	if pub, err := svc.PublicRoom(ctx, ev.RoomID); err == nil {
		msg.Room = &pub
	}
	return msg
}

func writeSSE(w io.Writer, msg FeedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
	return err
}

func handleEvents(svc *room.Service, broker *Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := roomID(r)

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		pub, err := svc.PublicRoom(r.Context(), id)
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "internal", "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		writeSSE(w, FeedMessage{Type: feedSnapshot, Room: &pub})
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-ch:
				if err := writeSSE(w, feedFor(r.Context(), svc, ev)); err != nil {
					logger.Debug("sse write failed", "room_id", id, "error", err)
					return
				}
				flusher.Flush()
				if ev.Type == room.EventRoomClosed {
					return
				}
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
