package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/minigames/internal/room"
)

// handleRoomFeed streams the same messages as handleEvents over a WebSocket.
// Client messages are ignored; the connection only carries room updates.
func handleRoomFeed(svc *room.Service, broker *Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := roomID(r)

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		pub, err := svc.PublicRoom(r.Context(), id)
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "room_id", id, "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), time.Hour)
		defer cancel()
		ctx = conn.CloseRead(ctx)

		if err := wsjson.Write(ctx, conn, FeedMessage{Type: feedSnapshot, Room: &pub}); err != nil {
			logger.Debug("websocket write failed", "room_id", id, "error", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket feed ended", "room_id", id, "error", ctx.Err())
				return
			case ev := <-ch:
				if err := wsjson.Write(ctx, conn, feedFor(ctx, svc, ev)); err != nil {
					logger.Debug("websocket write failed", "room_id", id, "error", err)
					return
				}
				if ev.Type == room.EventRoomClosed {
					conn.Close(websocket.StatusNormalClosure, "room closed")
					return
				}
			}
		}
	}
}
