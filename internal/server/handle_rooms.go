package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/playperu/minigames/internal/room"
)

// GamesResponse lists the mini-games a room can be created for.
type GamesResponse struct {
	ServerNowMs int64       `json:"serverNowMs"`
	Games       []room.Game `json:"games"`
}

// AdminRequest is the optional body of admin lifecycle calls. The key may
// also be sent in the X-Admin-Key header.
type AdminRequest struct {
	AdminKey string `json:"adminKey,omitempty"`
}

type ConfigureRequest struct {
	AdminKey    string   `json:"adminKey,omitempty"`
	DurationSec *float64 `json:"durationSec,omitempty"`
	StageImages []string `json:"stageImages,omitempty"`
}

type ClosedResponse struct {
	ServerNowMs int64  `json:"serverNowMs"`
	RoomID      string `json:"roomId"`
	Closed      bool   `json:"closed"`
}

func handleListGames(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GamesResponse{ServerNowMs: svc.NowMs(), Games: room.Games()})
	}
}

func handleCreateRoom(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req room.CreateInput
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		created, err := svc.CreateRoom(r.Context(), req)
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// handleGetRoom serves the public room. With an admin key it records the
// admin's presence and returns the admin view instead.
func handleGetRoom(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := adminKey(r, ""); key != "" {
			view, err := svc.Touch(r.Context(), roomID(r), key)
			if err != nil {
				writeRoomError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, view)
			return
		}

		pub, err := svc.PublicRoom(r.Context(), roomID(r))
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, pub)
	}
}

func handleConfigureRoom(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfigureRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		snap, err := svc.Configure(r.Context(), roomID(r), adminKey(r, req.AdminKey), room.ConfigureInput{
			DurationSec: req.DurationSec,
			StageImages: req.StageImages,
		})
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// lifecycleFunc is one of Service.Start, End or Restart.
type lifecycleFunc func(ctx context.Context, roomID, adminKey string) (room.Snapshot, error)

// handleAdminAction runs a lifecycle transition and returns the new snapshot.
func handleAdminAction(logger *slog.Logger, action lifecycleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		snap, err := action(r.Context(), roomID(r), adminKey(r, req.AdminKey))
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleCloseRoom(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		id := roomID(r)
		if err := svc.Close(r.Context(), id, adminKey(r, req.AdminKey)); err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ClosedResponse{ServerNowMs: svc.NowMs(), RoomID: id, Closed: true})
	}
}
