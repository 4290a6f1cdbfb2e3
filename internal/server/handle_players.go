package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/minigames/internal/room"
)

type JoinRequest struct {
	Name string `json:"name"`
}

// PlayerRequest carries the credentials handed out by join.
type PlayerRequest struct {
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

type ResultRequest struct {
	PlayerID string          `json:"playerId"`
	Token    string          `json:"token"`
	Result   room.Submission `json:"result"`
}

func handleJoin(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		joined, err := svc.Join(r.Context(), roomID(r), req.Name)
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, joined)
	}
}

func handleMe(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		view, err := svc.PlayerStage(r.Context(), roomID(r), req.PlayerID, req.Token)
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleSubmitResult(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResultRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}

		snap, err := svc.SubmitResult(r.Context(), roomID(r), req.PlayerID, req.Token, req.Result)
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleLeaderboard(svc *room.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, err := svc.Leaderboard(r.Context(), roomID(r))
		if err != nil {
			writeRoomError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, lb)
	}
}
