package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/minigames/internal/handler/health"
	"github.com/playperu/minigames/internal/room"
)

func addRoutes(r chi.Router, logger *slog.Logger, svc *room.Service, broker *Broker, checks map[string]health.Checker) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())
	r.Mount("/healthz", health.NewHandler(logger, checks).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Use(noStore)
		r.Get("/games", handleListGames(svc))
		r.With(limitBody).Post("/rooms", handleCreateRoom(svc, logger))

		r.Route("/rooms/{roomId}", func(r chi.Router) {
			// Public reads and live feeds.
			r.Get("/", handleGetRoom(svc, logger))
			r.Get("/leaderboard", handleLeaderboard(svc, logger))
			r.Get("/events", handleEvents(svc, broker, logger))
			r.Get("/ws", handleRoomFeed(svc, broker, logger))

			r.Group(func(r chi.Router) {
				r.Use(limitBody)

				// Admin, authenticated by the room's admin key.
				r.Post("/configure", handleConfigureRoom(svc, logger))
				r.Post("/start", handleAdminAction(logger, svc.Start))
				r.Post("/end", handleAdminAction(logger, svc.End))
				r.Post("/restart", handleAdminAction(logger, svc.Restart))
				r.Post("/close", handleCloseRoom(svc, logger))

				// Players, authenticated by the token returned from join.
				r.Post("/join", handleJoin(svc, logger))
				r.Post("/me", handleMe(svc, logger))
				r.Post("/result", handleSubmitResult(svc, logger))
			})
		})
	})
}
