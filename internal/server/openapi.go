package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/minigames/internal/room"
)

const apiTitle = "Minigames API"

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

type roomPath struct {
	RoomID string `path:"roomId"`
}

type getRoomRequest struct {
	RoomID   string `path:"roomId"`
	AdminKey string `header:"X-Admin-Key" description:"When present and valid, the admin view is returned and the admin is marked present."`
}

type configureOperation struct {
	RoomID   string `path:"roomId"`
	AdminKey string `header:"X-Admin-Key" description:"Admin key returned by room creation. May also be sent as adminKey in the body."`
	ConfigureRequest
}

type adminOperation struct {
	RoomID   string `path:"roomId"`
	AdminKey string `header:"X-Admin-Key" description:"Admin key returned by room creation. May also be sent as adminKey in the body."`
	AdminRequest
}

type joinOperation struct {
	RoomID string `path:"roomId"`
	JoinRequest
}

type playerOperation struct {
	RoomID string `path:"roomId"`
	PlayerRequest
}

type resultOperation struct {
	RoomID string `path:"roomId"`
	ResultRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = apiTitle
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for party mini-game rooms. Every room response carries serverNowMs for clock-skew correction.")

	errs := func(oc openapi.OperationContext, statuses ...int) {
		for _, s := range statuses {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(s))
		}
	}

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the room store.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	listGames.SetSummary("List games")
	listGames.SetDescription("Returns the mini-games a room can be created for.")
	listGames.AddRespStructure(GamesResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// POST /api/rooms
	createRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms")
	createRoom.SetSummary("Create room")
	createRoom.SetDescription("Opens a lobby. The admin key is returned only here.")
	createRoom.AddReqStructure(room.CreateInput{})
	createRoom.AddRespStructure(room.Created{}, openapi.WithHTTPStatus(http.StatusCreated))
	errs(createRoom, http.StatusBadRequest)
	_ = r.AddOperation(createRoom)

	// GET /api/rooms/{roomId}
	getRoom, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{roomId}")
	getRoom.SetSummary("Get room")
	getRoom.SetDescription("Public state and roster. With a valid admin key, the admin view including results.")
	getRoom.AddReqStructure(getRoomRequest{})
	getRoom.AddRespStructure(room.PublicRoom{}, openapi.WithHTTPStatus(http.StatusOK))
	errs(getRoom, http.StatusForbidden, http.StatusNotFound)
	_ = r.AddOperation(getRoom)

	// POST /api/rooms/{roomId}/configure
	configure, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomId}/configure")
	configure.SetSummary("Configure room")
	configure.SetDescription("Changes duration and stage images. Lobby only.")
	configure.AddReqStructure(configureOperation{})
	configure.AddRespStructure(room.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	errs(configure, http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)
	_ = r.AddOperation(configure)

	for _, op := range []struct{ path, summary, desc string }{
		{"/api/rooms/{roomId}/start", "Start round", "Moves a lobby to running and opens stage 0 for every player."},
		{"/api/rooms/{roomId}/end", "End round", "Ends a running round now. Ending an ended room changes nothing."},
		{"/api/rooms/{roomId}/restart", "Restart room", "Returns the room to the lobby, keeping players and clearing results."},
	} {
		oc, _ := r.NewOperationContext(http.MethodPost, op.path)
		oc.SetSummary(op.summary)
		oc.SetDescription(op.desc)
		oc.AddReqStructure(adminOperation{})
		oc.AddRespStructure(room.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		errs(oc, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)
		_ = r.AddOperation(oc)
	}

	// POST /api/rooms/{roomId}/close
	closeRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomId}/close")
	closeRoom.SetSummary("Close room")
	closeRoom.SetDescription("Deletes the room and ends every live feed.")
	closeRoom.AddReqStructure(adminOperation{})
	closeRoom.AddRespStructure(ClosedResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	errs(closeRoom, http.StatusForbidden, http.StatusNotFound)
	_ = r.AddOperation(closeRoom)

	// POST /api/rooms/{roomId}/join
	join, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomId}/join")
	join.SetSummary("Join room")
	join.SetDescription("Adds a player. The player token is returned only here.")
	join.AddReqStructure(joinOperation{})
	join.AddRespStructure(room.Joined{}, openapi.WithHTTPStatus(http.StatusCreated))
	errs(join, http.StatusBadRequest, http.StatusNotFound, http.StatusConflict)
	_ = r.AddOperation(join)

	// POST /api/rooms/{roomId}/me
	me, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomId}/me")
	me.SetSummary("Player view")
	me.SetDescription("Room state plus the caller's own stage window.")
	me.AddReqStructure(playerOperation{})
	me.AddRespStructure(room.PlayerView{}, openapi.WithHTTPStatus(http.StatusOK))
	errs(me, http.StatusForbidden, http.StatusNotFound)
	_ = r.AddOperation(me)

	// POST /api/rooms/{roomId}/result
	result, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomId}/result")
	result.SetSummary("Submit result")
	result.SetDescription("Records the caller's result for their open stage. One result per stage.")
	result.AddReqStructure(resultOperation{})
	result.AddRespStructure(room.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	errs(result, http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)
	_ = r.AddOperation(result)

	// GET /api/rooms/{roomId}/leaderboard
	leaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{roomId}/leaderboard")
	leaderboard.SetSummary("Leaderboard")
	leaderboard.SetDescription("Ranked players with display labels. Empty in the lobby.")
	leaderboard.AddReqStructure(roomPath{})
	leaderboard.AddRespStructure(room.Leaderboard{}, openapi.WithHTTPStatus(http.StatusOK))
	errs(leaderboard, http.StatusNotFound)
	_ = r.AddOperation(leaderboard)

	// GET /api/rooms/{roomId}/events
	events, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{roomId}/events")
	events.SetSummary("SSE event stream")
	events.SetDescription("Server-Sent Events: a snapshot first, then one FeedMessage per room event.")
	events.AddReqStructure(roomPath{})
	events.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	errs(events, http.StatusNotFound)
	_ = r.AddOperation(events)

	// GET /api/rooms/{roomId}/ws
	ws, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{roomId}/ws")
	ws.SetSummary("WebSocket event feed")
	ws.SetDescription("Upgrades to a WebSocket carrying the same JSON FeedMessages as the SSE stream.")
	ws.AddReqStructure(roomPath{})
	ws.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	errs(ws, http.StatusNotFound)
	_ = r.AddOperation(ws)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.HandlerFunc {
	return v5emb.New(apiTitle, "/openapi.json", "/docs").ServeHTTP
}
