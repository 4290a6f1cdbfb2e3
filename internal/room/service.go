package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/minigames/internal/ids"
)

const (
	maxSaveAttempts = 3

	// eventSilent marks a change that is saved but not announced.
	eventSilent = "-"
)

// Service exposes the room-store operations. Each call is one
// load-mutate-save cycle on a single room, serialized per room inside the
// process and guarded by the repository's version check across processes.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	hasher   *ids.Hasher
	notifier Notifier
	now      func() time.Time
	locks    *roomLocks

	images          []string
	defaultDuration int
	adminAbsence    time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithHasher(h *ids.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithPuzzleImages sets the pool stage images are drawn from.
func WithPuzzleImages(pool []string) Option {
	return func(s *Service) {
		if len(pool) > 0 {
			s.images = pool
		}
	}
}

func WithDefaultDuration(sec int) Option {
	return func(s *Service) { s.defaultDuration = ClampDuration(float64(sec)) }
}

// WithAdminAbsence deletes rooms whose admin has not been seen for d.
// Zero disables the check.
func WithAdminAbsence(d time.Duration) Option {
	return func(s *Service) { s.adminAbsence = d }
}

func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		logger:          logger,
		hasher:          ids.NewHasher(""),
		now:             time.Now,
		locks:           newRoomLocks(),
		images:          []string{"/puzzles/puzzle1.png", "/puzzles/puzzle2.png"},
		defaultDuration: DefaultDurationSec,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NowMs is the service clock in Unix milliseconds.
func (s *Service) NowMs() int64 { return s.now().UnixMilli() }

type CreateInput struct {
	GameID      GameID   `json:"gameId"`
	DurationSec *float64 `json:"durationSec,omitempty"`
	StageImages []string `json:"stageImages,omitempty"`
}

type Created struct {
	RoomID   string   `json:"roomId"`
	AdminKey string   `json:"adminKey"`
	Room     Snapshot `json:"room"`
}

// CreateRoom opens a lobby for the given game. The admin key is returned
// here and never again.
func (s *Service) CreateRoom(ctx context.Context, in CreateInput) (Created, error) {
	g, ok := LookupGame(in.GameID)
	if !ok {
		return Created{}, fmt.Errorf("%w: unknown game %q", ErrValidation, in.GameID)
	}
	duration := s.defaultDuration
	if in.DurationSec != nil {
		duration = ClampDuration(*in.DurationSec)
	}
	images := []string{}
	if g.ID == GameImagePuzzle {
		images = fillImages(in.StageImages, s.images, g.StageCount)
	}

	for attempt := 1; ; attempt++ {
		now := s.NowMs()
		adminKey := ids.Secret()
		r := &Room{
			RoomID:            ids.Public(),
			AdminKeyHash:      s.hasher.Digest(adminKey),
			GameID:            g.ID,
			Status:            StatusLobby,
			CreatedAtMs:       now,
			DurationSec:       duration,
			StageCount:        g.StageCount,
			StageImages:       images,
			Players:           []Player{},
			Results:           []PlayerResult{},
			AdminLastSeenAtMs: now,
		}
		err := s.repo.Save(ctx, r)
		if errors.Is(err, ErrConflict) && attempt < maxSaveAttempts {
			s.logger.Warn("room id collision, drawing a new one", "room_id", r.RoomID)
			continue
		}
		if err != nil {
			return Created{}, fmt.Errorf("saving room: %w", err)
		}
		s.logger.Info("room created", "room_id", r.RoomID, "game_id", r.GameID, "duration_sec", r.DurationSec)
		return Created{RoomID: r.RoomID, AdminKey: adminKey, Room: r.snapshot(now)}, nil
	}
}

// update runs fn on a freshly loaded room after applying pending time-based
// transitions. fn returns the event describing its change, or an empty Event
// for none. The room is saved only when something changed and fn succeeded;
// on a version conflict the whole cycle is retried from a fresh load.
func (s *Service) update(ctx context.Context, roomID string, fn func(r *Room, now int64) (Event, error)) (*Room, int64, error) {
	release, err := s.locks.acquire(ctx, roomID)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	for attempt := 1; ; attempt++ {
		r, err := s.repo.Load(ctx, roomID)
		if err != nil {
			return nil, 0, fmt.Errorf("room %q: %w", roomID, err)
		}
		now := s.NowMs()

		if s.adminGone(r, now) {
			if err := s.repo.Delete(ctx, roomID); err != nil && !errors.Is(err, ErrNotFound) {
				return nil, 0, fmt.Errorf("deleting abandoned room: %w", err)
			}
			s.logger.Info("room expired, admin absent", "room_id", roomID, "last_seen_ms", r.AdminLastSeenAtMs)
			s.publish(Event{Type: EventRoomClosed, RoomID: roomID, Status: r.Status})
			return nil, 0, fmt.Errorf("room %q: %w", roomID, ErrNotFound)
		}

		before := r.Status
		changed := r.normalize(s.images)
		if r.advance(now) {
			changed = true
			s.logger.Info("room ended", "room_id", roomID, "ends_at_ms", r.EndsAtMs, "reason", "time or all players done")
		}

		ev, err := fn(r, now)
		if err != nil {
			return nil, 0, err
		}
		if ev.Type == "" && !changed {
			return r, now, nil
		}

		err = s.repo.Save(ctx, r)
		if errors.Is(err, ErrConflict) && attempt < maxSaveAttempts {
			s.logger.Debug("room save conflict, retrying", "room_id", roomID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("saving room %q: %w", roomID, err)
		}

		if ev.Type != "" && ev.Type != eventSilent {
			ev.RoomID, ev.Status = r.RoomID, r.Status
			s.publish(ev)
		}
		if before != StatusEnded && r.Status == StatusEnded && ev.Type != EventRoomEnded {
			s.publish(Event{Type: EventRoomEnded, RoomID: r.RoomID, Status: r.Status})
		} else if ev.Type == "" && changed {
			s.publish(Event{Type: EventRoomUpdated, RoomID: r.RoomID, Status: r.Status})
		}
		return r, now, nil
	}
}

func (s *Service) read(ctx context.Context, roomID string) (*Room, int64, error) {
	return s.update(ctx, roomID, func(*Room, int64) (Event, error) { return Event{}, nil })
}

func (s *Service) publish(ev Event) {
	if s.notifier != nil {
		s.notifier.Publish(ev.RoomID, ev)
	}
}

func (s *Service) adminGone(r *Room, now int64) bool {
	return s.adminAbsence > 0 && r.AdminLastSeenAtMs > 0 &&
		now-r.AdminLastSeenAtMs > s.adminAbsence.Milliseconds()
}

func (s *Service) checkAdmin(r *Room, adminKey string) error {
	if !s.hasher.Verify(adminKey, r.AdminKeyHash) {
		return fmt.Errorf("%w: wrong admin key", ErrAuth)
	}
	return nil
}

func (s *Service) checkPlayer(r *Room, playerID, token string) (*Player, error) {
	p, ok := r.player(playerID)
	if !ok {
		return nil, fmt.Errorf("player %q: %w", playerID, ErrNotFound)
	}
	if !s.hasher.Verify(token, p.TokenHash) {
		return nil, fmt.Errorf("%w: wrong player token", ErrAuth)
	}
	return p, nil
}

// GetRoom loads a room with pending transitions applied.
func (s *Service) GetRoom(ctx context.Context, roomID string) (*Room, error) {
	r, _, err := s.read(ctx, roomID)
	return r, err
}

// AssertAdmin reports ErrAuth unless adminKey controls the room.
func (s *Service) AssertAdmin(ctx context.Context, roomID, adminKey string) error {
	_, _, err := s.update(ctx, roomID, func(r *Room, _ int64) (Event, error) {
		return Event{}, s.checkAdmin(r, adminKey)
	})
	return err
}

type ConfigureInput struct {
	DurationSec *float64 `json:"durationSec,omitempty"`
	StageImages []string `json:"stageImages,omitempty"`
}

// Configure changes duration and stage images while the room is in the lobby.
func (s *Service) Configure(ctx context.Context, roomID, adminKey string, in ConfigureInput) (Snapshot, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		if err := s.checkAdmin(r, adminKey); err != nil {
			return Event{}, err
		}
		if r.Status != StatusLobby {
			return Event{}, fmt.Errorf("%w: room can only be configured in the lobby", ErrInvalidState)
		}
		if in.DurationSec != nil {
			r.DurationSec = ClampDuration(*in.DurationSec)
		}
		if r.GameID == GameImagePuzzle && len(in.StageImages) > 0 {
			r.StageImages = fillImages(in.StageImages, s.images, r.StageCount)
		}
		r.AdminLastSeenAtMs = now
		return Event{Type: EventRoomUpdated}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot(now), nil
}

// Start opens stage 0 for every player and clears any previous results.
func (s *Service) Start(ctx context.Context, roomID, adminKey string) (Snapshot, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		if err := s.checkAdmin(r, adminKey); err != nil {
			return Event{}, err
		}
		if r.Status != StatusLobby {
			return Event{}, fmt.Errorf("%w: room has already started", ErrInvalidState)
		}
		r.start(now)
		r.AdminLastSeenAtMs = now
		return Event{Type: EventRoomStarted}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("room started", "room_id", roomID, "players", len(r.Players), "ends_at_ms", r.EndsAtMs)
	return r.snapshot(now), nil
}

// End stops a running round immediately. Ending an ended room is a no-op.
func (s *Service) End(ctx context.Context, roomID, adminKey string) (Snapshot, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		if err := s.checkAdmin(r, adminKey); err != nil {
			return Event{}, err
		}
		switch r.Status {
		case StatusEnded:
			return Event{}, nil
		case StatusLobby:
			return Event{}, fmt.Errorf("%w: room has not started", ErrInvalidState)
		}
		r.finish(now)
		r.AdminLastSeenAtMs = now
		return Event{Type: EventRoomEnded}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("room ended by admin", "room_id", roomID)
	return r.snapshot(now), nil
}

// Restart returns the room to the lobby for a new round, keeping players and
// configuration.
func (s *Service) Restart(ctx context.Context, roomID, adminKey string) (Snapshot, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		if err := s.checkAdmin(r, adminKey); err != nil {
			return Event{}, err
		}
		r.reset()
		r.AdminLastSeenAtMs = now
		return Event{Type: EventRoomRestarted}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("room restarted", "room_id", roomID)
	return r.snapshot(now), nil
}

// Close deletes the room.
func (s *Service) Close(ctx context.Context, roomID, adminKey string) error {
	release, err := s.locks.acquire(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()

	r, err := s.repo.Load(ctx, roomID)
	if err != nil {
		return fmt.Errorf("room %q: %w", roomID, err)
	}
	if err := s.checkAdmin(r, adminKey); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, roomID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting room %q: %w", roomID, err)
	}
	s.logger.Info("room closed", "room_id", roomID)
	s.publish(Event{Type: EventRoomClosed, RoomID: roomID, Status: r.Status})
	return nil
}

// Touch records that the admin is still watching and returns the admin view.
func (s *Service) Touch(ctx context.Context, roomID, adminKey string) (AdminView, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		if err := s.checkAdmin(r, adminKey); err != nil {
			return Event{}, err
		}
		r.AdminLastSeenAtMs = now
		return Event{Type: eventSilent}, nil
	})
	if err != nil {
		return AdminView{}, err
	}
	return r.adminView(now), nil
}

type Joined struct {
	PlayerID string   `json:"playerId"`
	Token    string   `json:"token"`
	Room     Snapshot `json:"room"`
}

// Join adds a player to a room that has not ended. The token is returned
// here and never again.
func (s *Service) Join(ctx context.Context, roomID, name string) (Joined, error) {
	var joined Joined
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		if r.Status == StatusEnded {
			return Event{}, fmt.Errorf("%w: room has ended", ErrInvalidState)
		}
		name := SanitizeName(name)
		if name == "" {
			return Event{}, fmt.Errorf("%w: name is required", ErrValidation)
		}
		joined.PlayerID = ids.Public()
		joined.Token = ids.Secret()
		r.Players = append(r.Players, Player{
			PlayerID:   joined.PlayerID,
			Name:       name,
			TokenHash:  s.hasher.Digest(joined.Token),
			JoinedAtMs: now,
		})
		return Event{Type: EventPlayerJoined, PlayerName: name}, nil
	})
	if err != nil {
		return Joined{}, err
	}
	joined.Room = r.snapshot(now)
	return joined, nil
}

// SubmitResult records a player's result for their open stage.
func (s *Service) SubmitResult(ctx context.Context, roomID, playerID, token string, sub Submission) (Snapshot, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, now int64) (Event, error) {
		p, err := s.checkPlayer(r, playerID, token)
		if err != nil {
			return Event{}, err
		}
		if _, err := r.record(p, sub, now); err != nil {
			return Event{}, err
		}
		r.advance(now)
		return Event{Type: EventResultSubmitted, PlayerName: p.Name}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot(now), nil
}

// Snapshot returns the public room state.
func (s *Service) Snapshot(ctx context.Context, roomID string) (Snapshot, error) {
	r, now, err := s.read(ctx, roomID)
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot(now), nil
}

// PublicRoom returns the public state together with the roster.
func (s *Service) PublicRoom(ctx context.Context, roomID string) (PublicRoom, error) {
	r, now, err := s.read(ctx, roomID)
	if err != nil {
		return PublicRoom{}, err
	}
	return PublicRoom{Snapshot: r.snapshot(now), Players: r.publicPlayers()}, nil
}

func (s *Service) Players(ctx context.Context, roomID string) ([]PublicPlayer, error) {
	r, _, err := s.read(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return r.publicPlayers(), nil
}

// AdminView returns roster and ledger without marking the admin as present.
func (s *Service) AdminView(ctx context.Context, roomID, adminKey string) (AdminView, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, _ int64) (Event, error) {
		return Event{}, s.checkAdmin(r, adminKey)
	})
	if err != nil {
		return AdminView{}, err
	}
	return r.adminView(now), nil
}

// PlayerStage returns the room as seen by one authenticated player.
func (s *Service) PlayerStage(ctx context.Context, roomID, playerID, token string) (PlayerView, error) {
	r, now, err := s.update(ctx, roomID, func(r *Room, _ int64) (Event, error) {
		_, err := s.checkPlayer(r, playerID, token)
		return Event{}, err
	})
	if err != nil {
		return PlayerView{}, err
	}
	return PlayerView{
		Snapshot: r.snapshot(now),
		Players:  r.publicPlayers(),
		Me:       r.stageView(playerID, now),
	}, nil
}

// Leaderboard returns the ranked public leaderboard. It is empty in the lobby.
func (s *Service) Leaderboard(ctx context.Context, roomID string) (Leaderboard, error) {
	r, now, err := s.read(ctx, roomID)
	if err != nil {
		return Leaderboard{}, err
	}
	return r.leaderboard(now), nil
}
