// Package room holds the party-game room store: the room record, its
// lifecycle state machine, the result ledger, leaderboard ranking and the
// views handed to the presentation layer.
//
// Time-based transitions are never scheduled. Every operation that loads a
// room first re-derives what the wall clock implies (stage windows closing,
// the round ending) and persists the outcome together with its own change.
package room

import (
	"encoding/json"
	"fmt"
)

type GameID string

const (
	GameImagePuzzle  GameID = "image-puzzle"
	GameClickCounter GameID = "click-counter"
)

type Status string

const (
	StatusLobby   Status = "lobby"
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"
)

// Room is the aggregate persisted by a Repository. Timestamps are Unix
// milliseconds; zero means unset.
type Room struct {
	RoomID       string   `json:"roomId"`
	AdminKeyHash string   `json:"adminKeyHash"`
	GameID       GameID   `json:"gameId"`
	Status       Status   `json:"status"`
	CreatedAtMs  int64    `json:"createdAtMs"`
	DurationSec  int      `json:"durationSec"`
	StartedAtMs  int64    `json:"startedAtMs,omitempty"`
	EndsAtMs     int64    `json:"endsAtMs,omitempty"`
	StageCount   int      `json:"stageCount"`
	StageImages  []string `json:"stageImages"`

	Players []Player       `json:"players"`
	Results []PlayerResult `json:"results"`

	AdminLastSeenAtMs int64 `json:"adminLastSeenAtMs,omitempty"`

	// Version is owned by the repository and bumped on every save.
	Version int64 `json:"version"`
}

type Player struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	TokenHash  string `json:"tokenHash"`
	JoinedAtMs int64  `json:"joinedAtMs"`
}

// PlayerResult is one ledger row. Name is copied from the player at submit time.
type PlayerResult struct {
	PlayerID      string  `json:"playerId"`
	Name          string  `json:"name"`
	SubmittedAtMs int64   `json:"submittedAtMs"`
	Result        Outcome `json:"result"`
}

// Outcome is the game-specific payload of a result: PuzzleOutcome or ClickOutcome.
type Outcome interface {
	Game() GameID
	Stage() int
}

type PuzzleOutcome struct {
	StageIndex  int   `json:"stageIndex"`
	Solved      bool  `json:"solved"`
	CompletedMs int64 `json:"completedMs"`
}

func (PuzzleOutcome) Game() GameID { return GameImagePuzzle }
func (o PuzzleOutcome) Stage() int { return o.StageIndex }

type ClickOutcome struct {
	Score int64 `json:"score"`
}

func (ClickOutcome) Game() GameID { return GameClickCounter }
func (ClickOutcome) Stage() int { return 0 }

// outcomeJSON is the tagged wire form shared by both outcome kinds.
type outcomeJSON struct {
	Type        GameID `json:"type"`
	StageIndex  int    `json:"stageIndex"`
	Solved      *bool  `json:"solved,omitempty"`
	CompletedMs *int64 `json:"completedMs,omitempty"`
	Score       *int64 `json:"score,omitempty"`
}

func (r PlayerResult) MarshalJSON() ([]byte, error) {
	var w outcomeJSON
	switch o := r.Result.(type) {
	case PuzzleOutcome:
		w = outcomeJSON{Type: GameImagePuzzle, StageIndex: o.StageIndex, Solved: &o.Solved, CompletedMs: &o.CompletedMs}
	case ClickOutcome:
		w = outcomeJSON{Type: GameClickCounter, Score: &o.Score}
	default:
		return nil, fmt.Errorf("unknown outcome %T", r.Result)
	}
	type alias PlayerResult
	return json.Marshal(struct {
		alias
		Result outcomeJSON `json:"result"`
	}{alias(r), w})
}

func (r *PlayerResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		PlayerID      string      `json:"playerId"`
		Name          string      `json:"name"`
		SubmittedAtMs int64       `json:"submittedAtMs"`
		Result        outcomeJSON `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.PlayerID = raw.PlayerID
	r.Name = raw.Name
	r.SubmittedAtMs = raw.SubmittedAtMs
	r.Result = nil

	w := raw.Result
	switch w.Type {
	case GameImagePuzzle:
		o := PuzzleOutcome{StageIndex: w.StageIndex}
		if w.Solved != nil {
			o.Solved = *w.Solved
		}
		if w.CompletedMs != nil {
			o.CompletedMs = *w.CompletedMs
		}
		r.Result = o
	case GameClickCounter:
		o := ClickOutcome{}
		if w.Score != nil {
			o.Score = *w.Score
		}
		r.Result = o
	}
	// Unknown types are left nil and dropped by normalize.
	return nil
}

func (r *Room) player(playerID string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].PlayerID == playerID {
			return &r.Players[i], true
		}
	}
	return nil, false
}

func (r *Room) result(playerID string, stage int) (*PlayerResult, bool) {
	for i := range r.Results {
		res := &r.Results[i]
		if res.PlayerID == playerID && res.Result != nil && res.Result.Stage() == stage {
			return res, true
		}
	}
	return nil, false
}

func (r *Room) durationMs() int64 { return int64(r.DurationSec) * 1000 }

// deadlineMs is the latest instant any stage window can close.
func (r *Room) deadlineMs() int64 {
	return r.StartedAtMs + r.durationMs()*int64(r.StageCount)
}
