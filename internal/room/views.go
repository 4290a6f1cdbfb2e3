package room

import "slices"

// Snapshot is the public state of a room. It never carries secrets or
// results.
type Snapshot struct {
	ServerNowMs      int64    `json:"serverNowMs"`
	RoomID           string   `json:"roomId"`
	GameID           GameID   `json:"gameId"`
	Status           Status   `json:"status"`
	DurationSec      int      `json:"durationSec"`
	TotalDurationSec int      `json:"totalDurationSec"`
	StartedAtMs      *int64   `json:"startedAtMs"`
	EndsAtMs         *int64   `json:"endsAtMs"`
	RemainingMs      int64    `json:"remainingMs"`
	StageCount       int      `json:"stageCount"`
	StageIndex       int      `json:"stageIndex"`
	ImageURL         *string  `json:"imageUrl"`
	StageImages      []string `json:"stageImages"`
	PlayerCount      int      `json:"playerCount"`
}

type PublicPlayer struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type AdminPlayer struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	JoinedAtMs int64  `json:"joinedAtMs"`
	Done       bool   `json:"done"`
}

type PublicRoom struct {
	Snapshot
	Players []PublicPlayer `json:"players"`
}

type AdminView struct {
	Snapshot
	// StageImages lists every stage image regardless of status.
	StageImages       []string       `json:"stageImages"`
	Players           []AdminPlayer  `json:"players"`
	Results           []PlayerResult `json:"results"`
	DoneCount         int            `json:"doneCount"`
	AdminLastSeenAtMs int64          `json:"adminLastSeenAtMs"`
}

// StageView is the requesting player's own progress. StageIndex equals
// StageCount once the player has nothing left to play.
type StageView struct {
	PlayerID         string  `json:"playerId"`
	StageIndex       int     `json:"stageIndex"`
	StageStartedAtMs *int64  `json:"stageStartedAtMs"`
	StageEndsAtMs    *int64  `json:"stageEndsAtMs"`
	ImageURL         *string `json:"imageUrl"`
	SubmittedStages  []int   `json:"submittedStages"`
	Done             bool    `json:"done"`
}

type PlayerView struct {
	Snapshot
	Players []PublicPlayer `json:"players"`
	Me      StageView      `json:"me"`
}

type Leaderboard struct {
	Snapshot
	Entries []LeaderboardEntry `json:"entries"`
}

func msPtr(ms int64) *int64 {
	if ms == 0 {
		return nil
	}
	return &ms
}

func (r *Room) imageAt(stage int) *string {
	if r.GameID != GameImagePuzzle || stage < 0 || stage >= len(r.StageImages) {
		return nil
	}
	img := r.StageImages[stage]
	return &img
}

func (r *Room) snapshot(now int64) Snapshot {
	s := Snapshot{
		ServerNowMs:      now,
		RoomID:           r.RoomID,
		GameID:           r.GameID,
		Status:           r.Status,
		DurationSec:      r.DurationSec,
		TotalDurationSec: r.DurationSec * r.StageCount,
		StartedAtMs:      msPtr(r.StartedAtMs),
		EndsAtMs:         msPtr(r.EndsAtMs),
		StageCount:       r.StageCount,
		StageIndex:       r.globalStage(now),
		StageImages:      []string{},
		PlayerCount:      len(r.Players),
	}
	if r.Status == StatusRunning {
		s.RemainingMs = max(0, r.EndsAtMs-now)
		s.ImageURL = r.imageAt(s.StageIndex)
	}
	if r.Status == StatusEnded {
		s.StageImages = slices.Clone(r.StageImages)
	}
	return s
}

func (r *Room) publicPlayers() []PublicPlayer {
	out := make([]PublicPlayer, len(r.Players))
	for i, p := range r.Players {
		out[i] = PublicPlayer{PlayerID: p.PlayerID, Name: p.Name}
	}
	return out
}

func (r *Room) playerDone(playerID string, now int64) bool {
	switch r.Status {
	case StatusRunning:
		return r.progressOf(playerID, now).done(r.StageCount)
	case StatusEnded:
		return true
	default:
		return false
	}
}

func (r *Room) adminView(now int64) AdminView {
	v := AdminView{
		Snapshot:          r.snapshot(now),
		StageImages:       slices.Clone(r.StageImages),
		Players:           make([]AdminPlayer, len(r.Players)),
		Results:           slices.Clone(r.Results),
		AdminLastSeenAtMs: r.AdminLastSeenAtMs,
	}
	for i, p := range r.Players {
		done := r.playerDone(p.PlayerID, now)
		if done {
			v.DoneCount++
		}
		v.Players[i] = AdminPlayer{PlayerID: p.PlayerID, Name: p.Name, JoinedAtMs: p.JoinedAtMs, Done: done}
	}
	return v
}

func (r *Room) stageView(playerID string, now int64) StageView {
	v := StageView{PlayerID: playerID, SubmittedStages: []int{}}
	for _, res := range r.Results {
		if res.PlayerID == playerID {
			v.SubmittedStages = append(v.SubmittedStages, res.Result.Stage())
		}
	}
	slices.Sort(v.SubmittedStages)

	switch r.Status {
	case StatusRunning:
		pr := r.progressOf(playerID, now)
		v.StageIndex = pr.Stage
		if pr.done(r.StageCount) {
			v.Done = true
			break
		}
		v.StageStartedAtMs = msPtr(pr.StartMs)
		v.StageEndsAtMs = msPtr(pr.EndMs)
		v.ImageURL = r.imageAt(pr.Stage)
	case StatusEnded:
		v.StageIndex = r.StageCount
		v.Done = true
	}
	return v
}

func (r *Room) leaderboard(now int64) Leaderboard {
	lb := Leaderboard{Snapshot: r.snapshot(now), Entries: []LeaderboardEntry{}}
	if r.Status == StatusLobby {
		return lb
	}
	lb.Entries = BuildLeaderboard(r.GameID, r.StageCount, r.Status, r.Players, r.Results)
	return lb
}
