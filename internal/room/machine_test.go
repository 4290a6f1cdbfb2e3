package room

import (
	"math"
	"testing"
)

func TestClampDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, MinDurationSec},
		{-30, MinDurationSec},
		{10.4, 10},
		{10.5, 11},
		{300, 300},
		{901, MaxDurationSec},
		{math.NaN(), DefaultDurationSec},
		{math.Inf(1), DefaultDurationSec},
	}
	for _, tt := range tests {
		if got := ClampDuration(tt.in); got != tt.want {
			t.Errorf("ClampDuration(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ann", "Ann"},
		{"  Ann \t Le \n", "Ann Le"},
		{"", ""},
		{"   ", ""},
		{"Nguyễn Thị Minh Khai Phường", "Nguyễn Thị Minh Khai Phư"},
		{"abcdefghijklmnopqrstuvw xyz", "abcdefghijklmnopqrstuvw"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func runningPuzzle() *Room {
	return &Room{
		RoomID:      "r",
		GameID:      GameImagePuzzle,
		Status:      StatusRunning,
		DurationSec: 10,
		StartedAtMs: 100_000,
		StageCount:  2,
		StageImages: []string{"/a.png", "/b.png"},
		Players:     []Player{{PlayerID: "a", Name: "A"}, {PlayerID: "b", Name: "B"}},
		Results:     []PlayerResult{},
	}
}

func TestProgressOf(t *testing.T) {
	r := runningPuzzle()
	r.Results = []PlayerResult{
		{PlayerID: "a", SubmittedAtMs: 103_000, Result: PuzzleOutcome{StageIndex: 0, Solved: true, CompletedMs: 3_000}},
	}

	tests := []struct {
		name   string
		player string
		now    int64
		want   progress
	}{
		{"fresh player on stage 0", "b", 105_000, progress{Stage: 0, StartMs: 100_000, EndMs: 110_000}},
		{"stage 1 opens at early submission", "a", 105_000, progress{Stage: 1, StartMs: 103_000, EndMs: 113_000}},
		{"stage 1 opens when stage 0 closes", "b", 110_000, progress{Stage: 1, StartMs: 110_000, EndMs: 120_000}},
		{"early submitter runs out", "a", 113_000, progress{Stage: 2, FinishedAtMs: 113_000}},
		{"idle player runs out at deadline", "b", 120_000, progress{Stage: 2, FinishedAtMs: 120_000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.progressOf(tt.player, tt.now); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	r := runningPuzzle()
	if r.advance(109_999) {
		t.Fatal("room ended before anyone finished")
	}

	r.Results = []PlayerResult{
		{PlayerID: "a", SubmittedAtMs: 102_000, Result: PuzzleOutcome{StageIndex: 0}},
		{PlayerID: "a", SubmittedAtMs: 104_000, Result: PuzzleOutcome{StageIndex: 1}},
		{PlayerID: "b", SubmittedAtMs: 101_000, Result: PuzzleOutcome{StageIndex: 0}},
	}
	if r.advance(106_000) {
		t.Fatal("room ended while b still had stage 1 open")
	}

	// b's stage 1 window is [101s, 111s); observed late, the end is back-dated.
	if !r.advance(150_000) {
		t.Fatal("room should have ended")
	}
	if r.Status != StatusEnded || r.EndsAtMs != 111_000 {
		t.Errorf("expected ended at 111000, got %s at %d", r.Status, r.EndsAtMs)
	}
	if r.advance(200_000) {
		t.Error("advance changed an ended room")
	}
}

func TestAdvanceLobby(t *testing.T) {
	r := runningPuzzle()
	r.reset()
	if r.advance(1 << 50) {
		t.Error("lobby advanced")
	}
}

func TestNormalize(t *testing.T) {
	r := &Room{
		RoomID:      "r",
		GameID:      GameImagePuzzle,
		Status:      "paused",
		DurationSec: 3,
		StartedAtMs: 5,
		StageImages: []string{"/only.png"},
		Players:     []Player{{PlayerID: "a", Name: "A"}},
		Results: []PlayerResult{
			{PlayerID: "a", Result: PuzzleOutcome{StageIndex: 0, Solved: true}},
			{PlayerID: "a", Result: PuzzleOutcome{StageIndex: 0}},
			{PlayerID: "a", Result: PuzzleOutcome{StageIndex: 7}},
			{PlayerID: "a", Result: ClickOutcome{Score: 4}},
			{PlayerID: "ghost", Result: PuzzleOutcome{StageIndex: 1}},
			{PlayerID: "a", Result: nil},
		},
	}

	if !r.normalize([]string{"/x.png", "/y.png"}) {
		t.Fatal("expected repairs")
	}
	if r.Status != StatusLobby || r.StartedAtMs != 0 {
		t.Errorf("expected clean lobby, got %s started %d", r.Status, r.StartedAtMs)
	}
	if r.DurationSec != MinDurationSec || r.StageCount != 2 {
		t.Errorf("expected duration %d and 2 stages, got %d and %d", MinDurationSec, r.DurationSec, r.StageCount)
	}
	if len(r.StageImages) != 2 || r.StageImages[0] != "/only.png" {
		t.Errorf("expected padded images, got %v", r.StageImages)
	}
	if len(r.Results) != 1 || !r.Results[0].Result.(PuzzleOutcome).Solved {
		t.Errorf("expected the first stage 0 result only, got %+v", r.Results)
	}

	if r.normalize(nil) {
		t.Error("second normalize reported changes")
	}
}

func TestNormalizeRunningWithoutStart(t *testing.T) {
	r := runningPuzzle()
	r.StartedAtMs = 0
	r.Results = append(r.Results, PlayerResult{PlayerID: "a", Result: PuzzleOutcome{StageIndex: 0}})

	r.normalize(nil)
	if r.Status != StatusLobby || len(r.Results) != 0 {
		t.Errorf("expected reset to lobby, got %s with %d results", r.Status, len(r.Results))
	}
}

func TestFillImages(t *testing.T) {
	pool := []string{"/a.png", "/b.png"}

	got := fillImages([]string{" ", "/mine.png", "/extra.png", "/more.png"}, pool, 2)
	if len(got) != 2 || got[0] != "/mine.png" || got[1] != "/extra.png" {
		t.Errorf("expected chosen images kept in order, got %v", got)
	}

	got = fillImages(nil, []string{"/solo.png"}, 3)
	for _, img := range got {
		if img != "/solo.png" {
			t.Errorf("expected pool to cycle, got %v", got)
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 images, got %d", len(got))
	}

	if got := fillImages(nil, nil, 2); len(got) != 0 {
		t.Errorf("expected no images from empty pool, got %v", got)
	}
}
