package room

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

const (
	labelNotSubmitted = "Chưa nộp"
	labelPending      = "—"
)

type LeaderboardEntry struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Submitted bool   `json:"submitted"`
	Label     string `json:"label"`
	// Rank is 1-based and contiguous; players without results still get one.
	Rank int `json:"rank"`

	Score        *int64 `json:"score,omitempty"`
	StagesSolved int    `json:"stagesSolved"`
	TotalMs      int64  `json:"totalMs"`
}

// BuildLeaderboard ranks every player. Ties keep join order.
//
// click-counter ranks by score, highest first, players without a score last.
// image-puzzle ranks by solved stages, then by the summed completion time of
// the solved stages.
func BuildLeaderboard(game GameID, stageCount int, status Status, players []Player, results []PlayerResult) []LeaderboardEntry {
	rows := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		row := LeaderboardEntry{PlayerID: p.PlayerID, Name: p.Name}
		for _, res := range results {
			if res.PlayerID != p.PlayerID {
				continue
			}
			switch o := res.Result.(type) {
			case ClickOutcome:
				score := o.Score
				row.Score = &score
				row.Submitted = true
			case PuzzleOutcome:
				row.Submitted = true
				if o.Solved {
					row.StagesSolved++
					row.TotalMs += o.CompletedMs
				}
			}
		}
		rows[i] = row
	}

	switch game {
	case GameClickCounter:
		slices.SortStableFunc(rows, func(a, b LeaderboardEntry) int {
			return cmp.Compare(scoreOrLast(b), scoreOrLast(a))
		})
	case GameImagePuzzle:
		slices.SortStableFunc(rows, func(a, b LeaderboardEntry) int {
			if c := cmp.Compare(b.StagesSolved, a.StagesSolved); c != 0 {
				return c
			}
			return cmp.Compare(a.TotalMs, b.TotalMs)
		})
	}

	for i := range rows {
		rows[i].Rank = i + 1
		rows[i].Label = label(game, stageCount, status, rows[i])
	}
	return rows
}

func scoreOrLast(e LeaderboardEntry) int64 {
	if e.Score == nil {
		return -1
	}
	return *e.Score
}

func label(game GameID, stageCount int, status Status, e LeaderboardEntry) string {
	switch game {
	case GameClickCounter:
		if e.Score != nil {
			return fmt.Sprintf("%d lần", *e.Score)
		}
		if status == StatusEnded {
			return labelNotSubmitted
		}
		return labelPending
	case GameImagePuzzle:
		if e.StagesSolved == 0 {
			return fmt.Sprintf("%d/%d", e.StagesSolved, stageCount)
		}
		secs := int64(math.Round(float64(e.TotalMs) / 1000))
		return fmt.Sprintf("%d/%d · %ds", e.StagesSolved, stageCount, secs)
	}
	return labelPending
}
