package room

import (
	"fmt"
	"math"
)

// Submission is a result as sent by a player, before validation. Type must
// match the room's game. StageIndex is required for image-puzzle and must be
// 0 (or absent) for click-counter. A missing CompletedMs is measured by the
// server from the player's stage start.
type Submission struct {
	Type        GameID   `json:"type"`
	StageIndex  *int     `json:"stageIndex,omitempty"`
	Solved      *bool    `json:"solved,omitempty"`
	CompletedMs *float64 `json:"completedMs,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// maxClickScore bounds stored click counts so the int64 conversion is exact.
const maxClickScore = math.MaxInt32

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// targetStage validates the shape of sub and returns the stage it addresses.
func (r *Room) targetStage(sub Submission) (int, error) {
	if sub.Type != r.GameID {
		return 0, fmt.Errorf("%w: result type %q does not match game %q", ErrValidation, sub.Type, r.GameID)
	}
	switch r.GameID {
	case GameImagePuzzle:
		if sub.StageIndex == nil {
			return 0, fmt.Errorf("%w: stageIndex is required", ErrValidation)
		}
		if s := *sub.StageIndex; s < 0 || s >= r.StageCount {
			return 0, fmt.Errorf("%w: stageIndex %d out of range", ErrValidation, s)
		}
		if sub.CompletedMs != nil && !finite(*sub.CompletedMs) {
			return 0, fmt.Errorf("%w: completedMs must be a finite number", ErrValidation)
		}
		return *sub.StageIndex, nil
	case GameClickCounter:
		if sub.StageIndex != nil && *sub.StageIndex != 0 {
			return 0, fmt.Errorf("%w: stageIndex %d out of range", ErrValidation, *sub.StageIndex)
		}
		if sub.Score == nil || !finite(*sub.Score) {
			return 0, fmt.Errorf("%w: score must be a finite number", ErrValidation)
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: unknown game %q", ErrValidation, r.GameID)
	}
}

// outcome normalizes sub into the stored payload. stageStartMs is the start of
// the player's open window.
func (r *Room) outcome(sub Submission, stage int, stageStartMs, now int64) Outcome {
	switch r.GameID {
	case GameImagePuzzle:
		elapsed := float64(now - stageStartMs)
		if sub.CompletedMs != nil {
			elapsed = *sub.CompletedMs
		}
		completed := int64(math.Max(0, math.Min(float64(r.durationMs()), math.Round(elapsed))))
		return PuzzleOutcome{
			StageIndex:  stage,
			Solved:      sub.Solved != nil && *sub.Solved,
			CompletedMs: completed,
		}
	default:
		return ClickOutcome{Score: int64(math.Max(0, math.Min(maxClickScore, math.Round(*sub.Score))))}
	}
}

// record validates sub for player p against the room's state and the
// player's open stage, then appends it to the ledger. Nothing is modified
// when an error is returned.
func (r *Room) record(p *Player, sub Submission, now int64) (PlayerResult, error) {
	if r.Status != StatusRunning {
		return PlayerResult{}, fmt.Errorf("%w: room is %s", ErrInvalidState, r.Status)
	}
	stage, err := r.targetStage(sub)
	if err != nil {
		return PlayerResult{}, err
	}
	if _, dup := r.result(p.PlayerID, stage); dup {
		return PlayerResult{}, fmt.Errorf("%w: stage %d", ErrDuplicateSubmission, stage)
	}

	pr := r.progressOf(p.PlayerID, now)
	switch {
	case stage < pr.Stage:
		return PlayerResult{}, fmt.Errorf("%w: stage %d has closed", ErrTiming, stage)
	case stage > pr.Stage:
		return PlayerResult{}, fmt.Errorf("%w: stage %d has not opened yet", ErrTiming, stage)
	}

	res := PlayerResult{
		PlayerID:      p.PlayerID,
		Name:          p.Name,
		SubmittedAtMs: now,
		Result:        r.outcome(sub, stage, pr.StartMs, now),
	}
	r.Results = append(r.Results, res)
	return res, nil
}
