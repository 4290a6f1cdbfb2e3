package room

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	MinDurationSec     = 10
	MaxDurationSec     = 15 * 60
	DefaultDurationSec = 60

	maxNameRunes = 24
)

// ClampDuration rounds sec to whole seconds within [MinDurationSec,
// MaxDurationSec]. Non-finite input yields DefaultDurationSec.
func ClampDuration(sec float64) int {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return DefaultDurationSec
	}
	return int(math.Max(MinDurationSec, math.Min(MaxDurationSec, math.Round(sec))))
}

// SanitizeName trims name, collapses inner whitespace and cuts it to 24 runes.
func SanitizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if utf8.RuneCountInString(name) <= maxNameRunes {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:maxNameRunes]))
}

// progress is where one player stands at a given instant. Stage equals the
// room's StageCount once the player is done; StartMs/EndMs are then zero and
// FinishedAtMs records when the last window closed for them.
type progress struct {
	Stage        int
	StartMs      int64
	EndMs        int64
	FinishedAtMs int64
}

func (p progress) done(stageCount int) bool { return p.Stage >= stageCount }

// progressOf walks a player's stage windows. Stage 0 opens for everyone at
// StartedAtMs; each later stage opens when the player submitted the previous
// one, or when the previous window closed, whichever came first. Every window
// lasts DurationSec.
func (r *Room) progressOf(playerID string, now int64) progress {
	d := r.durationMs()
	start := r.StartedAtMs
	for k := 0; k < r.StageCount; k++ {
		end := start + d
		if res, ok := r.result(playerID, k); ok {
			start = min(max(res.SubmittedAtMs, start), end)
			continue
		}
		if now >= end {
			start = end
			continue
		}
		return progress{Stage: k, StartMs: start, EndMs: end}
	}
	return progress{Stage: r.StageCount, FinishedAtMs: start}
}

// globalStage is the stage on the shared clock, used for room-wide displays.
func (r *Room) globalStage(now int64) int {
	switch r.Status {
	case StatusRunning:
		d := r.durationMs()
		if d <= 0 || now <= r.StartedAtMs {
			return 0
		}
		return min(int((now-r.StartedAtMs)/d), r.StageCount-1)
	case StatusEnded:
		return r.StageCount - 1
	default:
		return 0
	}
}

// advance applies the time-based transitions implied by now and reports
// whether the room changed. A running room ends once every joined player is
// done, or when the last possible window has closed. EndsAtMs records when
// that actually happened rather than when it was observed.
func (r *Room) advance(now int64) bool {
	if r.Status != StatusRunning {
		return false
	}
	deadline := r.deadlineMs()
	if len(r.Players) > 0 {
		var last int64
		for _, p := range r.Players {
			pr := r.progressOf(p.PlayerID, now)
			if !pr.done(r.StageCount) {
				last = -1
				break
			}
			last = max(last, pr.FinishedAtMs)
		}
		if last >= 0 {
			r.finish(min(last, deadline))
			return true
		}
	}
	if now >= deadline {
		r.finish(deadline)
		return true
	}
	return false
}

func (r *Room) start(now int64) {
	r.Status = StatusRunning
	r.StartedAtMs = now
	r.Results = []PlayerResult{}
	r.EndsAtMs = r.deadlineMs()
}

func (r *Room) finish(at int64) {
	r.Status = StatusEnded
	r.EndsAtMs = at
}

func (r *Room) reset() {
	r.Status = StatusLobby
	r.StartedAtMs = 0
	r.EndsAtMs = 0
	r.Results = []PlayerResult{}
}

// pickImages draws count images from pool in random order, cycling through
// the pool when it is smaller than count.
func pickImages(pool []string, count int) []string {
	if len(pool) == 0 || count <= 0 {
		return []string{}
	}
	shuffled := slices.Clone(pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	out := make([]string, count)
	for i := range out {
		out[i] = shuffled[i%len(shuffled)]
	}
	return out
}

// fillImages keeps the usable entries of chosen and tops them up from pool
// until there are count images.
func fillImages(chosen, pool []string, count int) []string {
	out := make([]string, 0, count)
	for _, img := range chosen {
		if img = strings.TrimSpace(img); img != "" && len(out) < count {
			out = append(out, img)
		}
	}
	if missing := count - len(out); missing > 0 {
		var rest []string
		for _, img := range pool {
			if !slices.Contains(out, img) {
				rest = append(rest, img)
			}
		}
		if len(rest) == 0 {
			rest = pool
		}
		out = append(out, pickImages(rest, missing)...)
	}
	return out
}

type stageKey struct {
	playerID string
	stage    int
}

// normalize repairs records written by older code or damaged in storage and
// reports whether anything changed.
func (r *Room) normalize(pool []string) bool {
	changed := false
	set := func(cond bool, fix func()) {
		if cond {
			fix()
			changed = true
		}
	}

	set(r.Status != StatusLobby && r.Status != StatusRunning && r.Status != StatusEnded, func() { r.Status = StatusLobby })
	set(r.Status == StatusRunning && r.StartedAtMs <= 0, r.reset)
	set(r.Status == StatusLobby && (r.StartedAtMs != 0 || r.EndsAtMs != 0), func() { r.StartedAtMs, r.EndsAtMs = 0, 0 })

	if d := ClampDuration(float64(r.DurationSec)); d != r.DurationSec {
		set(true, func() { r.DurationSec = d })
	}
	if n := stageCountFor(r.GameID); n != r.StageCount {
		set(true, func() { r.StageCount = n })
	}

	if r.GameID == GameImagePuzzle {
		set(len(r.StageImages) < r.StageCount, func() { r.StageImages = fillImages(r.StageImages, pool, r.StageCount) })
	} else {
		set(r.StageImages == nil, func() { r.StageImages = []string{} })
	}
	set(r.Players == nil, func() { r.Players = []Player{} })
	set(r.Results == nil, func() { r.Results = []PlayerResult{} })

	kept := r.Results[:0:0]
	seen := make(map[stageKey]bool, len(r.Results))
	for _, res := range r.Results {
		if res.Result == nil || res.Result.Game() != r.GameID {
			continue
		}
		stage := res.Result.Stage()
		if stage < 0 || stage >= r.StageCount {
			continue
		}
		if _, ok := r.player(res.PlayerID); !ok {
			continue
		}
		key := stageKey{res.PlayerID, stage}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, res)
	}
	set(len(kept) != len(r.Results), func() { r.Results = kept })

	return changed
}
