package room

// Game describes a mini-game a room can be created for.
type Game struct {
	ID          GameID `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AdminHint   string `json:"adminHint"`
	StageCount  int    `json:"stageCount"`
}

var games = []Game{
	{
		ID:          GameImagePuzzle,
		Name:        "Ghép hình (kéo thả)",
		Description: "Kéo 9 mảnh ghép vào đúng vị trí.",
		AdminHint:   "Phù hợp thi đua nhanh.",
		StageCount:  2,
	},
	{
		ID:          GameClickCounter,
		Name:        "Đếm lượt bấm",
		Description: "Bấm càng nhiều càng tốt trước khi hết giờ.",
		AdminHint:   "Dễ chơi, khởi động nhanh.",
		StageCount:  1,
	},
}

// Games returns the catalog in display order.
func Games() []Game {
	out := make([]Game, len(games))
	copy(out, games)
	return out
}

// LookupGame returns the catalog entry for id.
func LookupGame(id GameID) (Game, bool) {
	for _, g := range games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

func stageCountFor(id GameID) int {
	if g, ok := LookupGame(id); ok {
		return g.StageCount
	}
	return 1
}
