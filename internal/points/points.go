// Package points resolves what a pick scored in a gameweek from the stored
// player fixture history.
package points

import (
	"strconv"

	"fpl-league-stats/internal/model"
)

// Round is a player's fixtures in one gameweek added together. A blank
// gameweek gives a zero Round with Fixtures == 0.
type Round struct {
	Fixtures        int
	TotalPoints     int
	Minutes         int
	GoalsScored     int
	Assists         int
	CleanSheets     int
	GoalsConceded   int
	OwnGoals        int
	PenaltiesSaved  int
	PenaltiesMissed int
	YellowCards     int
	RedCards        int
	Saves           int
	Bonus           int
	BPS             int
}

// Played reports whether the player got on the pitch that gameweek.
func (r Round) Played() bool { return r.Minutes > 0 }

func (r *Round) add(f model.PlayerFixture) {
	r.Fixtures++
	r.TotalPoints += f.TotalPoints
	r.Minutes += f.Minutes
	r.GoalsScored += f.GoalsScored
	r.Assists += f.Assists
	r.CleanSheets += f.CleanSheets
	r.GoalsConceded += f.GoalsConceded
	r.OwnGoals += f.OwnGoals
	r.PenaltiesSaved += f.PenaltiesSaved
	r.PenaltiesMissed += f.PenaltiesMissed
	r.YellowCards += f.YellowCards
	r.RedCards += f.RedCards
	r.Saves += f.Saves
	r.Bonus += f.Bonus
	r.BPS += f.BPS
}

// Index answers per-player, per-gameweek lookups over a player snapshot.
type Index struct {
	players map[int]model.Player
	rounds  map[int]map[int]Round
}

func NewIndex(players map[int]model.Player) *Index {
	ix := &Index{players: players, rounds: make(map[int]map[int]Round, len(players))}
	for id, p := range players {
		byRound := map[int]Round{}
		for _, f := range p.History {
			r := byRound[f.Round]
			r.add(f)
			byRound[f.Round] = r
		}
		ix.rounds[id] = byRound
	}
	return ix
}

func (ix *Index) Player(element int) (model.Player, bool) {
	p, ok := ix.players[element]
	return p, ok
}

// Name returns the player's web name, or "#<id>" when unknown.
func (ix *Index) Name(element int) string {
	if p, ok := ix.Player(element); ok && p.WebName != "" {
		return p.WebName
	}
	return "#" + strconv.Itoa(element)
}

func (ix *Index) Position(element int) model.Position {
	p, _ := ix.Player(element)
	return p.ElementType
}

// Round returns the player's combined fixtures for gameweek gw.
func (ix *Index) Round(element int, gw int) Round {
	return ix.rounds[element][gw]
}

// Points returns the raw points the player scored in gw, all fixtures included.
func (ix *Index) Points(element int, gw int) int {
	return ix.rounds[element][gw].TotalPoints
}

// PickPoints returns what the pick earned its owner: raw points times the
// multiplier, so benched picks earn nothing and captains earn double.
func (ix *Index) PickPoints(p model.Pick, gw int) int {
	return ix.Points(p.Element, gw) * p.Multiplier
}

type PlayerPoints struct {
	Element    int    `json:"element"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Minutes    int    `json:"minutes"`
	Points     int    `json:"points"`
	Multiplier int    `json:"multiplier"`
	Total      int    `json:"total"`
}

type Result struct {
	EntryID     int            `json:"entry_id"`
	Gameweek    int            `json:"gameweek"`
	Players     []PlayerPoints `json:"players"`
	TotalPoints int            `json:"total_points"`
}

// BuildResult lists the counted picks of one user gameweek with their points.
// Auto-substitutions are already reflected in the multipliers.
func BuildResult(entryID int, row model.UserGameweek, ix *Index) *Result {
	players := make([]PlayerPoints, 0, model.StartingSlots)
	total := 0

	for _, p := range row.Picks {
		if !p.Counted() {
			continue
		}
		r := ix.Round(p.Element, row.Event)
		pp := PlayerPoints{
			Element:    p.Element,
			Name:       ix.Name(p.Element),
			Position:   p.Position,
			Minutes:    r.Minutes,
			Points:     r.TotalPoints,
			Multiplier: p.Multiplier,
			Total:      ix.PickPoints(p, row.Event),
		}
		players = append(players, pp)
		total += pp.Total
	}

	return &Result{
		EntryID:     entryID,
		Gameweek:    row.Event,
		Players:     players,
		TotalPoints: total,
	}
}
