package stats

import (
	"sort"

	"fpl-league-stats/internal/model"
	"fpl-league-stats/internal/points"
)

// differentialShare is the highest league ownership that still makes a
// player a differential.
const differentialShare = 0.3

// counted calls fn for every pick that scored for the user, with the
// player's combined fixtures for that gameweek.
func (a *Analyzer) counted(u model.User, fn func(p model.Pick, r points.Round, gw int)) {
	for _, row := range u.History {
		for _, p := range row.Picks {
			if p.Counted() {
				fn(p, a.ix.Round(p.Element, row.Event), row.Event)
			}
		}
	}
}

type column struct {
	header string
	value  func(pos model.Position, r points.Round) int
}

// playerTotals sums columns over every counted pick of each member and sorts
// by column sortBy.
func (a *Analyzer) playerTotals(cols []column, sortBy int, desc bool) *Table {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		sums := make([]int, len(cols))
		a.counted(u, func(p model.Pick, r points.Round, gw int) {
			pos := a.ix.Position(p.Element)
			for i, c := range cols {
				sums[i] += c.value(pos, r)
			}
		})
		values := make([]any, len(sums))
		for i, s := range sums {
			values[i] = s
		}
		rows = append(rows, userRow(u, values...))
	}
	sortRows(rows, sortBy, desc)
	headers := []string{"Team"}
	for _, c := range cols {
		headers = append(headers, c.header)
	}
	return &Table{Columns: headers, Rows: rows}
}

func defensive(pos model.Position) bool {
	return pos == model.Goalkeeper || pos == model.Defender
}

var (
	goals   = column{"Goals", func(_ model.Position, r points.Round) int { return r.GoalsScored }}
	assists = column{"Assists", func(_ model.Position, r points.Round) int { return r.Assists }}
)

func (a *Analyzer) topScorers() (*Table, error) {
	return a.playerTotals([]column{goals}, 0, true), nil
}

func (a *Analyzer) assistKings() (*Table, error) {
	return a.playerTotals([]column{assists}, 0, true), nil
}

func (a *Analyzer) goalInvolvements() (*Table, error) {
	both := column{"Goal involvements", func(_ model.Position, r points.Round) int { return r.GoalsScored + r.Assists }}
	return a.playerTotals([]column{both, goals, assists}, 0, true), nil
}

func (a *Analyzer) goalsConceded() (*Table, error) {
	return a.playerTotals([]column{
		{"Goals conceded", func(pos model.Position, r points.Round) int {
			if defensive(pos) {
				return r.GoalsConceded
			}
			return 0
		}},
	}, 0, true), nil
}

func (a *Analyzer) cleanSheets() (*Table, error) {
	return a.playerTotals([]column{
		{"Clean sheets", func(pos model.Position, r points.Round) int {
			if defensive(pos) {
				return r.CleanSheets
			}
			return 0
		}},
		{"Clean sheet points", func(pos model.Position, r points.Round) int {
			switch {
			case defensive(pos):
				return 4 * r.CleanSheets
			case pos == model.Midfielder:
				return r.CleanSheets
			}
			return 0
		}},
	}, 0, true), nil
}

func (a *Analyzer) penaltiesSaved() (*Table, error) {
	return a.playerTotals([]column{
		{"Penalties saved", func(_ model.Position, r points.Round) int { return r.PenaltiesSaved }},
		{"Points", func(_ model.Position, r points.Round) int { return 5 * r.PenaltiesSaved }},
	}, 0, true), nil
}

func (a *Analyzer) penaltiesMissed() (*Table, error) {
	return a.playerTotals([]column{
		{"Penalties missed", func(_ model.Position, r points.Round) int { return r.PenaltiesMissed }},
		{"Points", func(_ model.Position, r points.Round) int { return -2 * r.PenaltiesMissed }},
	}, 0, true), nil
}

func (a *Analyzer) ownGoals() (*Table, error) {
	return a.playerTotals([]column{
		{"Own goals", func(_ model.Position, r points.Round) int { return r.OwnGoals }},
		{"Points", func(_ model.Position, r points.Round) int { return -2 * r.OwnGoals }},
	}, 0, true), nil
}

func (a *Analyzer) cards() (*Table, error) {
	return a.playerTotals([]column{
		{"Card points", func(_ model.Position, r points.Round) int { return -r.YellowCards - 3*r.RedCards }},
		{"Yellow cards", func(_ model.Position, r points.Round) int { return r.YellowCards }},
		{"Red cards", func(_ model.Position, r points.Round) int { return r.RedCards }},
	}, 0, false), nil
}

func (a *Analyzer) bonusPoints() (*Table, error) {
	return a.playerTotals([]column{
		{"Bonus points", func(_ model.Position, r points.Round) int { return r.Bonus }},
		{"BPS", func(_ model.Position, r points.Round) int { return r.BPS }},
	}, 0, true), nil
}

func (a *Analyzer) mvp() (*Table, error) {
	var rows []Row
	for _, u := range a.members {
		byPlayer := map[int]int{}
		a.counted(u, func(p model.Pick, _ points.Round, gw int) {
			byPlayer[p.Element] += a.ix.PickPoints(p, gw)
		})
		for _, id := range sortedKeys(byPlayer) {
			rows = append(rows, userRow(u, a.ix.Name(id), byPlayer[id]))
		}
	}
	sortRows(rows, 1, true)
	return &Table{Columns: []string{"Team", "Player", "Points"}, Rows: top(rows)}, nil
}

// owners counts, per gameweek and player, how many members had the player
// anywhere in their fifteen.
func (a *Analyzer) owners() map[int]map[int]int {
	out := make(map[int]map[int]int, a.target)
	for _, u := range a.members {
		for _, row := range u.History {
			if out[row.Event] == nil {
				out[row.Event] = map[int]int{}
			}
			for _, p := range row.Picks {
				out[row.Event][p.Element]++
			}
		}
	}
	return out
}

type differential struct {
	user      model.User
	element   int
	points    int
	diff      float64
	weeks     int
	shareSum  float64
	best      float64
	bestWeek  int
	bestShare float64
}

// bestDifferential credits each owner of a lightly owned player with the
// player's points divided among all of its owners that gameweek.
func (a *Analyzer) bestDifferential() (*Table, error) {
	owners := a.owners()
	n := float64(len(a.members))

	var diffs []*differential
	for _, u := range a.members {
		byPlayer := map[int]*differential{}
		a.counted(u, func(p model.Pick, _ points.Round, gw int) {
			count := owners[gw][p.Element]
			share := float64(count) / n
			if share > differentialShare {
				return
			}
			pts := a.ix.PickPoints(p, gw)
			diff := float64(pts) / float64(count)
			d := byPlayer[p.Element]
			if d == nil {
				d = &differential{user: u, element: p.Element, best: diff, bestWeek: gw, bestShare: share}
				byPlayer[p.Element] = d
				diffs = append(diffs, d)
			}
			d.points += pts
			d.diff += diff
			d.weeks++
			d.shareSum += share
			if diff > d.best {
				d.best, d.bestWeek, d.bestShare = diff, gw, share
			}
		})
	}

	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].diff > diffs[j].diff })
	rows := make([]Row, 0, len(diffs))
	for _, d := range diffs {
		rows = append(rows, userRow(d.user,
			a.ix.Name(d.element),
			round2(d.diff),
			d.points,
			d.weeks,
			round2(d.diff/float64(d.weeks)),
			round2(100*d.shareSum/float64(d.weeks)),
			round2(d.best),
			d.bestWeek,
		))
	}
	return &Table{
		Columns: []string{"Team", "Player", "Differential points", "Points", "Gameweeks", "Average differential", "Average ownership %", "Best gameweek differential", "Best gameweek"},
		Rows:    top(rows),
	}, nil
}

// template averages, over the gameweeks a member had a team, the league
// ownership share of their fifteen picks.
func (a *Analyzer) template() (*Table, error) {
	owners := a.owners()
	n := float64(len(a.members))
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		sum, weeks := 0.0, 0
		for _, row := range u.History {
			if !played(row) {
				continue
			}
			share := 0.0
			for _, p := range row.Picks {
				share += float64(owners[row.Event][p.Element]) / n
			}
			sum += share / float64(len(row.Picks))
			weeks++
		}
		pct := 0.0
		if weeks > 0 {
			pct = round2(100 * sum / float64(weeks))
		}
		rows = append(rows, userRow(u, pct))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Average ownership %"}, Rows: rows}, nil
}

func (a *Analyzer) popularity(least bool) *Table {
	picks := map[int]int{}
	managers := map[int]map[int]bool{}
	for _, u := range a.members {
		for _, row := range u.History {
			for _, p := range row.Picks {
				picks[p.Element]++
				if managers[p.Element] == nil {
					managers[p.Element] = map[int]bool{}
				}
				managers[p.Element][u.ID] = true
			}
		}
	}
	rows := make([]Row, 0, len(picks))
	for _, id := range sortedKeys(picks) {
		rows = append(rows, Row{Label: a.ix.Name(id), Values: []any{picks[id], len(managers[id])}})
	}
	sortRows(rows, 0, !least)
	return &Table{Columns: []string{"Player", "Times picked", "Managers"}, Rows: top(rows)}
}

func (a *Analyzer) mostPopularPicks() (*Table, error)  { return a.popularity(false), nil }
func (a *Analyzer) leastPopularPicks() (*Table, error) { return a.popularity(true), nil }

func (a *Analyzer) distinctPlayers() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		seen := map[int]bool{}
		for _, row := range u.History {
			for _, p := range row.Picks {
				seen[p.Element] = true
			}
		}
		rows = append(rows, userRow(u, len(seen)))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Distinct players"}, Rows: rows}, nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
