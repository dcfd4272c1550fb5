package stats

import (
	"fmt"

	"fpl-league-stats/internal/model"
	"fpl-league-stats/internal/points"
)

// Hindsight compares one user's captain choice in one gameweek with the best
// choice they could have made among the picks that counted.
type Hindsight struct {
	UserID      int `json:"user_id"`
	Gameweek    int `json:"gameweek"`
	Captain     int `json:"captain"`
	Multiplier  int `json:"multiplier"`
	Actual      int `json:"actual"`
	Best        int `json:"best"`
	BestElement int `json:"best_element"`
}

// Missed returns the points the captain choice left on the table.
func (h Hindsight) Missed() int { return h.Best - h.Actual }

// armbandMultiplier is 3 in a triple captain gameweek and 2 otherwise.
func armbandMultiplier(row model.UserGameweek) int {
	if row.ChipUsed(model.TripleCaptain) {
		return 3
	}
	for _, p := range row.Picks {
		if p.Multiplier > 2 {
			return p.Multiplier
		}
	}
	return 2
}

// CaptainChoice reports captain hindsight for one user and gameweek. The
// armband counts for whoever wore it: the captain, or the vice-captain when
// the captain did not play.
func (a *Analyzer) CaptainChoice(userID int, gw int) (Hindsight, error) {
	if a.gap != nil {
		return Hindsight{}, a.gap
	}
	u, ok := a.member(userID)
	if !ok {
		return Hindsight{}, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	if gw < 1 || gw > len(u.History) {
		return Hindsight{}, fmt.Errorf("%w: gameweek %d is after gameweek %d", ErrDataGap, gw, a.target)
	}
	row := u.History[gw-1]
	if !played(row) {
		return Hindsight{}, fmt.Errorf("%w: user %d has no team in gameweek %d", ErrDataGap, userID, gw)
	}
	return a.hindsight(u.ID, row), nil
}

func (a *Analyzer) hindsight(userID int, row model.UserGameweek) Hindsight {
	h := Hindsight{UserID: userID, Gameweek: row.Event, Multiplier: armbandMultiplier(row)}
	if c, ok := row.Captain(); ok {
		h.Captain = c.Element
	}
	for _, p := range row.Picks {
		if p.Multiplier >= 2 {
			h.Actual = a.ix.Points(p.Element, row.Event) * h.Multiplier
		}
		if !p.Counted() {
			continue
		}
		if pts := a.ix.Points(p.Element, row.Event) * h.Multiplier; h.BestElement == 0 || pts > h.Best {
			h.Best, h.BestElement = pts, p.Element
		}
	}
	return h
}

func (a *Analyzer) captainHindsight() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		actual, best, right := 0, 0, 0
		for _, row := range u.History {
			if !played(row) {
				continue
			}
			h := a.hindsight(u.ID, row)
			actual += h.Actual
			best += h.Best
			if h.Missed() == 0 {
				right++
			}
		}
		rows = append(rows, userRow(u, actual, best, best-actual, right))
	}
	sortRows(rows, 2, false)
	return &Table{Columns: []string{"Team", "Captain points", "Best possible", "Points missed", "Best choices"}, Rows: rows}, nil
}

type captaincy struct {
	extra          int // points beyond a single count, vice-captain included
	viceExtra      int
	viceGameweeks  int
	withoutCaptain int
}

func (a *Analyzer) captaincy(u model.User) captaincy {
	var c captaincy
	for _, row := range u.History {
		if !played(row) {
			continue
		}
		captain, _ := row.Captain()
		vice, hasVice := row.ViceCaptain()
		switch {
		case captain.Multiplier > 0:
			c.extra += (captain.Multiplier - 1) * a.ix.Points(captain.Element, row.Event)
		case hasVice && vice.Multiplier > 0:
			pts := (vice.Multiplier - 1) * a.ix.Points(vice.Element, row.Event)
			c.extra += pts
			c.viceExtra += pts
			c.viceGameweeks++
		default:
			c.withoutCaptain++
		}
	}
	return c
}

func (a *Analyzer) captainForesight() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		c := a.captaincy(u)
		rows = append(rows, userRow(u, c.extra, c.viceExtra, c.viceGameweeks, c.withoutCaptain))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Captain points", "Vice-captain points", "Vice-captain gameweeks", "Gameweeks without captain"}, Rows: rows}, nil
}

func (a *Analyzer) pointsWithoutCaptain() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		rows = append(rows, userRow(u, total(u)-a.captaincy(u).extra, total(u)))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Points without captain", "Total points"}, Rows: rows}, nil
}

func (a *Analyzer) gw1Team() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		first := u.History[0]
		if !played(first) {
			rows = append(rows, userRow(u, 0, 0, 0, 0, "-"))
			continue
		}
		var sum, captain, vice, subs int
		for gw := 1; gw <= a.target; gw++ {
			l := points.SimulateLineup(first.Picks, gw, a.ix)
			sum += l.Points
			captain += l.CaptainPoints
			vice += l.ViceCaptainPoints
			subs += l.AutoSubPoints
		}
		names := "-"
		if c, ok := first.Captain(); ok {
			names = a.ix.Name(c.Element)
			if v, ok := first.ViceCaptain(); ok {
				names += " (" + a.ix.Name(v.Element) + ")"
			}
		}
		rows = append(rows, userRow(u, sum, captain, vice, subs, names))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Total points", "Captain points", "Vice-captain points", "Auto-sub points", "Captain (vice)"}, Rows: rows}, nil
}

func (a *Analyzer) autoSubTotal(u model.User) int {
	sum := 0
	for _, row := range u.History {
		for _, s := range row.AutoSubs {
			sum += a.ix.Points(s.ElementIn, row.Event)
		}
	}
	return sum
}

// benchBoostBench returns what the bench scored in bench boost gameweeks.
func (a *Analyzer) benchBoostBench(u model.User) int {
	sum := 0
	for _, row := range u.History {
		if !row.ChipUsed(model.BenchBoost) {
			continue
		}
		for _, p := range row.Picks {
			if !p.Starter() {
				sum += a.ix.Points(p.Element, row.Event)
			}
		}
	}
	return sum
}

func (a *Analyzer) vanilla() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		extra := a.captaincy(u).extra
		subs := a.autoSubTotal(u)
		bench := a.benchBoostBench(u)
		rows = append(rows, userRow(u, total(u)-extra-subs-bench, total(u), extra, subs, bench))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Vanilla points", "Total points", "Extra captain points", "Auto-sub points", "Bench boost bench points"}, Rows: rows}, nil
}
