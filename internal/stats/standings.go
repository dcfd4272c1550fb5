package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fpl-league-stats/internal/model"
)

const streakLength = 5

type placing struct {
	user  model.User
	total int
}

// historicStandings orders the members by total points after every gameweek
// up to the target. Ties keep league order.
func (a *Analyzer) historicStandings() [][]placing {
	out := make([][]placing, 0, a.target)
	for gw := 1; gw <= a.target; gw++ {
		table := make([]placing, 0, len(a.members))
		for _, u := range a.members {
			table = append(table, placing{user: u, total: u.History[gw-1].TotalPoints})
		}
		sort.SliceStable(table, func(i, j int) bool { return table[i].total > table[j].total })
		out = append(out, table)
	}
	return out
}

func (a *Analyzer) pointsLeader() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		rows = append(rows, userRow(u, 0, u.PlayerName, total(u)))
	}
	sortRows(rows, 2, true)
	// equal totals share a rank
	for i := range rows {
		rank := i + 1
		if i > 0 && rows[i].Values[2] == rows[i-1].Values[2] {
			rank = rows[i-1].Values[0].(int)
		}
		rows[i].Values[0] = rank
	}
	return &Table{Columns: []string{"Team", "Rank", "Manager", "Points"}, Rows: rows}, nil
}

func (a *Analyzer) placeCounts(last bool) *Table {
	counts := map[int]int{}
	for _, table := range a.historicStandings() {
		p := table[0]
		if last {
			p = table[len(table)-1]
		}
		counts[p.user.ID]++
	}
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		rows = append(rows, userRow(u, counts[u.ID]))
	}
	sortRows(rows, 0, true)
	return &Table{Rows: rows}
}

func (a *Analyzer) longestLeader() (*Table, error) {
	t := a.placeCounts(false)
	t.Columns = []string{"Team", "Gameweeks in first"}
	return t, nil
}

func (a *Analyzer) longestLoser() (*Table, error) {
	t := a.placeCounts(true)
	t.Columns = []string{"Team", "Gameweeks in last"}
	return t, nil
}

func (a *Analyzer) biggestLead() (*Table, error) {
	if len(a.members) < 2 {
		return nil, fmt.Errorf("%w: needs at least two members", ErrDataGap)
	}
	var rows []Row
	for i, table := range a.historicStandings() {
		rows = append(rows, userRow(table[0].user, table[0].total-table[1].total, i+1))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Lead", "Gameweek"}, Rows: top(rows)}, nil
}

func (a *Analyzer) biggestDeficit() (*Table, error) {
	if len(a.members) < 2 {
		return nil, fmt.Errorf("%w: needs at least two members", ErrDataGap)
	}
	var rows []Row
	for i, table := range a.historicStandings() {
		n := len(table)
		rows = append(rows, userRow(table[n-1].user, table[n-1].total-table[n-2].total, i+1))
	}
	sortRows(rows, 0, false)
	return &Table{Columns: []string{"Team", "Gap", "Gameweek"}, Rows: top(rows)}, nil
}

func (a *Analyzer) leaguePositions() (*Table, error) {
	held := map[int]map[int]bool{}
	for _, table := range a.historicStandings() {
		for pos, p := range table {
			if held[p.user.ID] == nil {
				held[p.user.ID] = map[int]bool{}
			}
			held[p.user.ID][pos+1] = true
		}
	}
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		positions := make([]int, 0, len(held[u.ID]))
		for pos := range held[u.ID] {
			positions = append(positions, pos)
		}
		sort.Ints(positions)
		labels := make([]string, len(positions))
		for i, pos := range positions {
			labels[i] = strconv.Itoa(pos)
		}
		rows = append(rows, userRow(u, len(positions), strings.Join(labels, ", ")))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Distinct positions", "Positions"}, Rows: rows}, nil
}

// streak finds the best (or worst) window of streakLength gameweeks in which
// the user had a team every week.
func streak(u model.User, worst bool) (sum int, from int, ok bool) {
	for start := 0; start+streakLength <= len(u.History); start++ {
		window := u.History[start : start+streakLength]
		s, complete := 0, true
		for _, row := range window {
			if len(row.Picks) == 0 {
				complete = false
				break
			}
			s += row.Points
		}
		if !complete {
			continue
		}
		if !ok || (worst && s < sum) || (!worst && s > sum) {
			sum, from, ok = s, window[0].Event, true
		}
	}
	return sum, from, ok
}

func (a *Analyzer) streaks(worst bool) (*Table, error) {
	if a.target < streakLength {
		return nil, fmt.Errorf("%w: needs %d gameweeks, have %d", ErrDataGap, streakLength, a.target)
	}
	var rows []Row
	for _, u := range a.members {
		sum, from, ok := streak(u, worst)
		if !ok {
			continue
		}
		rows = append(rows, userRow(u, sum, ratio(sum, streakLength), from, from+streakLength-1))
	}
	sortRows(rows, 0, !worst)
	return &Table{Columns: []string{"Team", "Points", "Average", "From gameweek", "To gameweek"}, Rows: rows}, nil
}

func (a *Analyzer) bestStreak() (*Table, error)  { return a.streaks(false) }
func (a *Analyzer) worstStreak() (*Table, error) { return a.streaks(true) }

// played reports whether the row is a real gameweek rather than a placeholder
// for a member who had not joined yet.
func played(row model.UserGameweek) bool { return len(row.Picks) > 0 }

func (a *Analyzer) mostStable() (*Table, error) {
	var rows []Row
	for _, u := range a.members {
		high, low, n, sum := 0, 0, 0, 0
		for _, row := range u.History {
			if !played(row) {
				continue
			}
			if n == 0 || row.Points > high {
				high = row.Points
			}
			if n == 0 || row.Points < low {
				low = row.Points
			}
			n++
			sum += row.Points
		}
		if n == 0 {
			continue
		}
		rows = append(rows, userRow(u, high-low, high, low, total(u), ratio(sum, n)))
	}
	sortRows(rows, 0, false)
	return &Table{Columns: []string{"Team", "Range", "Best gameweek", "Worst gameweek", "Total points", "Average"}, Rows: rows}, nil
}

func (a *Analyzer) gameweekScores(worst bool) *Table {
	var rows []Row
	for _, u := range a.members {
		for _, row := range u.History {
			if !played(row) {
				continue
			}
			rows = append(rows, userRow(u, row.Points, row.Rank, row.Event))
		}
	}
	sortRows(rows, 0, !worst)
	return &Table{Columns: []string{"Team", "Points", "Gameweek rank", "Gameweek"}, Rows: top(rows)}
}

func (a *Analyzer) bestGameweek() (*Table, error)  { return a.gameweekScores(false), nil }
func (a *Analyzer) worstGameweek() (*Table, error) { return a.gameweekScores(true), nil }

func (a *Analyzer) ranks(lowest bool) *Table {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		gwRank, overall := 0, 0
		for _, row := range u.History {
			if row.Rank > 0 && (gwRank == 0 || (lowest && row.Rank > gwRank) || (!lowest && row.Rank < gwRank)) {
				gwRank = row.Rank
			}
			if row.OverallRank > 0 && (overall == 0 || (lowest && row.OverallRank > overall) || (!lowest && row.OverallRank < overall)) {
				overall = row.OverallRank
			}
		}
		rows = append(rows, userRow(u, gwRank, overall))
	}
	// unranked members go last
	sort.SliceStable(rows, func(i, j int) bool {
		x, y := rows[i].Values[1].(int), rows[j].Values[1].(int)
		if x == 0 || y == 0 {
			return x != 0 && y == 0
		}
		if lowest {
			return x > y
		}
		return x < y
	})
	return &Table{Columns: []string{"Team", "Gameweek rank", "Overall rank"}, Rows: rows}
}

func (a *Analyzer) highestRank() (*Table, error) { return a.ranks(false), nil }
func (a *Analyzer) lowestRank() (*Table, error)  { return a.ranks(true), nil }
