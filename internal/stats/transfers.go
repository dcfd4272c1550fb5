package stats

import (
	"fmt"
	"strings"

	"fpl-league-stats/internal/model"
)

// hitCost is what each transfer beyond the free ones costs.
const hitCost = 4

func (a *Analyzer) benchPoints() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		sum := 0
		for _, row := range u.History {
			sum += row.PointsOnBench
		}
		rows = append(rows, userRow(u, sum))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Bench points"}, Rows: rows}, nil
}

func (a *Analyzer) autoSubPoints() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		subs := 0
		for _, row := range u.History {
			subs += len(row.AutoSubs)
		}
		rows = append(rows, userRow(u, a.autoSubTotal(u), subs))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Auto-sub points", "Auto-subs"}, Rows: rows}, nil
}

var chipOrder = []model.Chip{model.TripleCaptain, model.BenchBoost, model.FreeHit, model.Wildcard, model.AssistantMgr}

func (a *Analyzer) chipUsage() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		used := map[model.Chip][]string{}
		n := 0
		for _, row := range u.History {
			for _, c := range row.Chips {
				used[c.Name] = append(used[c.Name], fmt.Sprintf("GW%d (%d pts)", row.Event, row.Points))
				n++
			}
		}
		values := []any{n}
		for _, c := range chipOrder {
			cell := "-"
			if len(used[c]) > 0 {
				cell = strings.Join(used[c], ", ")
			}
			values = append(values, cell)
		}
		rows = append(rows, userRow(u, values...))
	}
	cols := []string{"Team", "Chips used"}
	for _, c := range chipOrder {
		cols = append(cols, c.Label())
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

func (a *Analyzer) chipPoints() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		all, wildcard := 0, 0
		for _, row := range u.History {
			for _, c := range row.Chips {
				all += row.Points
				if c.Name == model.Wildcard {
					wildcard += row.Points
				}
			}
		}
		rows = append(rows, userRow(u, all-wildcard, all, wildcard))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Chip points without wildcard", "Chip points", "Wildcard points"}, Rows: rows}, nil
}

// hits treats the first transfers of a gameweek as the paid ones: a
// gameweek with n transfers costing c points had n - (4n-c)/4 hits.
func (a *Analyzer) hits() (*Table, error) {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		var transfers, cost, hits, net int
		for _, row := range u.History {
			transfers += row.EventTransfers
			cost += row.EventTransfersCost
			if row.EventTransfersCost <= 0 {
				continue
			}
			n := len(row.Transfers)
			free := max(0, (n*hitCost-row.EventTransfersCost)/hitCost)
			for _, t := range row.Transfers[:n-min(free, n)] {
				hits++
				net += a.ix.Points(t.ElementIn, row.Event) - a.ix.Points(t.ElementOut, row.Event) - hitCost
			}
		}
		rows = append(rows, userRow(u, net, ratio(net, hits), hits, transfers, cost))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Net points from hits", "Average per hit", "Hits", "Transfers", "Transfer cost"}, Rows: rows}, nil
}

// transferPoints sums, per member, the points of players moved in (or out)
// in the gameweek of the transfer. A player moved in and straight back out
// within one wildcard or free hit is ignored either way.
func (a *Analyzer) transferPoints(out bool) *Table {
	rows := make([]Row, 0, len(a.members))
	for _, u := range a.members {
		sum, n := 0, 0
		for _, row := range u.History {
			for _, t := range row.Transfers {
				element := t.ElementIn
				if out {
					element = t.ElementOut
				}
				if row.HasPick(element) == out {
					continue
				}
				sum += a.ix.Points(element, row.Event)
				n++
			}
		}
		rows = append(rows, userRow(u, sum, ratio(sum, n), n))
	}
	sortRows(rows, 0, true)
	return &Table{Columns: []string{"Team", "Points", "Average", "Transfers"}, Rows: rows}
}

func (a *Analyzer) bestTransfers() (*Table, error)  { return a.transferPoints(false), nil }
func (a *Analyzer) worstTransfers() (*Table, error) { return a.transferPoints(true), nil }
