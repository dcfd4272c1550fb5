package points

import (
	"fpl-league-stats/internal/model"
)

// Minimum outfield formation: 3 defenders, 2 midfielders, 1 forward.
const (
	MinDefenders   = 3
	MinMidfielders = 2
	MinForwards    = 1
)

const outfieldSlots = model.StartingSlots - 1

// Lineup is the eleven that scored for a fixed squad in one gameweek after
// automatic substitutions.
type Lineup struct {
	Gameweek          int
	Elements          []int
	AutoSubs          []model.AutoSub
	Points            int
	CaptainPoints     int // extra points from the armband
	ViceCaptainPoints int // extra points when the vice-captain stood in
	AutoSubPoints     int
	PerPlayer         map[int]int
}

// SimulateLineup plays a fixed fifteen-man squad in gameweek gw. Starters who
// did not play are replaced from the bench in bench order: the reserve keeper
// only for the keeper, outfield reserves only while the formation minimums can
// still be met. The armband doubles the captain's points, or the
// vice-captain's when the captain did not play.
func SimulateLineup(picks []model.Pick, gw int, ix *Index) Lineup {
	l := Lineup{Gameweek: gw, PerPlayer: map[int]int{}}

	var starters, bench []model.Pick
	for _, p := range picks {
		if p.Starter() {
			starters = append(starters, p)
		} else {
			bench = append(bench, p)
		}
	}

	counts := map[model.Position]int{}
	haveKeeper := false
	var captain, vice *model.Pick
	played := map[int]bool{}

	in := func(p model.Pick, fromBench bool) {
		pts := ix.Points(p.Element, gw)
		l.Elements = append(l.Elements, p.Element)
		l.Points += pts
		l.PerPlayer[p.Element] += pts
		played[p.Element] = true
		if fromBench {
			l.AutoSubPoints += pts
		}
	}

	keeperOut := 0
	var outfieldOut []int
	for i := range starters {
		p := starters[i]
		if p.IsCaptain {
			captain = &starters[i]
		}
		if p.IsViceCaptain {
			vice = &starters[i]
		}
		pos := ix.Position(p.Element)
		if !ix.Round(p.Element, gw).Played() {
			if pos == model.Goalkeeper {
				keeperOut = p.Element
			} else {
				outfieldOut = append(outfieldOut, p.Element)
			}
			continue
		}
		if pos == model.Goalkeeper {
			haveKeeper = true
		} else {
			counts[pos]++
		}
		in(p, false)
	}

	sub := func(p model.Pick, replaces int) {
		l.AutoSubs = append(l.AutoSubs, model.AutoSub{Event: gw, ElementIn: p.Element, ElementOut: replaces})
		in(p, true)
	}

	for i := range bench {
		p := bench[i]
		if p.IsViceCaptain {
			vice = &bench[i]
		}
		if !ix.Round(p.Element, gw).Played() {
			continue
		}
		pos := ix.Position(p.Element)
		if pos == model.Goalkeeper {
			if !haveKeeper && keeperOut != 0 {
				haveKeeper = true
				sub(p, keeperOut)
			}
			continue
		}
		if len(outfieldOut) > 0 && canAdd(counts, pos) {
			counts[pos]++
			sub(p, outfieldOut[0])
			outfieldOut = outfieldOut[1:]
		}
	}

	switch {
	case captain != nil && played[captain.Element]:
		l.CaptainPoints = ix.Points(captain.Element, gw)
		l.PerPlayer[captain.Element] += l.CaptainPoints
	case vice != nil && played[vice.Element]:
		l.ViceCaptainPoints = ix.Points(vice.Element, gw)
		l.PerPlayer[vice.Element] += l.ViceCaptainPoints
	}
	l.Points += l.CaptainPoints + l.ViceCaptainPoints
	return l
}

// canAdd reports whether one more outfield player at pos still leaves room
// for every position to reach its minimum.
func canAdd(counts map[model.Position]int, pos model.Position) bool {
	filled := counts[model.Defender] + counts[model.Midfielder] + counts[model.Forward]
	if filled >= outfieldSlots {
		return false
	}
	after := map[model.Position]int{
		model.Defender:   counts[model.Defender],
		model.Midfielder: counts[model.Midfielder],
		model.Forward:    counts[model.Forward],
	}
	after[pos]++
	short := max(0, MinDefenders-after[model.Defender]) +
		max(0, MinMidfielders-after[model.Midfielder]) +
		max(0, MinForwards-after[model.Forward])
	return short <= outfieldSlots-(filled+1)
}
