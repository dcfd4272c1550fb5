package refresh

import (
	"sort"

	"fpl-league-stats/internal/model"
)

// mergeGameweeks upserts incoming gameweeks by id and returns them sorted.
func mergeGameweeks(stored []model.Gameweek, incoming []model.Gameweek) []model.Gameweek {
	byID := make(map[int]model.Gameweek, len(stored)+len(incoming))
	for _, g := range stored {
		byID[g.ID] = g
	}
	for _, g := range incoming {
		byID[g.ID] = g
	}
	out := make([]model.Gameweek, 0, len(byID))
	for _, g := range byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// mergeHistory upserts rows by event and returns them sorted by event.
func mergeHistory(stored []model.UserGameweek, incoming []model.UserGameweek) []model.UserGameweek {
	byEvent := make(map[int]model.UserGameweek, len(stored)+len(incoming))
	for _, r := range stored {
		byEvent[r.Event] = r
	}
	for _, r := range incoming {
		byEvent[r.Event] = r
	}
	out := make([]model.UserGameweek, 0, len(byEvent))
	for _, r := range byEvent {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}

// fillHistory inserts empty rows so events run 1..through without gaps.
// Members who joined after gameweek 1 have no rows for the weeks they missed.
func fillHistory(rows []model.UserGameweek, through int) []model.UserGameweek {
	have := make(map[int]bool, len(rows))
	for _, r := range rows {
		have[r.Event] = true
	}
	var missing []model.UserGameweek
	for gw := 1; gw <= through; gw++ {
		if !have[gw] {
			missing = append(missing, model.UserGameweek{Event: gw})
		}
	}
	if len(missing) == 0 {
		return rows
	}
	return mergeHistory(rows, missing)
}

// latestFinished returns the highest finished gameweek in gws, or 0.
func latestFinished(gws []model.Gameweek) int {
	last := 0
	for _, gw := range gws {
		if gw.Finished && gw.ID > last {
			last = gw.ID
		}
	}
	return last
}

// pruneHistory drops rows after gameweek last. Those rows came from a live
// fetch and are replaced once the gameweek finishes.
func pruneHistory(rows []model.UserGameweek, last int) []model.UserGameweek {
	out := rows[:0:0]
	for _, r := range rows {
		if r.Event <= last {
			out = append(out, r)
		}
	}
	return out
}

// pruneUser drops everything a user has recorded after gameweek last.
func pruneUser(u *model.User, last int) {
	u.History = pruneHistory(u.History, last)
	chips := u.Chips[:0:0]
	for _, c := range u.Chips {
		if c.Event <= last {
			chips = append(chips, c)
		}
	}
	u.Chips = chips
	transfers := u.Transfers[:0:0]
	for _, t := range u.Transfers {
		if t.Event <= last {
			transfers = append(transfers, t)
		}
	}
	u.Transfers = transfers
	attach(u)
}

func transferKey(t model.Transfer) [4]any {
	return [4]any{t.Event, t.Time, t.ElementIn, t.ElementOut}
}

func mergeTransfers(stored []model.Transfer, incoming []model.Transfer) []model.Transfer {
	byKey := make(map[[4]any]model.Transfer, len(stored)+len(incoming))
	for _, t := range stored {
		byKey[transferKey(t)] = t
	}
	for _, t := range incoming {
		byKey[transferKey(t)] = t
	}
	out := make([]model.Transfer, 0, len(byKey))
	for _, t := range byKey {
		out = append(out, t)
	}
	sortTransfers(out)
	return out
}

func sortTransfers(ts []model.Transfer) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.ElementIn != b.ElementIn {
			return a.ElementIn < b.ElementIn
		}
		return a.ElementOut < b.ElementOut
	})
}

func mergeChips(stored []model.ChipUsage, incoming []model.ChipUsage) []model.ChipUsage {
	type key struct {
		event int
		name  model.Chip
	}
	byKey := make(map[key]model.ChipUsage, len(stored)+len(incoming))
	for _, c := range stored {
		byKey[key{c.Event, c.Name}] = c
	}
	for _, c := range incoming {
		byKey[key{c.Event, c.Name}] = c
	}
	out := make([]model.ChipUsage, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Event != out[j].Event {
			return out[i].Event < out[j].Event
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// mergeFixtures upserts a player's fixture rows by fixture id.
func mergeFixtures(stored []model.PlayerFixture, incoming []model.PlayerFixture) []model.PlayerFixture {
	byFixture := make(map[int]model.PlayerFixture, len(stored)+len(incoming))
	for _, f := range stored {
		byFixture[f.Fixture] = f
	}
	for _, f := range incoming {
		byFixture[f.Fixture] = f
	}
	out := make([]model.PlayerFixture, 0, len(byFixture))
	for _, f := range byFixture {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Fixture < out[j].Fixture
	})
	return out
}

// pruneFixtures drops fixture rows for rounds after last.
func pruneFixtures(rows []model.PlayerFixture, last int) []model.PlayerFixture {
	out := rows[:0:0]
	for _, f := range rows {
		if f.Round <= last {
			out = append(out, f)
		}
	}
	return out
}

// attach distributes a user's chips and transfers onto their history rows
// and rebuilds the user-level lists from the rows, so both views agree.
func attach(u *model.User) {
	chipsByEvent := map[int][]model.ChipUsage{}
	for _, c := range u.Chips {
		chipsByEvent[c.Event] = append(chipsByEvent[c.Event], c)
	}
	transfersByEvent := map[int][]model.Transfer{}
	for _, t := range u.Transfers {
		transfersByEvent[t.Event] = append(transfersByEvent[t.Event], t)
	}

	var autoSubs []model.AutoSub
	for i := range u.History {
		row := &u.History[i]
		row.Chips = chipsByEvent[row.Event]
		row.Transfers = transfersByEvent[row.Event]
		autoSubs = append(autoSubs, row.AutoSubs...)
	}
	u.AutoSubs = autoSubs
}

// referencedPlayers returns every player id used by any pick, auto-sub or
// transfer, sorted.
func referencedPlayers(users map[int]model.User) []int {
	seen := map[int]bool{}
	for _, u := range users {
		for _, row := range u.History {
			for _, p := range row.Picks {
				seen[p.Element] = true
			}
			for _, s := range row.AutoSubs {
				seen[s.ElementIn] = true
				seen[s.ElementOut] = true
			}
		}
		for _, t := range u.Transfers {
			seen[t.ElementIn] = true
			seen[t.ElementOut] = true
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
