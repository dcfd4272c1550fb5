package stats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-league-stats/internal/model"
)

// ---- fixture builders ----

func fx(round int, pts int) model.PlayerFixture {
	return model.PlayerFixture{Round: round, Fixture: round*100 + pts + 1, Minutes: 90, TotalPoints: pts}
}

func player(id int, pos model.Position, name string, fixtures ...model.PlayerFixture) model.Player {
	return model.Player{ID: id, ElementType: pos, WebName: name, History: fixtures}
}

// pk builds a pick; role is "C" for captain, "V" for vice-captain.
func pk(element int, multiplier int, role string) model.Pick {
	return model.Pick{
		Element:       element,
		Multiplier:    multiplier,
		IsCaptain:     role == "C",
		IsViceCaptain: role == "V",
	}
}

func row(event int, pts int, totalPts int, picks ...model.Pick) model.UserGameweek {
	for i := range picks {
		picks[i].Position = i + 1
	}
	return model.UserGameweek{Event: event, Points: pts, TotalPoints: totalPts, Picks: picks}
}

func user(id int, name string, rows ...model.UserGameweek) model.User {
	return model.User{ID: id, Name: name, PlayerName: name + " Manager", History: rows}
}

func snapshot(players []model.Player, users ...model.User) *model.Snapshot {
	s := &model.Snapshot{
		Season:  "2023_2024",
		League:  model.League{ID: 1, Name: "Test"},
		Users:   map[int]model.User{},
		Players: map[int]model.Player{},
	}
	last := 0
	for _, u := range users {
		s.League.Members = append(s.League.Members, u.ID)
		s.Users[u.ID] = u
		if n := len(u.History); n > last {
			last = n
		}
	}
	for gw := 1; gw <= last; gw++ {
		s.Gameweeks = append(s.Gameweeks, model.Gameweek{ID: gw, Finished: true})
	}
	for _, p := range players {
		s.Players[p.ID] = p
	}
	return s
}

func labels(t *Table) []string {
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Label)
	}
	return out
}

func clone(t *testing.T, s *model.Snapshot) *model.Snapshot {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	var out model.Snapshot
	require.NoError(t, json.Unmarshal(b, &out))
	return &out
}

// twoWeekLeague is three members over two finished gameweeks.
func twoWeekLeague() *model.Snapshot {
	players := []model.Player{
		player(1, model.Goalkeeper, "Keeper", fx(1, 2), fx(2, 6)),
		player(2, model.Defender, "Back", fx(1, 10), fx(2, 1)),
		player(3, model.Midfielder, "Mid", fx(1, 5), fx(2, 8)),
		player(4, model.Forward, "Striker", fx(1, 3), fx(2, 12)),
	}
	return snapshot(players,
		user(10, "Alpha",
			row(1, 50, 50, pk(1, 2, "C"), pk(2, 1, "V"), pk(3, 0, "")),
			row(2, 20, 70, pk(1, 1, "V"), pk(2, 1, ""), pk(3, 2, "C")),
		),
		user(20, "Bravo",
			row(1, 62, 62, pk(2, 2, "C"), pk(3, 1, "V"), pk(4, 1, "")),
			row(2, 10, 72, pk(2, 2, "C"), pk(3, 1, "V"), pk(4, 1, "")),
		),
		user(30, "Charlie",
			row(1, 47, 47, pk(4, 2, "C"), pk(1, 1, "V")),
			row(2, 40, 87, pk(4, 2, "C"), pk(1, 1, "V")),
		),
	)
}

// ---- catalog ----

func TestCatalog_OrderAndUniqueness(t *testing.T) {
	infos := Catalog()
	require.NotEmpty(t, infos)
	assert.Equal(t, "points_leader", infos[0].Key)
	assert.Equal(t, "vanilla", infos[len(infos)-1].Key)

	seen := map[string]bool{}
	for _, info := range infos {
		assert.False(t, seen[info.Key], "duplicate key %s", info.Key)
		seen[info.Key] = true
		assert.NotEmpty(t, info.Title)
		assert.NotEmpty(t, info.Description)
	}
	assert.True(t, seen["captain_hindsight"])
	assert.True(t, seen["chip_usage"])
	assert.True(t, seen["most_popular_picks"])
}

func TestCompute_UnknownStatistic(t *testing.T) {
	_, err := New(twoWeekLeague(), Options{}).Compute("nope")
	assert.ErrorIs(t, err, ErrUnknownStatistic)
}

func TestCompute_EveryStatisticLeavesSnapshotUntouched(t *testing.T) {
	snap := twoWeekLeague()
	before := clone(t, snap)
	a := New(snap, Options{})

	for _, info := range Catalog() {
		tbl, err := a.Compute(info.Key)
		if err != nil {
			assert.ErrorIs(t, err, ErrDataGap, info.Key)
			continue
		}
		assert.Equal(t, info.Key, tbl.Key)
		assert.Equal(t, 2, tbl.Gameweek)
		for _, r := range tbl.Rows {
			assert.Len(t, r.Values, len(tbl.Columns)-1, info.Key)
		}
	}
	assert.Equal(t, before, clone(t, snap))
}

func TestCompute_DataGapIsPerStatistic(t *testing.T) {
	a := New(twoWeekLeague(), Options{})
	_, err := a.Compute("best_streak")
	assert.ErrorIs(t, err, ErrDataGap)
	_, err = a.Compute("points_leader")
	assert.NoError(t, err)
}

func TestCompute_GameweekBeyondData(t *testing.T) {
	a := New(twoWeekLeague(), Options{Gameweek: 3})
	assert.Equal(t, 3, a.Target())
	_, err := a.Compute("points_leader")
	assert.ErrorIs(t, err, ErrDataGap)
	_, err = a.CaptainChoice(10, 1)
	assert.ErrorIs(t, err, ErrDataGap)
}

func TestNew_TargetSelection(t *testing.T) {
	snap := twoWeekLeague()
	snap.Gameweeks = append(snap.Gameweeks, model.Gameweek{ID: 3, IsCurrent: true})

	assert.Equal(t, 2, New(snap, Options{}).Target())
	assert.Equal(t, 3, New(snap, Options{Live: true}).Target())
	assert.Equal(t, 1, New(snap, Options{Gameweek: 1}).Target())
}

// ---- standings ----

func TestPointsLeader(t *testing.T) {
	a := New(twoWeekLeague(), Options{Gameweek: 1})
	tbl, err := a.Compute("points_leader")
	require.NoError(t, err)

	// totals 50, 62, 47: the 62 is first
	assert.Equal(t, []string{"Bravo", "Alpha", "Charlie"}, labels(tbl))
	assert.Equal(t, []any{1, "Bravo Manager", 62}, tbl.Rows[0].Values)
	assert.Equal(t, 3, tbl.Rows[2].Values[0])
}

func TestPointsLeader_TiesShareRank(t *testing.T) {
	snap := twoWeekLeague()
	u := snap.Users[30]
	u.History = []model.UserGameweek{u.History[0], {Event: 2, Points: 25, TotalPoints: 72, Picks: u.History[1].Picks}}
	snap.Users[30] = u

	tbl, err := New(snap, Options{}).Compute("points_leader")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Rows[0].Values[0])
	assert.Equal(t, 1, tbl.Rows[1].Values[0])
	assert.Equal(t, 3, tbl.Rows[2].Values[0])
}

func TestLeaderAndLoser(t *testing.T) {
	a := New(twoWeekLeague(), Options{})

	leader, err := a.Compute("longest_leader")
	require.NoError(t, err)
	// Bravo led after gameweek 1, Charlie after gameweek 2
	assert.Equal(t, 1, leader.Rows[0].Values[0])
	assert.Equal(t, "Bravo", leader.Rows[0].Label)

	loser, err := a.Compute("longest_loser")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Charlie", "Bravo"}, labels(loser))

	lead, err := a.Compute("biggest_lead")
	require.NoError(t, err)
	assert.Equal(t, []any{15, 2}, lead.Rows[0].Values)

	deficit, err := a.Compute("biggest_deficit")
	require.NoError(t, err)
	assert.Equal(t, "Charlie", deficit.Rows[0].Label)
	assert.Equal(t, []any{-3, 1}, deficit.Rows[0].Values)
}

func TestLeaguePositions(t *testing.T) {
	tbl, err := New(twoWeekLeague(), Options{}).Compute("league_positions")
	require.NoError(t, err)
	// everyone held two places; ties keep league order
	assert.Equal(t, "Alpha", tbl.Rows[0].Label)
	assert.Equal(t, []any{2, "2, 3"}, tbl.Rows[0].Values)
	assert.Equal(t, []any{2, "1, 3"}, tbl.Rows[2].Values)
}

func TestStreaks(t *testing.T) {
	var rows []model.UserGameweek
	scores := []int{10, 50, 50, 50, 50, 50, 10}
	sum := 0
	for i, s := range scores {
		sum += s
		rows = append(rows, row(i+1, s, sum, pk(1, 2, "C")))
	}
	snap := snapshot([]model.Player{player(1, model.Forward, "F")}, user(1, "Solo", rows...))

	a := New(snap, Options{})
	best, err := a.Compute("best_streak")
	require.NoError(t, err)
	assert.Equal(t, []any{250, 50.0, 2, 6}, best.Rows[0].Values)

	worst, err := a.Compute("worst_streak")
	require.NoError(t, err)
	assert.Equal(t, 210, worst.Rows[0].Values[0])
	assert.Equal(t, 1, worst.Rows[0].Values[2])
}

func TestMostStable_IgnoresWeeksBeforeJoining(t *testing.T) {
	snap := snapshot([]model.Player{player(1, model.Forward, "F")},
		user(1, "Steady", row(1, 40, 40, pk(1, 2, "C")), row(2, 44, 84, pk(1, 2, "C"))),
		user(2, "Late", model.UserGameweek{Event: 1}, row(2, 70, 70, pk(1, 2, "C"))),
	)
	tbl, err := New(snap, Options{}).Compute("most_stable")
	require.NoError(t, err)
	assert.Equal(t, []string{"Late", "Steady"}, labels(tbl))
	assert.Equal(t, 0, tbl.Rows[0].Values[0])
}

func TestBestAndWorstGameweek(t *testing.T) {
	a := New(twoWeekLeague(), Options{})
	best, err := a.Compute("best_gameweek")
	require.NoError(t, err)
	assert.Equal(t, "Bravo", best.Rows[0].Label)
	assert.Equal(t, 62, best.Rows[0].Values[0])

	worst, err := a.Compute("worst_gameweek")
	require.NoError(t, err)
	assert.Equal(t, 10, worst.Rows[0].Values[0])
	assert.Len(t, worst.Rows, 6)
}

// ---- captaincy ----

func TestCaptainChoice_Hindsight(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Dud", fx(1, 2)),
		player(2, model.Midfielder, "Star", fx(1, 10)),
		player(3, model.Defender, "Bench", fx(1, 15)),
	}
	snap := snapshot(players, user(1, "Solo", row(1, 14, 14, pk(1, 2, "C"), pk(2, 1, "V"), pk(3, 0, ""))))

	h, err := New(snap, Options{}).CaptainChoice(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Multiplier)
	assert.Equal(t, 2*2, h.Actual)
	assert.Equal(t, 10*2, h.Best)
	assert.Equal(t, 2, h.BestElement)
	assert.Equal(t, 16, h.Missed())

	// the same choice under a triple captain
	tc := snap.Users[1]
	tc.History = []model.UserGameweek{row(1, 16, 16, pk(1, 3, "C"), pk(2, 1, "V"), pk(3, 0, ""))}
	tc.History[0].Chips = []model.ChipUsage{{Name: model.TripleCaptain, Event: 1}}
	snap.Users[1] = tc

	h, err = New(snap, Options{}).CaptainChoice(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Multiplier)
	assert.Equal(t, 2*3, h.Actual)
	assert.Equal(t, 10*3, h.Best)

	_, err = New(snap, Options{}).CaptainChoice(99, 1)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestCaptainHindsightTable(t *testing.T) {
	tbl, err := New(twoWeekLeague(), Options{}).Compute("captain_hindsight")
	require.NoError(t, err)
	// Charlie captained the top counted scorer in both weeks
	// Alpha: gw1 keeper 2 vs back 10, gw2 mid 8 vs keeper 6
	byLabel := map[string][]any{}
	for _, r := range tbl.Rows {
		byLabel[r.Label] = r.Values
	}
	assert.Equal(t, []any{4 + 16, 20 + 16, 16, 1}, byLabel["Alpha"])
	assert.Equal(t, 0, byLabel["Charlie"][2])
}

func TestCaptainForesight_ViceCaptainStandsIn(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Injured"),
		player(2, model.Midfielder, "Vice", fx(1, 7)),
	}
	snap := snapshot(players,
		user(1, "Solo", row(1, 14, 14, pk(1, 0, "C"), pk(2, 2, "V"))),
	)
	a := New(snap, Options{})
	tbl, err := a.Compute("captain_foresight")
	require.NoError(t, err)
	assert.Equal(t, []any{7, 7, 1, 0}, tbl.Rows[0].Values)

	h, err := a.CaptainChoice(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 14, h.Actual)

	without, err := a.Compute("points_without_captain")
	require.NoError(t, err)
	assert.Equal(t, []any{7, 14}, without.Rows[0].Values)
}

func TestVanilla(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Cap", fx(1, 5)),
		player(2, model.Midfielder, "Sub", fx(1, 3)),
		player(3, model.Defender, "Reserve", fx(1, 4)),
	}
	gw := row(1, 0, 30, pk(1, 2, "C"), pk(2, 1, "V"))
	for i := len(gw.Picks); i < 11; i++ {
		gw.Picks = append(gw.Picks, model.Pick{Element: 2, Position: i + 1})
	}
	gw.Picks = append(gw.Picks, model.Pick{Element: 3, Position: 12, Multiplier: 1})
	gw.AutoSubs = []model.AutoSub{{Event: 1, ElementIn: 2, ElementOut: 9}}
	gw.Chips = []model.ChipUsage{{Name: model.BenchBoost, Event: 1}}
	snap := snapshot(players, user(1, "Solo", gw))

	tbl, err := New(snap, Options{}).Compute("vanilla")
	require.NoError(t, err)
	// 30 - 5 extra captain - 3 auto-sub - 4 bench boost
	assert.Equal(t, []any{18, 30, 5, 3, 4}, tbl.Rows[0].Values)
}

func TestGW1Team(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Cap", fx(1, 5), fx(2, 8)),
		player(2, model.Midfielder, "Vice", fx(1, 3), fx(2, 2)),
	}
	snap := snapshot(players,
		user(1, "Early",
			row(1, 13, 13, pk(1, 2, "C"), pk(2, 1, "V")),
			row(2, 4, 17, pk(2, 2, "C"), pk(1, 1, "V")),
		),
		user(2, "Late", model.UserGameweek{Event: 1}, row(2, 10, 10, pk(1, 2, "C"))),
	)
	tbl, err := New(snap, Options{}).Compute("gw1_team")
	require.NoError(t, err)
	assert.Equal(t, "Early", tbl.Rows[0].Label)
	// kept team: 5+3+5 then 8+2+8
	assert.Equal(t, []any{31, 13, 0, 0, "Cap (Vice)"}, tbl.Rows[0].Values)
	assert.Equal(t, []any{0, 0, 0, 0, "-"}, tbl.Rows[1].Values)
}

// ---- players ----

func TestPlayerTotals(t *testing.T) {
	keeper := player(1, model.Goalkeeper, "Keeper", fx(1, 10))
	keeper.History[0].CleanSheets = 1
	keeper.History[0].PenaltiesSaved = 1
	mid := player(2, model.Midfielder, "Mid", fx(1, 13))
	mid.History[0].GoalsScored = 1
	mid.History[0].Assists = 1
	mid.History[0].CleanSheets = 1
	mid.History[0].YellowCards = 1
	mid.History[0].Bonus = 3
	benched := player(3, model.Forward, "Benched", fx(1, 9))
	benched.History[0].GoalsScored = 2

	snap := snapshot([]model.Player{keeper, mid, benched},
		user(1, "Solo", row(1, 36, 36, pk(1, 1, "V"), pk(2, 2, "C"), pk(3, 0, ""))),
	)
	a := New(snap, Options{})

	cases := map[string][]any{
		"top_scorers":       {1},
		"assist_kings":      {1},
		"goal_involvements": {2, 1, 1},
		"clean_sheets":      {1, 5},
		"penalties_saved":   {1, 5},
		"cards":             {-1, 1, 0},
		"bonus_points":      {3, 0},
	}
	for key, want := range cases {
		tbl, err := a.Compute(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, tbl.Rows[0].Values, key)
	}

	mvp, err := a.Compute("mvp")
	require.NoError(t, err)
	assert.Equal(t, []any{"Mid", 26}, mvp.Rows[0].Values)
}

func TestDifferentialAndTemplate(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Common", fx(1, 6)),
		player(2, model.Midfielder, "Rare", fx(1, 12)),
	}
	var users []model.User
	for id := 1; id <= 4; id++ {
		picks := []model.Pick{pk(1, 2, "C")}
		if id == 1 {
			picks = append(picks, pk(2, 1, "V"))
		}
		users = append(users, user(id, string(rune('A'+id-1)), row(1, 10, 10, picks...)))
	}
	a := New(snapshot(players, users...), Options{})

	diff, err := a.Compute("best_differential")
	require.NoError(t, err)
	require.Len(t, diff.Rows, 1)
	assert.Equal(t, "A", diff.Rows[0].Label)
	assert.Equal(t, "Rare", diff.Rows[0].Values[0])
	assert.Equal(t, 12.0, diff.Rows[0].Values[1])
	assert.Equal(t, 25.0, diff.Rows[0].Values[5])

	tmpl, err := a.Compute("template")
	require.NoError(t, err)
	assert.Equal(t, 100.0, tmpl.Rows[0].Values[0])
	assert.Equal(t, "A", tmpl.Rows[3].Label)
	assert.Equal(t, 62.5, tmpl.Rows[3].Values[0])

	popular, err := a.Compute("most_popular_picks")
	require.NoError(t, err)
	assert.Equal(t, "Common", popular.Rows[0].Label)
	assert.Equal(t, []any{4, 4}, popular.Rows[0].Values)

	least, err := a.Compute("least_popular_picks")
	require.NoError(t, err)
	assert.Equal(t, "Rare", least.Rows[0].Label)

	distinct, err := a.Compute("distinct_players")
	require.NoError(t, err)
	assert.Equal(t, "A", distinct.Rows[0].Label)
	assert.Equal(t, 2, distinct.Rows[0].Values[0])
}

// ---- transfers and chips ----

func TestHitsAndTransfers(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Out", fx(1, 2)),
		player(2, model.Forward, "In", fx(1, 9)),
		player(3, model.Midfielder, "Free", fx(1, 4)),
		player(4, model.Midfielder, "Gone", fx(1, 1)),
	}
	gw := row(1, 20, 20, pk(2, 2, "C"), pk(3, 1, "V"))
	gw.EventTransfers = 2
	gw.EventTransfersCost = 4
	gw.Transfers = []model.Transfer{
		{Event: 1, ElementIn: 2, ElementOut: 1, Time: "a"},
		{Event: 1, ElementIn: 3, ElementOut: 4, Time: "b"},
	}
	a := New(snapshot(players, user(1, "Solo", gw)), Options{})

	hits, err := a.Compute("hits")
	require.NoError(t, err)
	// one paid transfer: 9 in, 2 out, minus 4
	assert.Equal(t, []any{3, 3.0, 1, 2, 4}, hits.Rows[0].Values)

	best, err := a.Compute("best_transfers")
	require.NoError(t, err)
	assert.Equal(t, []any{13, 6.5, 2}, best.Rows[0].Values)

	worst, err := a.Compute("worst_transfers")
	require.NoError(t, err)
	assert.Equal(t, []any{3, 1.5, 2}, worst.Rows[0].Values)
}

func TestChipUsageAndPoints(t *testing.T) {
	players := []model.Player{player(1, model.Forward, "F", fx(1, 5), fx(2, 5))}
	gw1 := row(1, 80, 80, pk(1, 2, "C"))
	gw1.Chips = []model.ChipUsage{{Name: model.Wildcard, Event: 1}}
	gw2 := row(2, 30, 110, pk(1, 3, "C"))
	gw2.Chips = []model.ChipUsage{{Name: model.TripleCaptain, Event: 2}}
	a := New(snapshot(players, user(1, "Solo", gw1, gw2)), Options{})

	usage, err := a.Compute("chip_usage")
	require.NoError(t, err)
	assert.Equal(t, []string{"Team", "Chips used", "Triple captain", "Bench boost", "Free hit", "Wildcard", "Assistant manager"}, usage.Columns)
	assert.Equal(t, []any{2, "GW2 (30 pts)", "-", "-", "GW1 (80 pts)", "-"}, usage.Rows[0].Values)

	pts, err := a.Compute("chip_points")
	require.NoError(t, err)
	assert.Equal(t, []any{30, 110, 80}, pts.Rows[0].Values)
}

func TestBenchAndAutoSubPoints(t *testing.T) {
	players := []model.Player{
		player(1, model.Forward, "Starter", fx(1, 0)),
		player(2, model.Forward, "Sub", fx(1, 6)),
	}
	gw := row(1, 6, 6, pk(1, 0, "C"), pk(2, 1, "V"))
	gw.PointsOnBench = 11
	gw.AutoSubs = []model.AutoSub{{Event: 1, ElementIn: 2, ElementOut: 1}}
	a := New(snapshot(players, user(1, "Solo", gw)), Options{})

	bench, err := a.Compute("bench_points")
	require.NoError(t, err)
	assert.Equal(t, []any{11}, bench.Rows[0].Values)

	subs, err := a.Compute("auto_sub_points")
	require.NoError(t, err)
	assert.Equal(t, []any{6, 1}, subs.Rows[0].Values)
}
