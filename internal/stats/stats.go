// Package stats computes the league statistic catalog over a stored snapshot.
// Every statistic is a pure function of the snapshot and the target gameweek.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"fpl-league-stats/internal/model"
	"fpl-league-stats/internal/points"
)

var (
	// ErrDataGap means the snapshot does not hold what a statistic needs for
	// the target gameweek. The catalog run skips that statistic.
	ErrDataGap = errors.New("data gap")
	// ErrUnknownStatistic is returned for keys not in the catalog.
	ErrUnknownStatistic = errors.New("unknown statistic")
	// ErrUnknownUser is returned when a user id is not a league member.
	ErrUnknownUser = errors.New("unknown user")
)

// topN caps the per-gameweek and per-player leaderboards.
const topN = 10

type Options struct {
	// Gameweek pins the target gameweek. Zero means the latest finished one.
	Gameweek int
	// Live targets the current gameweek when it has not finished yet.
	Live bool
}

type Row struct {
	UserID int    `json:"user_id,omitempty"`
	Label  string `json:"label"`
	Values []any  `json:"values"`
}

// Table is one computed statistic. Columns[0] heads the label column and
// the rest line up with each row's Values.
type Table struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Gameweek    int      `json:"gameweek"`
	Columns     []string `json:"columns"`
	Rows        []Row    `json:"rows"`
}

// Info describes one catalog entry.
type Info struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type statistic struct {
	Info
	compute func(a *Analyzer) (*Table, error)
}

// Analyzer answers statistic queries over one snapshot.
type Analyzer struct {
	snap    *model.Snapshot
	ix      *points.Index
	target  int
	members []model.User
	gap     error
}

// New prepares an analyzer. Member histories are cut at the target gameweek;
// the snapshot itself is never modified.
func New(snap *model.Snapshot, opts Options) *Analyzer {
	a := &Analyzer{
		snap:   snap,
		ix:     points.NewIndex(snap.Players),
		target: resolveTarget(snap, opts),
	}

	ids := snap.League.Members
	if len(ids) == 0 {
		for id := range snap.Users {
			ids = append(ids, id)
		}
		sort.Ints(ids)
	}
	for _, id := range ids {
		u, ok := snap.Users[id]
		if !ok {
			continue
		}
		n := 0
		for n < len(u.History) && u.History[n].Event <= a.target {
			n++
		}
		u.History = u.History[:n:n]
		a.members = append(a.members, u)
	}

	switch {
	case a.target < 1:
		a.gap = fmt.Errorf("%w: no finished gameweek", ErrDataGap)
	case len(a.members) == 0:
		a.gap = fmt.Errorf("%w: no member data stored", ErrDataGap)
	default:
		for _, u := range a.members {
			if len(u.History) < a.target {
				a.gap = fmt.Errorf("%w: user %d has data through gameweek %d, want %d",
					ErrDataGap, u.ID, len(u.History), a.target)
				break
			}
		}
	}
	return a
}

func resolveTarget(snap *model.Snapshot, opts Options) int {
	if opts.Gameweek > 0 {
		return opts.Gameweek
	}
	target := 0
	for _, gw := range snap.Gameweeks {
		if gw.Finished && gw.ID > target {
			target = gw.ID
		}
	}
	if opts.Live {
		for _, gw := range snap.Gameweeks {
			if gw.IsCurrent && gw.ID > target {
				target = gw.ID
			}
		}
	}
	if target == 0 {
		target = snap.League.Event
	}
	return target
}

// Target returns the gameweek the statistics are computed for.
func (a *Analyzer) Target() int { return a.target }

// Catalog lists every statistic in display order.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, s.Info)
	}
	return out
}

// Compute runs one statistic by key.
func (a *Analyzer) Compute(key string) (*Table, error) {
	for _, s := range catalog {
		if s.Key != key {
			continue
		}
		if a.gap != nil {
			return nil, fmt.Errorf("%s: %w", key, a.gap)
		}
		t, err := s.compute(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		t.Key, t.Title, t.Description, t.Gameweek = s.Key, s.Title, s.Description, a.target
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStatistic, key)
}

func (a *Analyzer) member(userID int) (model.User, bool) {
	for _, u := range a.members {
		if u.ID == userID {
			return u, true
		}
	}
	return model.User{}, false
}

// total returns the user's season total at the target gameweek.
func total(u model.User) int {
	if len(u.History) == 0 {
		return 0
	}
	return u.History[len(u.History)-1].TotalPoints
}

func userRow(u model.User, values ...any) Row {
	return Row{UserID: u.ID, Label: u.Name, Values: values}
}

// sortRows orders rows by the value at column col. Ties keep league order.
func sortRows(rows []Row, col int, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := number(rows[i].Values[col]), number(rows[j].Values[col])
		if desc {
			return a > b
		}
		return a < b
	})
}

func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func top(rows []Row) []Row {
	if len(rows) > topN {
		return rows[:topN]
	}
	return rows
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func ratio(n int, d int) float64 {
	if d == 0 {
		return 0
	}
	return round2(float64(n) / float64(d))
}

var catalog = []statistic{
	{Info{"points_leader", "Points leader", "League standings by total points"}, (*Analyzer).pointsLeader},
	{Info{"gw1_team", "Gameweek 1 team", "Season total had each manager kept their gameweek 1 team, with auto-subs and captaincy"}, (*Analyzer).gw1Team},
	{Info{"captain_foresight", "Captain foresight", "Extra points earned from the armband, vice-captain stand-ins included"}, (*Analyzer).captainForesight},
	{Info{"captain_hindsight", "Captain hindsight", "Captain points actually scored versus the best captain choice each gameweek"}, (*Analyzer).captainHindsight},
	{Info{"points_without_captain", "Points without captain", "Total points minus the extra points from the armband"}, (*Analyzer).pointsWithoutCaptain},
	{Info{"longest_leader", "Longest leader", "Gameweeks spent in first place"}, (*Analyzer).longestLeader},
	{Info{"longest_loser", "Longest loser", "Gameweeks spent in last place"}, (*Analyzer).longestLoser},
	{Info{"biggest_lead", "Biggest lead", "Largest gap from first to second place after a gameweek"}, (*Analyzer).biggestLead},
	{Info{"biggest_deficit", "Biggest deficit", "Largest gap from last to second-last place after a gameweek"}, (*Analyzer).biggestDeficit},
	{Info{"top_scorers", "Top scorers", "Goals scored by players while they counted for the manager"}, (*Analyzer).topScorers},
	{Info{"assist_kings", "Assist kings", "Assists by players while they counted for the manager"}, (*Analyzer).assistKings},
	{Info{"goal_involvements", "Goal involvements", "Goals plus assists by counted players"}, (*Analyzer).goalInvolvements},
	{Info{"goals_conceded", "Goals conceded", "Goals conceded by counted goalkeepers and defenders"}, (*Analyzer).goalsConceded},
	{Info{"clean_sheets", "Clean sheets", "Clean sheets by counted goalkeepers and defenders, and the points they earned"}, (*Analyzer).cleanSheets},
	{Info{"penalties_saved", "Penalties saved", "Penalty saves by counted goalkeepers"}, (*Analyzer).penaltiesSaved},
	{Info{"penalties_missed", "Penalties missed", "Penalty misses by counted players"}, (*Analyzer).penaltiesMissed},
	{Info{"own_goals", "Own goals", "Own goals by counted players"}, (*Analyzer).ownGoals},
	{Info{"cards", "Cards", "Yellow and red cards by counted players and the points they cost"}, (*Analyzer).cards},
	{Info{"bonus_points", "Bonus points", "Bonus points and BPS of counted players"}, (*Analyzer).bonusPoints},
	{Info{"best_streak", "Best streak", "Most points over five consecutive gameweeks"}, (*Analyzer).bestStreak},
	{Info{"worst_streak", "Worst streak", "Fewest points over five consecutive gameweeks"}, (*Analyzer).worstStreak},
	{Info{"most_stable", "Most stable", "Smallest range between best and worst gameweek"}, (*Analyzer).mostStable},
	{Info{"bench_points", "Bench points", "Points left on the bench"}, (*Analyzer).benchPoints},
	{Info{"auto_sub_points", "Auto-sub points", "Points from players brought on by automatic substitution"}, (*Analyzer).autoSubPoints},
	{Info{"mvp", "Most valuable player", "Most points one player delivered to one manager, captaincy included"}, (*Analyzer).mvp},
	{Info{"best_differential", "Best differential", "Players owned by at most 30% of the league, by points shared among their owners"}, (*Analyzer).bestDifferential},
	{Info{"highest_rank", "Highest rank", "Best gameweek and overall rank"}, (*Analyzer).highestRank},
	{Info{"lowest_rank", "Lowest rank", "Worst gameweek and overall rank"}, (*Analyzer).lowestRank},
	{Info{"template", "Template team", "Average league ownership of the manager's picks"}, (*Analyzer).template},
	{Info{"league_positions", "League positions", "Distinct league positions held"}, (*Analyzer).leaguePositions},
	{Info{"chip_usage", "Chip usage", "When each chip was played and what it scored"}, (*Analyzer).chipUsage},
	{Info{"chip_points", "Chip points", "Points in chip gameweeks, wildcard kept separate"}, (*Analyzer).chipPoints},
	{Info{"hits", "Hits", "Transfers that cost points and what they returned"}, (*Analyzer).hits},
	{Info{"best_gameweek", "Best gameweek", "Highest single gameweek scores"}, (*Analyzer).bestGameweek},
	{Info{"worst_gameweek", "Worst gameweek", "Lowest single gameweek scores"}, (*Analyzer).worstGameweek},
	{Info{"most_popular_picks", "Most popular picks", "Players picked most often across the league"}, (*Analyzer).mostPopularPicks},
	{Info{"least_popular_picks", "Least popular picks", "Players picked least often across the league"}, (*Analyzer).leastPopularPicks},
	{Info{"distinct_players", "Distinct players", "Number of different players picked"}, (*Analyzer).distinctPlayers},
	{Info{"best_transfers", "Best transfers", "Points scored by players in the gameweek they were transferred in"}, (*Analyzer).bestTransfers},
	{Info{"worst_transfers", "Worst transfers", "Points scored by players in the gameweek after they were transferred out"}, (*Analyzer).worstTransfers},
	{Info{"vanilla", "Vanilla standings", "Total points without extra captain, auto-sub and bench boost points"}, (*Analyzer).vanilla},
}
