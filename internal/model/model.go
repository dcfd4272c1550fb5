package model

// Position is a player's element_type.
type Position int

const (
	Goalkeeper Position = 1
	Defender   Position = 2
	Midfielder Position = 3
	Forward    Position = 4
	Manager    Position = 5
)

func (p Position) String() string {
	switch p {
	case Goalkeeper:
		return "GK"
	case Defender:
		return "DEF"
	case Midfielder:
		return "MID"
	case Forward:
		return "FWD"
	case Manager:
		return "MGR"
	default:
		return "UNK"
	}
}

type Chip string

const (
	TripleCaptain Chip = "3xc"
	BenchBoost    Chip = "bboost"
	FreeHit       Chip = "freehit"
	Wildcard      Chip = "wildcard"
	AssistantMgr  Chip = "manager"
)

func (c Chip) Label() string {
	switch c {
	case TripleCaptain:
		return "Triple captain"
	case BenchBoost:
		return "Bench boost"
	case FreeHit:
		return "Free hit"
	case Wildcard:
		return "Wildcard"
	case AssistantMgr:
		return "Assistant manager"
	default:
		return string(c)
	}
}

// StartingSlots is the number of pick positions that start; 12-15 are the bench.
const StartingSlots = 11

type StandingEntry struct {
	Entry      int    `json:"entry"`
	EntryName  string `json:"entry_name"`
	PlayerName string `json:"player_name"`
	Rank       int    `json:"rank"`
	RankSort   int    `json:"rank_sort"`
	EventTotal int    `json:"event_total"`
	Total      int    `json:"total"`
}

type League struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Created   string          `json:"created"`
	Event     int             `json:"event"`
	Members   []int           `json:"members"`
	Standings []StandingEntry `json:"standings"`
}

type Gameweek struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	DeadlineTime      string `json:"deadline_time"`
	Finished          bool   `json:"finished"`
	IsCurrent         bool   `json:"is_current"`
	DataChecked       bool   `json:"data_checked"`
	AverageEntryScore int    `json:"average_entry_score"`
	HighestScore      int    `json:"highest_score"`
}

type Pick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

// Starter reports whether the pick was in the starting eleven.
func (p Pick) Starter() bool { return p.Position <= StartingSlots }

// Counted reports whether the pick scored for the user that gameweek.
func (p Pick) Counted() bool { return p.Multiplier >= 1 }

type AutoSub struct {
	Entry      int `json:"entry"`
	Event      int `json:"event"`
	ElementIn  int `json:"element_in"`
	ElementOut int `json:"element_out"`
}

type ChipUsage struct {
	Name  Chip   `json:"name"`
	Time  string `json:"time"`
	Event int    `json:"event"`
}

type Transfer struct {
	Entry          int    `json:"entry"`
	Event          int    `json:"event"`
	ElementIn      int    `json:"element_in"`
	ElementInCost  int    `json:"element_in_cost"`
	ElementOut     int    `json:"element_out"`
	ElementOutCost int    `json:"element_out_cost"`
	Time           string `json:"time"`
}

// UserGameweek is one row of a user's season history.
// Rank is zero while the gameweek is not yet ranked.
type UserGameweek struct {
	Event              int         `json:"event"`
	Points             int         `json:"points"`
	TotalPoints        int         `json:"total_points"`
	Rank               int         `json:"rank"`
	RankSort           int         `json:"rank_sort"`
	OverallRank        int         `json:"overall_rank"`
	Bank               int         `json:"bank"`
	Value              int         `json:"value"`
	EventTransfers     int         `json:"event_transfers"`
	EventTransfersCost int         `json:"event_transfers_cost"`
	PointsOnBench      int         `json:"points_on_bench"`
	Picks              []Pick      `json:"picks"`
	AutoSubs           []AutoSub   `json:"auto_subs"`
	Chips              []ChipUsage `json:"chips"`
	Transfers          []Transfer  `json:"transfers"`
}

// Captain returns the captain pick, if any.
func (g UserGameweek) Captain() (Pick, bool) {
	for _, p := range g.Picks {
		if p.IsCaptain {
			return p, true
		}
	}
	return Pick{}, false
}

// ViceCaptain returns the vice-captain pick, if any.
func (g UserGameweek) ViceCaptain() (Pick, bool) {
	for _, p := range g.Picks {
		if p.IsViceCaptain {
			return p, true
		}
	}
	return Pick{}, false
}

// HasPick reports whether element was in the user's fifteen that gameweek.
func (g UserGameweek) HasPick(element int) bool {
	for _, p := range g.Picks {
		if p.Element == element {
			return true
		}
	}
	return false
}

func (g UserGameweek) ChipUsed(c Chip) bool {
	for _, ch := range g.Chips {
		if ch.Name == c {
			return true
		}
	}
	return false
}

type User struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	PlayerName string         `json:"player_name"`
	History    []UserGameweek `json:"history"`
	AutoSubs   []AutoSub      `json:"auto_subs"`
	Chips      []ChipUsage    `json:"chips"`
	Transfers  []Transfer     `json:"transfers"`
}

// Gameweek returns the history row for event.
func (u User) Gameweek(event int) (UserGameweek, bool) {
	// rows are contiguous from 1, so try the direct index first
	if event >= 1 && event <= len(u.History) && u.History[event-1].Event == event {
		return u.History[event-1], true
	}
	for _, row := range u.History {
		if row.Event == event {
			return row, true
		}
	}
	return UserGameweek{}, false
}

// LatestEvent returns the highest gameweek in the history, or 0.
func (u User) LatestEvent() int {
	latest := 0
	for _, row := range u.History {
		if row.Event > latest {
			latest = row.Event
		}
	}
	return latest
}

// PlayerFixture is one fixture row of a player's season history.
// Blank gameweeks have no row for a round; double gameweeks have two.
type PlayerFixture struct {
	Round           int    `json:"round"`
	Fixture         int    `json:"fixture"`
	OpponentTeam    int    `json:"opponent_team"`
	WasHome         bool   `json:"was_home"`
	KickoffTime     string `json:"kickoff_time"`
	TotalPoints     int    `json:"total_points"`
	Minutes         int    `json:"minutes"`
	GoalsScored     int    `json:"goals_scored"`
	Assists         int    `json:"assists"`
	CleanSheets     int    `json:"clean_sheets"`
	GoalsConceded   int    `json:"goals_conceded"`
	OwnGoals        int    `json:"own_goals"`
	PenaltiesSaved  int    `json:"penalties_saved"`
	PenaltiesMissed int    `json:"penalties_missed"`
	YellowCards     int    `json:"yellow_cards"`
	RedCards        int    `json:"red_cards"`
	Saves           int    `json:"saves"`
	Bonus           int    `json:"bonus"`
	BPS             int    `json:"bps"`
}

type Player struct {
	ID          int             `json:"id"`
	Code        int             `json:"code"`
	ElementType Position        `json:"element_type"`
	FirstName   string          `json:"first_name"`
	SecondName  string          `json:"second_name"`
	WebName     string          `json:"web_name"`
	Team        int             `json:"team"`
	Status      string          `json:"status"`
	TotalPoints int             `json:"total_points"`
	History     []PlayerFixture `json:"history"`
}

// Snapshot is everything stored for one season of one league.
type Snapshot struct {
	Season    string
	League    League
	Gameweeks []Gameweek
	Users     map[int]User
	Players   map[int]Player
}
