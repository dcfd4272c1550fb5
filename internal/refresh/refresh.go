// Package refresh brings the stored snapshot of a league up to date with the
// FPL API, fetching only the gameweeks that are missing locally.
package refresh

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fpl-league-stats/internal/fetch"
	"fpl-league-stats/internal/model"
	"fpl-league-stats/internal/store"
)

// API is the subset of the FPL client the refresher needs.
type API interface {
	ClassicLeague(ctx context.Context, leagueID int) (*model.League, error)
	Bootstrap(ctx context.Context) (*fetch.Bootstrap, error)
	EntryHistory(ctx context.Context, entryID int) (*fetch.EntryHistory, error)
	EntryPicks(ctx context.Context, entryID int, gw int) (*fetch.EntryPicks, error)
	EntryTransfers(ctx context.Context, entryID int) ([]model.Transfer, error)
	ElementSummary(ctx context.Context, elementID int) (*fetch.ElementSummary, error)
}

type Options struct {
	LeagueID int
	// ForceAll refetches every gameweek and player from scratch.
	ForceAll bool
	// IncludeLive also fetches the current, unfinished gameweek.
	IncludeLive bool
}

// Result summarises a run.
type Result struct {
	RunID            string
	Season           string
	LatestFinished   int
	Target           int
	MembersRefreshed int
	PlayersRefreshed int
}

type Refresher struct {
	api   API
	store *store.JSONStore
	log   logrus.FieldLogger
}

func New(api API, st *store.JSONStore, log logrus.FieldLogger) *Refresher {
	return &Refresher{api: api, store: st, log: log}
}

// Run fetches the gap between the stored snapshot and the API and writes the
// merged documents back. Any fetch error aborts the run; documents already
// written by this run stay on disk.
func (r *Refresher) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := r.log.WithFields(logrus.Fields{"run_id": res.RunID, "league_id": opts.LeagueID})
	log.WithFields(logrus.Fields{"force_all": opts.ForceAll, "live": opts.IncludeLive}).Info("fetch started")

	league, err := r.api.ClassicLeague(ctx, opts.LeagueID)
	if err != nil {
		return nil, err
	}
	season, err := model.SeasonFromCreated(league.Created)
	if err != nil {
		return nil, err
	}
	res.Season = season
	log = log.WithField("season", season)
	log.WithFields(logrus.Fields{"league": league.Name, "members": len(league.Members)}).Info("league loaded")

	boot, err := r.api.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	res.LatestFinished = boot.LatestFinished()
	res.Target = res.LatestFinished
	if opts.IncludeLive {
		if cur := boot.Current(); cur > res.Target {
			res.Target = cur
		}
	}
	league.Event = res.Target
	log.WithFields(logrus.Fields{"latest_finished": res.LatestFinished, "target": res.Target}).Info("gameweeks resolved")

	snap, err := r.load(season, opts.LeagueID)
	if err != nil {
		return nil, err
	}
	// rows after the gameweek last stored as finished were fetched live and
	// are dropped, so they are fetched again even if that gameweek has
	// finished since
	final := latestFinished(snap.Gameweeks)
	snap.Season = season
	snap.League = *league
	snap.Gameweeks = mergeGameweeks(snap.Gameweeks, boot.Events)

	if opts.ForceAll {
		snap.Users = map[int]model.User{}
		snap.Players = map[int]model.Player{}
	}
	for id, u := range snap.Users {
		pruneUser(&u, final)
		snap.Users[id] = u
	}
	for id, p := range snap.Players {
		p.History = pruneFixtures(p.History, final)
		snap.Players[id] = p
	}

	if err := r.store.WriteDocument(season, league.ID, store.KindLeague, snap.League); err != nil {
		return nil, err
	}

	for _, memberID := range league.Members {
		refreshed, err := r.refreshUser(ctx, log, snap, memberID, res.Target)
		if err != nil {
			return nil, err
		}
		if refreshed {
			res.MembersRefreshed++
		}
	}
	if err := r.store.WriteDocument(season, league.ID, store.KindUsers, snap.Users); err != nil {
		return nil, err
	}

	n, err := r.refreshPlayers(ctx, log, snap, boot, res.MembersRefreshed > 0)
	if err != nil {
		return nil, err
	}
	res.PlayersRefreshed = n
	if err := r.store.WriteDocument(season, league.ID, store.KindPlayers, snap.Players); err != nil {
		return nil, err
	}
	// written last: a run that fails earlier leaves the previous finished
	// gameweek on disk and its live rows are pruned next time
	if err := r.store.WriteDocument(season, league.ID, store.KindGameweeks, snap.Gameweeks); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"members_refreshed": res.MembersRefreshed,
		"players_refreshed": res.PlayersRefreshed,
	}).Info("fetch finished")
	return res, nil
}

func (r *Refresher) load(season string, leagueID int) (*model.Snapshot, error) {
	snap, err := r.store.Load(season, leagueID)
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, store.ErrNoData) {
		return &model.Snapshot{Users: map[int]model.User{}, Players: map[int]model.Player{}}, nil
	}
	return nil, err
}

// refreshUser fetches gameweeks after the member's last stored gameweek up to
// target and merges them. It reports whether any gameweek was fetched.
func (r *Refresher) refreshUser(ctx context.Context, log *logrus.Entry, snap *model.Snapshot, memberID int, target int) (bool, error) {
	u, ok := snap.Users[memberID]
	if !ok {
		u = model.User{ID: memberID}
	}
	for _, s := range snap.League.Standings {
		if s.Entry == memberID {
			u.Name = s.EntryName
			u.PlayerName = s.PlayerName
		}
	}

	from := u.LatestEvent() + 1
	ulog := log.WithFields(logrus.Fields{"entry": memberID, "from": from, "to": target})
	if from > target {
		ulog.Debug("user up to date")
		snap.Users[memberID] = u
		return false, nil
	}
	ulog.Info("fetching user")

	hist, err := r.api.EntryHistory(ctx, memberID)
	if err != nil {
		return false, err
	}
	transfers, err := r.api.EntryTransfers(ctx, memberID)
	if err != nil {
		return false, err
	}

	var rows []model.UserGameweek
	for _, row := range hist.Current {
		if row.Event < from || row.Event > target {
			continue
		}
		picks, err := r.api.EntryPicks(ctx, memberID, row.Event)
		if err != nil {
			return false, err
		}
		row.Picks = picks.Picks
		row.AutoSubs = picks.AutomaticSubs
		rows = append(rows, row)
	}

	u.History = fillHistory(mergeHistory(u.History, rows), target)
	u.Chips = mergeChips(u.Chips, upTo(hist.Chips, target))
	u.Transfers = mergeTransfers(u.Transfers, transfersUpTo(transfers, target))
	attach(&u)
	if err := u.Validate(); err != nil {
		return false, err
	}
	snap.Users[memberID] = u
	return len(rows) > 0, nil
}

func upTo(chips []model.ChipUsage, target int) []model.ChipUsage {
	var out []model.ChipUsage
	for _, c := range chips {
		if c.Event <= target {
			out = append(out, c)
		}
	}
	return out
}

func transfersUpTo(ts []model.Transfer, target int) []model.Transfer {
	var out []model.Transfer
	for _, t := range ts {
		if t.Event <= target {
			out = append(out, t)
		}
	}
	return out
}

// refreshPlayers fetches fixture history for referenced players. When any
// member got new gameweeks every referenced player is refreshed, otherwise
// only players missing from the store are fetched.
func (r *Refresher) refreshPlayers(ctx context.Context, log *logrus.Entry, snap *model.Snapshot, boot *fetch.Bootstrap, all bool) (int, error) {
	meta := make(map[int]model.Player, len(boot.Elements))
	for _, e := range boot.Elements {
		meta[e.ID] = e
	}

	count := 0
	for _, id := range referencedPlayers(snap.Users) {
		stored, have := snap.Players[id]
		if have && !all {
			continue
		}
		summary, err := r.api.ElementSummary(ctx, id)
		if err != nil {
			return count, err
		}
		p, ok := meta[id]
		if !ok {
			if !have {
				return count, fmt.Errorf("player %d: %w: not in bootstrap elements", id, model.ErrMalformed)
			}
			p = stored
		}
		p.History = mergeFixtures(stored.History, fixturesUpTo(summary.History, snap.League.Event))
		snap.Players[id] = p
		count++
		log.WithField("player", id).Debug("player refreshed")
	}
	return count, nil
}

func fixturesUpTo(fs []model.PlayerFixture, target int) []model.PlayerFixture {
	var out []model.PlayerFixture
	for _, f := range fs {
		if f.Round <= target {
			out = append(out, f)
		}
	}
	return out
}
