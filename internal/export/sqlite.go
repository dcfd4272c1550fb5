// Package export flattens a stored snapshot into SQLite tables for ad-hoc
// queries.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"fpl-league-stats/internal/model"
)

//go:embed schema.sql
var schema string

// tables in the order they are filled.
var tables = []string{"gameweeks", "users", "user_gameweeks", "picks", "players", "player_fixtures"}

type DB struct {
	sqlDB *sql.DB
	log   logrus.FieldLogger
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, log logrus.FieldLogger) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	sqlDB, err := sql.Open("sqlite", filepath.Clean(path)+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{sqlDB: sqlDB, log: log}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// SQL exposes the handle for queries.
func (d *DB) SQL() *sql.DB { return d.sqlDB }

// Counts is the number of rows written per table.
type Counts map[string]int

// Export replaces every row of the snapshot's season and league in one
// transaction, so exporting twice leaves the same rows.
func (d *DB) Export(ctx context.Context, snap *model.Snapshot) (Counts, error) {
	tx, err := d.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t+" WHERE season = ? AND league_id = ?", snap.Season, snap.League.ID); err != nil {
			return nil, fmt.Errorf("clear %s: %w", t, err)
		}
	}

	w := &writer{ctx: ctx, tx: tx, season: snap.Season, league: snap.League.ID, counts: Counts{}}
	w.gameweeks(snap.Gameweeks)
	w.users(snap)
	w.players(snap.Players)
	if w.err != nil {
		return nil, w.err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if d.log != nil {
		d.log.WithFields(logrus.Fields{
			"season":    snap.Season,
			"league_id": snap.League.ID,
			"rows":      w.counts,
		}).Info("Exported snapshot")
	}
	return w.counts, nil
}

// writer keeps the first error and skips everything after it.
type writer struct {
	ctx    context.Context
	tx     *sql.Tx
	season string
	league int
	counts Counts
	err    error
}

func (w *writer) insert(table string, columns []string, values ...any) {
	if w.err != nil {
		return
	}
	q := fmt.Sprintf("INSERT INTO %s (season, league_id, %s) VALUES (?, ?%s)",
		table, strings.Join(columns, ", "), strings.Repeat(", ?", len(columns)))
	args := append([]any{w.season, w.league}, values...)
	if _, err := w.tx.ExecContext(w.ctx, q, args...); err != nil {
		w.err = fmt.Errorf("insert %s: %w", table, err)
		return
	}
	w.counts[table]++
}

func (w *writer) gameweeks(gws []model.Gameweek) {
	cols := []string{"id", "name", "deadline_time", "finished", "is_current", "average_entry_score", "highest_score"}
	for _, gw := range gws {
		w.insert("gameweeks", cols, gw.ID, gw.Name, gw.DeadlineTime, gw.Finished, gw.IsCurrent, gw.AverageEntryScore, gw.HighestScore)
	}
}

func (w *writer) users(snap *model.Snapshot) {
	rank := map[int]int{}
	for _, s := range snap.League.Standings {
		rank[s.Entry] = s.Rank
	}
	userCols := []string{"id", "name", "player_name", "league_rank"}
	rowCols := []string{"user_id", "event", "points", "total_points", "gw_rank", "overall_rank", "bank", "squad_value",
		"event_transfers", "event_transfers_cost", "points_on_bench", "chips"}
	pickCols := []string{"user_id", "event", "position", "element", "multiplier", "is_captain", "is_vice_captain"}

	for _, id := range sortedIDs(snap.Users) {
		u := snap.Users[id]
		w.insert("users", userCols, u.ID, u.Name, u.PlayerName, rank[u.ID])
		for _, row := range u.History {
			chips := make([]string, 0, len(row.Chips))
			for _, c := range row.Chips {
				chips = append(chips, string(c.Name))
			}
			w.insert("user_gameweeks", rowCols, u.ID, row.Event, row.Points, row.TotalPoints, row.Rank, row.OverallRank,
				row.Bank, row.Value, row.EventTransfers, row.EventTransfersCost, row.PointsOnBench, strings.Join(chips, ","))
			for _, p := range row.Picks {
				w.insert("picks", pickCols, u.ID, row.Event, p.Position, p.Element, p.Multiplier, p.IsCaptain, p.IsViceCaptain)
			}
		}
	}
}

func (w *writer) players(players map[int]model.Player) {
	playerCols := []string{"id", "web_name", "first_name", "second_name", "element_type", "team", "total_points"}
	fixtureCols := []string{"element", "fixture", "round", "opponent_team", "was_home", "kickoff_time", "minutes", "total_points",
		"goals_scored", "assists", "clean_sheets", "goals_conceded", "yellow_cards", "red_cards", "bonus", "bps"}

	for _, id := range sortedIDs(players) {
		p := players[id]
		w.insert("players", playerCols, p.ID, p.WebName, p.FirstName, p.SecondName, int(p.ElementType), p.Team, p.TotalPoints)
		for _, f := range p.History {
			w.insert("player_fixtures", fixtureCols, p.ID, f.Fixture, f.Round, f.OpponentTeam, f.WasHome, f.KickoffTime,
				f.Minutes, f.TotalPoints, f.GoalsScored, f.Assists, f.CleanSheets, f.GoalsConceded, f.YellowCards, f.RedCards, f.Bonus, f.BPS)
		}
	}
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
