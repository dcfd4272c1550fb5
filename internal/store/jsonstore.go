package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"fpl-league-stats/internal/model"
)

// Kind names one of the four documents stored per season per league.
type Kind string

const (
	KindLeague    Kind = "league"
	KindGameweeks Kind = "gameweeks"
	KindUsers     Kind = "users"
	KindPlayers   Kind = "players"
)

var Kinds = []Kind{KindLeague, KindGameweeks, KindUsers, KindPlayers}

var (
	// ErrNoData is returned when nothing has been fetched for a season/league.
	ErrNoData = errors.New("no stored data")
	// ErrBadSeason is returned for season ids that are not "YYYY_YYYY".
	ErrBadSeason = errors.New("invalid season")
)

// DocumentPath maps (season, league, kind) to <root>/<season>/<league>/<kind>.json.
// It is the only place the on-disk layout is defined.
func DocumentPath(root string, season string, leagueID int, kind Kind) string {
	return filepath.Join(root, season, strconv.Itoa(leagueID), string(kind)+".json")
}

type JSONStore struct {
	Root string // e.g. "data"
}

func NewJSONStore(root string) *JSONStore {
	return &JSONStore{Root: root}
}

func (s *JSONStore) Path(season string, leagueID int, kind Kind) string {
	return DocumentPath(s.Root, season, leagueID, kind)
}

func (s *JSONStore) Exists(season string, leagueID int, kind Kind) bool {
	_, err := os.Stat(s.Path(season, leagueID, kind))
	return err == nil
}

// Encode renders v the way every document is written: two-space indent,
// sorted map keys, trailing newline. Equal values give equal bytes.
func Encode(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument replaces a document. The file is written to a temp file in the
// same directory and renamed into place, so readers never see a torn write.
func (s *JSONStore) WriteDocument(season string, leagueID int, kind Kind, v any) error {
	if !model.ValidSeason(season) {
		return fmt.Errorf("%w: %q", ErrBadSeason, season)
	}
	body, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	path := s.Path(season, leagueID, kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+string(kind)+"-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadDocument decodes a document into v. found is false when the file does
// not exist, which is not an error.
func (s *JSONStore) ReadDocument(season string, leagueID int, kind Kind, v any) (found bool, err error) {
	if !model.ValidSeason(season) {
		return false, fmt.Errorf("%w: %q", ErrBadSeason, season)
	}
	b, err := os.ReadFile(s.Path(season, leagueID, kind))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", s.Path(season, leagueID, kind), err)
	}
	return true, nil
}

// Load reads every document for a season/league. Missing gameweeks, users
// or players documents load as empty; a missing league document is ErrNoData.
func (s *JSONStore) Load(season string, leagueID int) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		Season:  season,
		Users:   map[int]model.User{},
		Players: map[int]model.Player{},
	}
	found, err := s.ReadDocument(season, leagueID, KindLeague, &snap.League)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w for season %s and league %d: run fetch first", ErrNoData, season, leagueID)
	}
	if _, err := s.ReadDocument(season, leagueID, KindGameweeks, &snap.Gameweeks); err != nil {
		return nil, err
	}
	if _, err := s.ReadDocument(season, leagueID, KindUsers, &snap.Users); err != nil {
		return nil, err
	}
	if _, err := s.ReadDocument(season, leagueID, KindPlayers, &snap.Players); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save writes every document of snap.
func (s *JSONStore) Save(snap *model.Snapshot) error {
	docs := []struct {
		kind Kind
		v    any
	}{
		{KindLeague, snap.League},
		{KindGameweeks, snap.Gameweeks},
		{KindUsers, snap.Users},
		{KindPlayers, snap.Players},
	}
	for _, d := range docs {
		if err := s.WriteDocument(snap.Season, snap.League.ID, d.kind, d.v); err != nil {
			return err
		}
	}
	return nil
}

// Location identifies one stored season/league.
type Location struct {
	Season   string `json:"season"`
	LeagueID int    `json:"league_id"`
}

// List returns every season/league that has a league document, sorted.
func (s *JSONStore) List() ([]Location, error) {
	matches, err := filepath.Glob(filepath.Join(s.Root, "*", "*", string(KindLeague)+".json"))
	if err != nil {
		return nil, err
	}
	out := make([]Location, 0, len(matches))
	for _, m := range matches {
		leagueDir := filepath.Dir(m)
		season := filepath.Base(filepath.Dir(leagueDir))
		id, err := strconv.Atoi(filepath.Base(leagueDir))
		if err != nil || !model.ValidSeason(season) {
			continue
		}
		out = append(out, Location{Season: season, LeagueID: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].LeagueID < out[j].LeagueID
	})
	return out, nil
}

// LatestSeason returns the newest season stored for the league.
func (s *JSONStore) LatestSeason(leagueID int) (string, error) {
	locs, err := s.List()
	if err != nil {
		return "", err
	}
	season := ""
	for _, l := range locs {
		if l.LeagueID == leagueID {
			season = l.Season
		}
	}
	if season == "" {
		return "", fmt.Errorf("%w for league %d", ErrNoData, leagueID)
	}
	return season, nil
}
