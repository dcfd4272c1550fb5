package fetch

import (
	"context"
	"fmt"

	"fpl-league-stats/internal/model"
)

// Bootstrap is the part of /bootstrap-static/ the tool keeps.
type Bootstrap struct {
	Events   []model.Gameweek `json:"events"`
	Elements []model.Player   `json:"elements"`
}

// LatestFinished returns the highest finished gameweek number, or 0.
func (b *Bootstrap) LatestFinished() int {
	latest := 0
	for _, e := range b.Events {
		if e.Finished && e.ID > latest {
			latest = e.ID
		}
	}
	return latest
}

// Current returns the gameweek flagged is_current, or 0.
func (b *Bootstrap) Current() int {
	for _, e := range b.Events {
		if e.IsCurrent {
			return e.ID
		}
	}
	return 0
}

type EntryHistory struct {
	Current []model.UserGameweek `json:"current"`
	Chips   []model.ChipUsage    `json:"chips"`
}

type EntryPicks struct {
	ActiveChip    string          `json:"active_chip"`
	AutomaticSubs []model.AutoSub `json:"automatic_subs"`
	Picks         []model.Pick    `json:"picks"`
}

type ElementSummary struct {
	History []model.PlayerFixture `json:"history"`
}

type classicLeaguePage struct {
	League struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Created string `json:"created"`
	} `json:"league"`
	Standings struct {
		HasNext bool                  `json:"has_next"`
		Page    int                   `json:"page"`
		Results []model.StandingEntry `json:"results"`
	} `json:"standings"`
}

// maxStandingsPages guards against an upstream that never clears has_next.
const maxStandingsPages = 200

// /leagues-classic/{league_id}/standings/?page_standings={n}
func (c *Client) ClassicLeague(ctx context.Context, leagueID int) (*model.League, error) {
	league := &model.League{}
	for page := 1; ; page++ {
		var resp classicLeaguePage
		path := fmt.Sprintf("/leagues-classic/%d/standings/?page_standings=%d", leagueID, page)
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("league %d: %w", leagueID, err)
		}
		if page == 1 {
			league.ID = resp.League.ID
			league.Name = resp.League.Name
			league.Created = resp.League.Created
		}
		league.Standings = append(league.Standings, resp.Standings.Results...)
		if !resp.Standings.HasNext {
			break
		}
		if page >= maxStandingsPages {
			return nil, fmt.Errorf("league %d: standings still paginating after %d pages", leagueID, page)
		}
	}

	league.Members = make([]int, 0, len(league.Standings))
	for _, s := range league.Standings {
		league.Members = append(league.Members, s.Entry)
	}
	if err := league.Validate(); err != nil {
		return nil, err
	}
	return league, nil
}

// /bootstrap-static/
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var b Bootstrap
	if err := c.getJSON(ctx, "/bootstrap-static/", &b); err != nil {
		return nil, err
	}
	for _, e := range b.Events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}
	for _, p := range b.Elements {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}
	return &b, nil
}

// /entry/{entry_id}/history/
func (c *Client) EntryHistory(ctx context.Context, entryID int) (*EntryHistory, error) {
	var h EntryHistory
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/history/", entryID), &h); err != nil {
		return nil, fmt.Errorf("entry %d: %w", entryID, err)
	}
	for _, row := range h.Current {
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d history: %w", entryID, err)
		}
	}
	for _, ch := range h.Chips {
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d chips: %w", entryID, err)
		}
	}
	return &h, nil
}

// /entry/{entry_id}/event/{gw}/picks/
func (c *Client) EntryPicks(ctx context.Context, entryID int, gw int) (*EntryPicks, error) {
	var p EntryPicks
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gw), &p); err != nil {
		return nil, fmt.Errorf("entry %d gameweek %d: %w", entryID, gw, err)
	}
	for _, pick := range p.Picks {
		if err := pick.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d gameweek %d: %w", entryID, gw, err)
		}
	}
	return &p, nil
}

// /entry/{entry_id}/transfers/
func (c *Client) EntryTransfers(ctx context.Context, entryID int) ([]model.Transfer, error) {
	var ts []model.Transfer
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/transfers/", entryID), &ts); err != nil {
		return nil, fmt.Errorf("entry %d: %w", entryID, err)
	}
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d transfers: %w", entryID, err)
		}
	}
	return ts, nil
}

// /element-summary/{element_id}/
func (c *Client) ElementSummary(ctx context.Context, elementID int) (*ElementSummary, error) {
	var s ElementSummary
	if err := c.getJSON(ctx, fmt.Sprintf("/element-summary/%d/", elementID), &s); err != nil {
		return nil, fmt.Errorf("player %d: %w", elementID, err)
	}
	for _, f := range s.History {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("player %d: %w", elementID, err)
		}
	}
	return &s, nil
}
