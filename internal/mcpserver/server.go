// Package mcpserver exposes the statistic catalog over the Model Context
// Protocol, on stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"fpl-league-stats/internal/model"
	"fpl-league-stats/internal/points"
	"fpl-league-stats/internal/stats"
	"fpl-league-stats/internal/store"
)

const (
	serverName    = "fpl-league-stats"
	serverVersion = "1.0.0"
)

type SnapshotArgs struct {
	Season   string `json:"season,omitempty" jsonschema:"Season like 2023_2024 (empty = latest stored season of the league)"`
	LeagueID int    `json:"league_id" jsonschema:"Classic league id (required)"`
}

type StatisticArgs struct {
	Season   string `json:"season,omitempty" jsonschema:"Season like 2023_2024 (empty = latest stored season of the league)"`
	LeagueID int    `json:"league_id" jsonschema:"Classic league id (required)"`
	Key      string `json:"key" jsonschema:"Statistic key from list_statistics (required)"`
	Gameweek int    `json:"gameweek,omitempty" jsonschema:"Gameweek (0 = latest finished)"`
	Live     bool   `json:"live,omitempty" jsonschema:"Include the current unfinished gameweek"`
}

type CaptainArgs struct {
	Season   string `json:"season,omitempty" jsonschema:"Season like 2023_2024 (empty = latest stored season of the league)"`
	LeagueID int    `json:"league_id" jsonschema:"Classic league id (required)"`
	UserID   int    `json:"user_id" jsonschema:"Entry id of a league member (required)"`
	Gameweek int    `json:"gameweek" jsonschema:"Gameweek to inspect (required)"`
}

type GameweekPointsArgs struct {
	Season   string `json:"season,omitempty" jsonschema:"Season like 2023_2024 (empty = latest stored season of the league)"`
	LeagueID int    `json:"league_id" jsonschema:"Classic league id (required)"`
	UserID   int    `json:"user_id" jsonschema:"Entry id of a league member (required)"`
	Gameweek int    `json:"gameweek" jsonschema:"Gameweek to break down (required)"`
}

type ListArgs struct{}

// ToolInfo is one entry of the /tools listing.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server wires the stored snapshots to MCP tools.
type Server struct {
	store    *store.JSONStore
	log      logrus.FieldLogger
	mcp      *mcp.Server
	registry []ToolInfo
}

func New(st *store.JSONStore, log logrus.FieldLogger) *Server {
	s := &Server{
		store: st,
		log:   log,
		mcp:   mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
	}

	addTool(s, &mcp.Tool{
		Name:        "list_statistics",
		Description: "Keys, titles and descriptions of every statistic, in display order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(stats.Catalog())
	})

	addTool(s, &mcp.Tool{
		Name:        "statistic",
		Description: "Compute one statistic for a stored league season",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StatisticArgs) (*mcp.CallToolResult, any, error) {
		if args.Key == "" {
			return toolError(errors.New("key is required")), nil, nil
		}
		snap, err := s.load(args.Season, args.LeagueID)
		if err != nil {
			return toolError(err), nil, nil
		}
		t, err := stats.New(snap, stats.Options{Gameweek: args.Gameweek, Live: args.Live}).Compute(args.Key)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(t)
	})

	addTool(s, &mcp.Tool{
		Name:        "captain_hindsight",
		Description: "Captain points scored versus the best captain choice for one manager and gameweek",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CaptainArgs) (*mcp.CallToolResult, any, error) {
		if args.UserID == 0 {
			return toolError(errors.New("user_id is required")), nil, nil
		}
		snap, err := s.load(args.Season, args.LeagueID)
		if err != nil {
			return toolError(err), nil, nil
		}
		h, err := stats.New(snap, stats.Options{}).CaptainChoice(args.UserID, args.Gameweek)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(hindsightOut{Hindsight: h, Missed: h.Missed()})
	})

	addTool(s, &mcp.Tool{
		Name:        "gameweek_points",
		Description: "Points of every counted pick of one manager in one gameweek, multipliers applied",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GameweekPointsArgs) (*mcp.CallToolResult, any, error) {
		if args.UserID == 0 || args.Gameweek == 0 {
			return toolError(errors.New("user_id and gameweek are required")), nil, nil
		}
		snap, err := s.load(args.Season, args.LeagueID)
		if err != nil {
			return toolError(err), nil, nil
		}
		u, ok := snap.Users[args.UserID]
		if !ok {
			return toolError(fmt.Errorf("%w: %d", stats.ErrUnknownUser, args.UserID)), nil, nil
		}
		row, ok := u.Gameweek(args.Gameweek)
		if !ok || len(row.Picks) == 0 {
			return toolError(fmt.Errorf("%w: user %d has no team in gameweek %d", stats.ErrDataGap, args.UserID, args.Gameweek)), nil, nil
		}
		return toolJSON(points.BuildResult(u.ID, row, points.NewIndex(snap.Players)))
	})

	addTool(s, &mcp.Tool{
		Name:        "snapshot_info",
		Description: "What is stored for a league season: members, gameweeks, players and consistency problems",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SnapshotArgs) (*mcp.CallToolResult, any, error) {
		snap, err := s.load(args.Season, args.LeagueID)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(describe(snap))
	})

	return s
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.registry = append(s.registry, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.mcp, tool, handler)
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Tools lists the registered tool names and descriptions.
func (s *Server) Tools() []ToolInfo { return s.registry }

// RunStdio serves a single session on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.log.Info("MCP server listening on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// load reads a stored snapshot. An empty season picks the latest season
// stored for the league.
func (s *Server) load(season string, leagueID int) (*model.Snapshot, error) {
	if leagueID == 0 {
		return nil, errors.New("league_id is required")
	}
	if season == "" {
		latest, err := s.store.LatestSeason(leagueID)
		if err != nil {
			return nil, err
		}
		season = latest
	}
	return s.store.Load(season, leagueID)
}

type hindsightOut struct {
	stats.Hindsight
	Missed int `json:"missed"`
}

type snapshotInfo struct {
	Season         string   `json:"season"`
	LeagueID       int      `json:"league_id"`
	LeagueName     string   `json:"league_name"`
	Members        int      `json:"members"`
	Users          int      `json:"users"`
	Players        int      `json:"players"`
	Gameweeks      int      `json:"gameweeks"`
	LatestFinished int      `json:"latest_finished"`
	Current        int      `json:"current,omitempty"`
	Problems       []string `json:"problems,omitempty"`
}

func describe(snap *model.Snapshot) snapshotInfo {
	info := snapshotInfo{
		Season:     snap.Season,
		LeagueID:   snap.League.ID,
		LeagueName: snap.League.Name,
		Members:    len(snap.League.Members),
		Users:      len(snap.Users),
		Players:    len(snap.Players),
		Gameweeks:  len(snap.Gameweeks),
	}
	for _, gw := range snap.Gameweeks {
		if gw.Finished && gw.ID > info.LatestFinished {
			info.LatestFinished = gw.ID
		}
		if gw.IsCurrent {
			info.Current = gw.ID
		}
	}
	if err := snap.Verify(); err != nil {
		info.Problems = strings.Split(err.Error(), "\n")
	}
	return info
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
