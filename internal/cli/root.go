// Package cli builds the fplstats command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fpl-league-stats/internal/config"
	"fpl-league-stats/internal/logging"
	"fpl-league-stats/internal/model"
	"fpl-league-stats/internal/store"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg config.Config
	log *logrus.Logger

	dataRoot string
	logLevel string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command tree with the process streams and returns the
// exit code.
func Execute(ctx context.Context) int {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	root := a.rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if a.log != nil {
			a.log.WithError(err).Error("command failed")
		} else {
			fmt.Fprintln(a.stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fplstats",
		Short:         "Fetch a Fantasy Premier League classic league and compute statistics over it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.dataRoot, "data-root", "", "root directory of stored documents (default $FPLSTATS_DATA_ROOT or data)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")

	root.AddCommand(
		a.fetchCommand(),
		a.analyzeCommand(),
		a.serveCommand(),
		a.exportCommand(),
		a.schemaCommand(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dataRoot != "" {
		cfg.DataRoot = a.dataRoot
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)
	return nil
}

func (a *app) openStore() *store.JSONStore {
	return store.NewJSONStore(a.cfg.DataRoot)
}

// loadSnapshot reads a stored season; an empty season means the latest one
// stored for the league.
func (a *app) loadSnapshot(season string, leagueID int) (*model.Snapshot, error) {
	st := a.openStore()
	if season == "" {
		latest, err := st.LatestSeason(leagueID)
		if err != nil {
			return nil, err
		}
		season = latest
	}
	if !model.ValidSeason(season) {
		return nil, fmt.Errorf("%w: %q (want e.g. 2023_2024)", store.ErrBadSeason, season)
	}
	return st.Load(season, leagueID)
}

// leagueFlags registers the --season/--league pair used by the read-only
// commands.
func leagueFlags(cmd *cobra.Command, season *string, leagueID *int) {
	cmd.Flags().StringVarP(season, "season", "s", "", "season, e.g. 2023_2024 (default: latest stored)")
	cmd.Flags().IntVarP(leagueID, "league", "l", 0, "classic league id")
	_ = cmd.MarkFlagRequired("league")
}
