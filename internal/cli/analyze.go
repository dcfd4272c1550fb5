package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fpl-league-stats/internal/present"
	"fpl-league-stats/internal/stats"
)

func (a *app) analyzeCommand() *cobra.Command {
	var (
		season        string
		leagueID      int
		live          bool
		disablePrompt bool
		gameweek      int
		only          []string
		output        string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print every statistic for a stored league season",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := present.Keys(only)
			if err != nil {
				return err
			}
			snap, err := a.loadSnapshot(season, leagueID)
			if err != nil {
				return err
			}
			if err := snap.Verify(); err != nil {
				a.log.WithError(err).Warn("Stored snapshot is inconsistent; statistics may be off")
			}

			out, closeOut, err := present.OpenOutput(output)
			if err != nil {
				return err
			}
			defer closeOut()
			if output == "" {
				out = a.stdout
			}

			analyzer := stats.New(snap, stats.Options{Gameweek: gameweek, Live: live})
			log := a.log.WithFields(logrus.Fields{"season": snap.Season, "league_id": snap.League.ID, "gameweek": analyzer.Target()})

			runner := present.NewRunner(out, !disablePrompt && a.interactive(), log)
			runner.Prompt = a.stderr
			runner.In = a.stdin
			sum, err := runner.Run(analyzer, keys)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"printed": sum.Printed, "skipped": len(sum.Skipped)}).Info("Analysis finished")
			return closeOut()
		},
	}
	leagueFlags(cmd, &season, &leagueID)
	cmd.Flags().BoolVar(&live, "live", false, "include the current unfinished gameweek")
	cmd.Flags().BoolVar(&disablePrompt, "disable-prompt", false, "do not wait for Enter between statistics")
	cmd.Flags().IntVarP(&gameweek, "gameweek", "g", 0, "compute statistics as of this gameweek (default: latest finished)")
	cmd.Flags().StringSliceVar(&only, "only", nil, "comma-separated statistic keys to print, in this order")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the tables to this file instead of stdout")
	return cmd
}

// interactive reports whether stdin is a terminal someone can press Enter in.
func (a *app) interactive() bool {
	f, ok := a.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
