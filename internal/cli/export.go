package cli

import (
	"github.com/spf13/cobra"

	"fpl-league-stats/internal/export"
)

func (a *app) exportCommand() *cobra.Command {
	var (
		season   string
		leagueID int
		dbPath   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a stored league season into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot(season, leagueID)
			if err != nil {
				return err
			}
			db, err := export.Open(dbPath, a.log.WithField("component", "export"))
			if err != nil {
				return err
			}
			defer db.Close()
			if _, err := db.Export(cmd.Context(), snap); err != nil {
				return err
			}
			return db.Close()
		},
	}
	leagueFlags(cmd, &season, &leagueID)
	cmd.Flags().StringVar(&dbPath, "db", "stats.db", "SQLite database file")
	return cmd
}
