package cli

import (
	"github.com/spf13/cobra"

	"fpl-league-stats/internal/schema"
)

func (a *app) schemaCommand() *cobra.Command {
	var (
		season   string
		leagueID int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List the fields and JSON types of the stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.openStore()
			if season == "" {
				latest, err := st.LatestSeason(leagueID)
				if err != nil {
					return err
				}
				season = latest
			}
			inv, err := schema.Build(st, season, leagueID)
			if err != nil {
				return err
			}
			if err := schema.Write(inv, out, a.stdout); err != nil {
				return err
			}
			if out != "" {
				a.log.WithField("path", out).Info("Wrote schema inventory")
			}
			return nil
		},
	}
	leagueFlags(cmd, &season, &leagueID)
	cmd.Flags().StringVar(&out, "out", "", "write the inventory to this file instead of stdout")
	return cmd
}
