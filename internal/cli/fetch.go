package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fpl-league-stats/internal/fetch"
	"fpl-league-stats/internal/refresh"
)

func (a *app) fetchCommand() *cobra.Command {
	var (
		leagueID  int
		email     string
		password  string
		forceAll  bool
		live      bool
		logOutput string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the league from the FPL API and update the stored documents",
		Long: "Fetch only the gameweeks missing from the stored documents, or everything with\n" +
			"--force-fetch-all. The password falls back to $FPL_PASSWORD, then a hidden prompt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logOutput != "" {
				f, err := os.Create(logOutput)
				if err != nil {
					return fmt.Errorf("open output: %w", err)
				}
				a.log.SetOutput(f)
				defer func() {
					a.log.SetOutput(a.stderr)
					f.Close()
				}()
			}
			if email == "" {
				email = a.cfg.Email
			}
			if email == "" {
				return errors.New("--email is required (or set FPL_EMAIL)")
			}
			if password == "" {
				password = a.cfg.Password
			}
			if password == "" {
				p, err := a.readPassword(email)
				if err != nil {
					return err
				}
				password = p
			}

			ctx := cmd.Context()
			client := fetch.NewClient(a.cfg, a.log)
			if err := client.Login(ctx, email, password); err != nil {
				return err
			}
			r := refresh.New(client, a.openStore(), a.log.WithField("component", "refresh"))
			res, err := r.Run(ctx, refresh.Options{LeagueID: leagueID, ForceAll: forceAll, IncludeLive: live})
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"run_id":            res.RunID,
				"season":            res.Season,
				"gameweek":          res.Target,
				"members_refreshed": res.MembersRefreshed,
				"players_refreshed": res.PlayersRefreshed,
			}).Info("Stored documents are up to date")
			return nil
		},
	}
	cmd.Flags().IntVarP(&leagueID, "league", "l", 0, "classic league id")
	cmd.Flags().StringVarP(&email, "email", "e", "", "FPL account email (default $FPL_EMAIL)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "FPL account password (default $FPL_PASSWORD, then prompt)")
	cmd.Flags().BoolVar(&forceAll, "force-fetch-all", false, "refetch every gameweek and player")
	cmd.Flags().BoolVar(&live, "fetch-live", false, "also fetch the current unfinished gameweek")
	cmd.Flags().StringVarP(&logOutput, "output", "o", "", "write the run log to this file instead of stderr")
	_ = cmd.MarkFlagRequired("league")
	return cmd
}

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal, or reads one line otherwise.
func (a *app) readPassword(email string) (string, error) {
	fmt.Fprintf(a.stderr, "Password for %s: ", email)
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := readLine(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if line == "" {
		return "", errors.New("no password given")
	}
	return line, nil
}

// readLine reads up to a newline one byte at a time so nothing past the
// line is consumed from r.
func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			b.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(b.String(), "\r"), nil
}
