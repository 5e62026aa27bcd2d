package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/criteria-extractor/internal/repository"
)

func newRunsCommand(a *app) *cobra.Command {
	var (
		limit int
		ping  bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent enrichment runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Journal.DSN == "" {
				return fmt.Errorf("no journal configured (set JOURNAL_DSN or journal.dsn)")
			}
			if ping {
				return pingJournal(cmd, a)
			}
			runs, closeJournal, err := a.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeJournal()

			list, err := runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "FINISHED\tSTATUS\tHTTP\tID_DOMANDA\tSOURCE\tERROR")
			for _, r := range list {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					r.FinishedAt.Local().Format(time.DateTime), r.Status, r.HTTPStatus, r.IDDomanda, r.SourcePath, r.ErrorMessage)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of runs to show")
	cmd.Flags().BoolVar(&ping, "ping", false, "only check that the journal is reachable")
	return cmd
}

func pingJournal(cmd *cobra.Command, a *app) error {
	db, err := repository.Open(cmd.Context(), repository.Config{DSN: a.cfg.Journal.DSN}, a.logger)
	if err != nil {
		return fmt.Errorf("journal health: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := repository.HealthCheck(cmd.Context(), db, time.Second, a.logger); err != nil {
		return fmt.Errorf("journal health: %w", err)
	}
	_, _ = fmt.Fprintf(a.out, "journal health: OK (%s)\n", db.Dialect)
	return nil
}
