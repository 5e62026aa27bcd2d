package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/criteria-extractor/internal/batch"
	"github.com/joseph-ayodele/criteria-extractor/internal/dispatch"
	"github.com/joseph-ayodele/criteria-extractor/internal/enrich"
)

func newEnrichCommand(a *app) *cobra.Command {
	var opts batch.Options

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill the template from every *.xls* workbook in a directory",
		Long: `Reads the registry, proposal and evaluation sheets of each workbook, merges
subject, narratives and group descriptions into a copy of the template and
writes <stem>.json to the output directory. With --endpoint each document is
POSTed with a bearer token (--token or API_TOKEN).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Endpoint == "" {
				opts.Endpoint = a.cfg.Dispatch.Endpoint
			}
			if opts.Token == "" {
				opts.Token = a.cfg.Dispatch.Token
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			runs, closeJournal, err := a.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeJournal()

			poster := dispatch.NewClient(a.logger,
				dispatch.WithVerbose(a.verbose),
				dispatch.WithTimeout(a.cfg.Dispatch.Timeout),
			)
			runner := batch.NewRunner(enrich.NewProcessor(enrich.RandomID, a.logger), poster, runs, a.logger)

			results, stats, err := runner.Run(cmd.Context(), opts)
			if batch.IsNoInputs(err) {
				a.logger.Warn("batch.no_inputs", "dir", opts.ExcelDir)
				_, _ = fmt.Fprintf(a.out, "no .xls* files found in %s\n", opts.ExcelDir)
				return nil
			}
			if err != nil {
				return err
			}

			for _, r := range results {
				switch {
				case r.OutputPath == "":
					_, _ = fmt.Fprintf(a.out, "FAILED  %s: %s\n", r.Path, r.Err)
				case r.Err != "":
					_, _ = fmt.Fprintf(a.out, "saved   %s (idDomanda %s), POST failed: %s\n", r.OutputPath, r.IDDomanda, r.Err)
				default:
					_, _ = fmt.Fprintf(a.out, "saved   %s (idDomanda %s)\n", r.OutputPath, r.IDDomanda)
				}
			}
			_, _ = fmt.Fprintf(a.out, "\nProcessing complete: scanned=%d processed=%d posted=%d post_failed=%d failed=%d\n",
				stats.Scanned, stats.Processed, stats.Posted, stats.PostFailed, stats.Failed)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ExcelDir, "excel-dir", "", "directory holding the workbooks (required)")
	f.StringVar(&opts.TemplatePath, "template", "", "JSON template path (required)")
	f.StringVar(&opts.OutDir, "out-dir", "", "output directory, created when missing (required)")
	f.StringVar(&opts.Endpoint, "endpoint", "", "POST each document to this URL")
	f.StringVar(&opts.Token, "token", os.Getenv("API_TOKEN"), "bearer token for --endpoint")
	_ = cmd.MarkFlagRequired("excel-dir")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("out-dir")
	return cmd
}
