package cli

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/criteria-extractor/internal/dispatch"
	"github.com/joseph-ayodele/criteria-extractor/internal/enrich"
	"github.com/joseph-ayodele/criteria-extractor/internal/export"
	"github.com/joseph-ayodele/criteria-extractor/internal/pipeline"
	"github.com/joseph-ayodele/criteria-extractor/internal/server"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
	"github.com/joseph-ayodele/criteria-extractor/internal/xls"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, cleanup, err := a.buildServer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides config")
	return cmd
}

func (a *app) buildServer(cmd *cobra.Command) (*server.Server, func(), error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		a.cfg.Server.Addr = addr
	}
	client, err := a.openAI()
	if err != nil {
		return nil, nil, err
	}
	runs, closeJournal, err := a.openJournal(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	te := textextract.NewExtractor(a.logger)
	deps := server.Deps{
		Infer:    pipeline.NewInferService(te, client, a.logger),
		Match:    pipeline.NewMatchService(te, client, a.logger),
		XLS:      xls.NewService(xls.NewCache(), a.logger),
		Enrich:   enrich.NewProcessor(enrich.RandomID, a.logger),
		Export:   export.NewService(a.logger),
		Dispatch: dispatch.NewClient(a.logger, dispatch.WithVerbose(a.verbose), dispatch.WithTimeout(a.cfg.Dispatch.Timeout)),
		Runs:     runs,
	}
	return server.New(a.cfg.Server, a.cfg.Dispatch, deps, a.logger), closeJournal, nil
}
