// Package cli holds the cobra commands behind cmd/criteria.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/criteria-extractor/internal/repository"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    *common.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the command tree. out receives command results,
// errOut receives logs.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "criteria",
		Short: "Extract, match and enrich evaluation criteria from documents",
		Long: `criteria turns application documents into structured evaluation criteria.

  infer        ask the model for the criteria in a PDF, DOCX or XLSX document
  match        answer a criteria list from a document
  extract-xls  parse coded criteria out of one spreadsheet column
  enrich       fill a JSON template from a directory of workbooks and optionally POST it
  serve        run the HTTP API
  runs         list the enrichment journal`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and detailed dispatch failures")
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("CRITERIA_CONFIG"), "YAML config file")

	root.AddCommand(
		newEnrichCommand(a),
		newExtractXLSCommand(a),
		newInferCommand(a),
		newMatchCommand(a),
		newServeCommand(a),
		newRunsCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := common.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.SlogLevel()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.cfg = cfg
	a.logger = common.NewLogger(a.errOut, level)
	slog.SetDefault(a.logger)
	a.logger.Debug("config.loaded", "config", cfg.String())
	return nil
}

func (a *app) openAI() (*openai.Client, error) {
	if err := a.cfg.RequireLLM(); err != nil {
		return nil, err
	}
	c := openai.NewClient(openai.ConfigFrom(a.cfg.LLM), a.logger)
	a.logger.Info("llm.client.ready", "model", c.Model())
	return c, nil
}

// openJournal returns a nil repository when no DSN is configured.
func (a *app) openJournal(ctx context.Context) (repository.RunRepository, func(), error) {
	if a.cfg.Journal.DSN == "" {
		return nil, func() {}, nil
	}
	db, err := repository.Open(ctx, repository.Config{DSN: a.cfg.Journal.DSN}, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return repository.NewRunRepository(db, a.logger), func() { _ = db.Close() }, nil
}

// Execute runs the CLI with args (os.Args[1:] when nil) and returns the
// process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if args != nil {
		root.SetArgs(args)
	}
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
