// Package batch runs template enrichment over a directory of spreadsheets.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/dispatch"
	"github.com/joseph-ayodele/criteria-extractor/internal/enrich"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/repository"
)

type Options struct {
	ExcelDir     string
	TemplatePath string
	OutDir       string
	Endpoint     string
	Token        string
}

// Validate rejects missing paths and an endpoint without a token.
func (o Options) Validate() error {
	switch {
	case strings.TrimSpace(o.ExcelDir) == "":
		return fmt.Errorf("%w: excel dir is required", common.ErrInvalidInput)
	case strings.TrimSpace(o.TemplatePath) == "":
		return fmt.Errorf("%w: template is required", common.ErrInvalidInput)
	case strings.TrimSpace(o.OutDir) == "":
		return fmt.Errorf("%w: out dir is required", common.ErrInvalidInput)
	case o.Endpoint != "" && strings.TrimSpace(o.Token) == "":
		return fmt.Errorf("%w: endpoint given but no token (flag --token or env API_TOKEN)", common.ErrInvalidInput)
	}
	return nil
}

type FileResult struct {
	Path       string
	OutputPath string
	IDDomanda  string
	Posted     bool
	HTTPStatus int
	Err        string
}

type Stats struct {
	Scanned    uint32
	Processed  uint32
	Posted     uint32
	PostFailed uint32
	Failed     uint32
}

// Poster is the dispatch dependency.
type Poster interface {
	Post(ctx context.Context, endpoint, token string, doc any) (dispatch.Result, error)
}

type Runner struct {
	processor *enrich.Processor
	poster    Poster
	runs      repository.RunRepository
	logger    *slog.Logger
}

// NewRunner wires the runner. poster may be nil when no endpoint is used;
// runs may be nil to disable the journal.
func NewRunner(processor *enrich.Processor, poster Poster, runs repository.RunRepository, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{processor: processor, poster: poster, runs: runs, logger: logger}
}

// Run enriches every spreadsheet in opts.ExcelDir. Invalid options, an
// unreadable template and an empty input directory are returned as errors;
// per-file failures are counted and processing continues.
func (r *Runner) Run(ctx context.Context, opts Options) ([]FileResult, Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, Stats{}, err
	}
	if opts.Endpoint != "" && r.poster == nil {
		return nil, Stats{}, fmt.Errorf("%w: endpoint given but dispatch is not configured", common.ErrInvalidInput)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, Stats{}, fmt.Errorf("create out dir: %w", err)
	}
	r.logger.Debug("batch.config", "excel_dir", opts.ExcelDir, "out_dir", opts.OutDir, "template", opts.TemplatePath)

	tpl, err := enrich.LoadTemplate(opts.TemplatePath)
	if err != nil {
		return nil, Stats{}, err
	}

	files, err := ListSpreadsheets(opts.ExcelDir)
	if err != nil {
		return nil, Stats{}, err
	}
	if len(files) == 0 {
		return nil, Stats{}, fmt.Errorf("%w: no %s file found in %s", common.ErrNoInputs, constants.SpreadsheetGlob, opts.ExcelDir)
	}

	batchID := uuid.New()
	results := make([]FileResult, 0, len(files))
	var stats Stats

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		stats.Scanned++
		res := r.processOne(ctx, batchID, path, tpl, opts)
		switch {
		case res.OutputPath == "":
			stats.Failed++
		case opts.Endpoint == "":
			stats.Processed++
		case res.Posted:
			stats.Processed++
			stats.Posted++
		default:
			stats.Processed++
			stats.PostFailed++
		}
		results = append(results, res)
	}

	r.logger.Info("batch.complete",
		"batch_id", batchID,
		"scanned", stats.Scanned,
		"processed", stats.Processed,
		"posted", stats.Posted,
		"post_failed", stats.PostFailed,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

func (r *Runner) processOne(ctx context.Context, batchID uuid.UUID, path string, tpl *enrich.Template, opts Options) FileResult {
	start := time.Now()
	log := r.logger.With("file", filepath.Base(path))
	log.Info("batch.file.start")

	run := &entity.Run{BatchID: batchID, SourcePath: path, StartedAt: start.UTC()}
	res := FileResult{Path: path}

	enriched, err := r.processor.ProcessFile(ctx, path, tpl)
	if err != nil {
		log.Error("batch.file.error", "error", err)
		res.Err = err.Error()
		run.Status, run.ErrorMessage = string(constants.RunStatusFailed), err.Error()
		r.record(ctx, run)
		return res
	}
	doc := enriched.Document
	res.IDDomanda = doc.ID()
	run.IDDomanda, run.Subject = doc.ID(), doc.Subject()

	out, err := doc.Encode()
	if err == nil {
		res.OutputPath = filepath.Join(opts.OutDir, OutputName(path))
		err = os.WriteFile(res.OutputPath, out, 0o644)
	}
	if err != nil {
		log.Error("batch.file.write_error", "error", err)
		res.OutputPath, res.Err = "", err.Error()
		run.Status, run.ErrorMessage = string(constants.RunStatusFailed), err.Error()
		r.record(ctx, run)
		return res
	}
	run.OutputPath = res.OutputPath
	log.Info("batch.file.saved", "output", filepath.Base(res.OutputPath), "id_domanda", res.IDDomanda)

	run.Status = string(constants.RunStatusWritten)
	if opts.Endpoint != "" {
		log.Debug("batch.file.post", "endpoint", opts.Endpoint)
		pr, err := r.poster.Post(ctx, opts.Endpoint, opts.Token, doc)
		res.HTTPStatus = pr.StatusCode
		run.HTTPStatus = pr.StatusCode
		if err != nil {
			res.Err = err.Error()
			run.Status, run.ErrorMessage = string(constants.RunStatusPostFailed), err.Error()
		} else {
			res.Posted = true
			run.Status = string(constants.RunStatusPosted)
		}
	}
	r.record(ctx, run)
	return res
}

// record writes the journal row; journal failures never fail the file.
func (r *Runner) record(ctx context.Context, run *entity.Run) {
	if r.runs == nil {
		return
	}
	run.FinishedAt = time.Now().UTC()
	if err := r.runs.Record(ctx, run); err != nil {
		r.logger.Warn("batch.journal.error", "file", filepath.Base(run.SourcePath), "error", err)
	}
}

// IsNoInputs reports the empty-directory outcome the CLI treats as success.
func IsNoInputs(err error) bool {
	return errors.Is(err, common.ErrNoInputs)
}
