package enrich

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/xls"
)

// Sheets records which sheets fed an enrichment.
type Sheets struct {
	Registry   string `json:"registry"`
	Proposal   string `json:"proposal"`
	Evaluation string `json:"evaluation"`
}

// Result is one enriched workbook.
type Result struct {
	Document     Document
	Sheets       Sheets
	Narratives   int
	Descriptions int
}

// Processor turns application workbooks into enriched documents.
type Processor struct {
	newID  IDGenerator
	logger *slog.Logger
}

func NewProcessor(newID IDGenerator, logger *slog.Logger) *Processor {
	if newID == nil {
		newID = RandomID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{newID: newID, logger: logger}
}

// ProcessFile enriches tpl from the workbook at path.
func (p *Processor) ProcessFile(ctx context.Context, path string, tpl *Template) (Result, error) {
	wb, err := xls.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer wb.Close()
	return p.process(ctx, wb, tpl)
}

// ProcessBytes enriches tpl from an uploaded workbook.
func (p *Processor) ProcessBytes(ctx context.Context, name string, data []byte, tpl *Template) (Result, error) {
	wb, err := xls.OpenReader(name, bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	defer wb.Close()
	return p.process(ctx, wb, tpl)
}

func (p *Processor) process(ctx context.Context, wb *xls.Workbook, tpl *Template) (Result, error) {
	start := time.Now()
	names := wb.SheetNames()

	var sheets Sheets
	var err error
	if sheets.Registry, err = FindSheet(names, constants.RegistrySheetKeywords, constants.RegistrySheetFallback); err != nil {
		return Result{}, fmt.Errorf("registry sheet: %w", err)
	}
	if sheets.Proposal, err = FindSheet(names, constants.ProposalSheetKeywords, constants.ProposalSheetFallback); err != nil {
		return Result{}, fmt.Errorf("proposal sheet: %w", err)
	}
	if sheets.Evaluation, err = FindSheet(names, constants.EvaluationSheetKeywords, constants.EvaluationSheetFallback); err != nil {
		return Result{}, fmt.Errorf("evaluation sheet: %w", err)
	}
	p.logger.DebugContext(ctx, "enrich.sheets",
		"file", wb.Name(),
		"registry", sheets.Registry,
		"proposal", sheets.Proposal,
		"evaluation", sheets.Evaluation,
	)

	registry, err := wb.Rows(sheets.Registry)
	if err != nil {
		return Result{}, err
	}
	proposal, err := wb.Rows(sheets.Proposal)
	if err != nil {
		return Result{}, err
	}
	evaluation, err := wb.Rows(sheets.Evaluation)
	if err != nil {
		return Result{}, err
	}

	subject := ExtractSubject(registry)
	narratives := ExtractNarratives(proposal)
	descriptions := ExtractDescriptions(evaluation)

	doc, err := Enrich(tpl, narratives, descriptions, subject, p.newID)
	if err != nil {
		return Result{}, err
	}

	p.logger.InfoContext(ctx, "enrich.ok",
		"file", wb.Name(),
		"id_domanda", doc.ID(),
		"soggetto", subject,
		"narratives", len(narratives),
		"descriptions", len(descriptions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Document: doc, Sheets: sheets, Narratives: len(narratives), Descriptions: len(descriptions)}, nil
}
