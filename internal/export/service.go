package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

// Service renders result tables as XLSX bytes for download.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

type column struct {
	header string
	width  float64
}

// CriteriaXLSX renders inferred criteria.
func (s *Service) CriteriaXLSX(criteria []entity.Criterion) ([]byte, error) {
	rows := make([][]any, 0, len(criteria))
	for _, c := range criteria {
		rows = append(rows, []any{c.ID, c.Description})
	}
	return s.render("Criteria", []column{
		{"criterio_id", 22},
		{"descrizione", 90},
	}, rows)
}

// MatchesXLSX renders the answers of the matching pipeline.
func (s *Service) MatchesXLSX(matches []entity.MatchedCriterion) ([]byte, error) {
	rows := make([][]any, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []any{m.ID, m.Guide, m.Answer})
	}
	return s.render("Matches", []column{
		{"criterio_id", 22},
		{"descrizione_guida", 60},
		{"risposta_al_criterio_dal_documento", 90},
	}, rows)
}

// RecordsXLSX renders spreadsheet extraction records as code/text pairs.
func (s *Service) RecordsXLSX(records []entity.Record) ([]byte, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Code, r.Text})
	}
	return s.render("Estrazione", []column{
		{"codice", 14},
		{"testo", 90},
	}, rows)
}

func (s *Service) render(sheet string, cols []column, rows [][]any) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := make([]any, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	for i, c := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, c.width)
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastColumn(len(cols)), len(rows)+1), nil); err != nil {
		s.logger.Warn("export.xlsx.autofilter", "sheet", sheet, "error", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func lastColumn(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
