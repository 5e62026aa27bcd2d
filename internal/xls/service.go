package xls

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

// Request is one extraction against an uploaded workbook.
type Request struct {
	Name      string
	Data      []byte
	Selection Selection
	// Codes restricts the output; nil keeps every record.
	Codes   []string
	Refresh bool
	Session string
}

type Result struct {
	Sheet    string
	Column   string
	RowStart int
	RowEnd   int
	// Codes lists every parsed code, before filtering.
	Codes   []string
	Records []entity.Record
	Cached  bool
}

// Envelope wraps the filtered records for download.
func (r Result) Envelope() entity.Extraction {
	return entity.Extraction{Records: r.Records}
}

type SheetInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	MaxRow int    `json:"max_row"`
}

type Service struct {
	cache  *Cache
	logger *slog.Logger
}

func NewService(cache *Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: cache, logger: logger}
}

// Sheets lists sheets with their 1-based index and last data row.
func (s *Service) Sheets(ctx context.Context, name string, data []byte) ([]SheetInfo, error) {
	wb, err := OpenReader(name, bytes.NewReader(data))
	if err != nil {
		s.logger.ErrorContext(ctx, "xls.open.error", "file", name, "error", err)
		return nil, err
	}
	defer wb.Close()

	var out []SheetInfo
	for i, n := range wb.SheetNames() {
		maxRow, err := wb.MaxRow(n)
		if err != nil {
			return nil, err
		}
		out = append(out, SheetInfo{Index: i + 1, Name: n, MaxRow: maxRow})
	}
	return out, nil
}

// Extract parses the selected range, reusing the session's previous result
// when the configuration is unchanged.
func (s *Service) Extract(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	wb, err := OpenReader(req.Name, bytes.NewReader(req.Data))
	if err != nil {
		s.logger.ErrorContext(ctx, "xls.open.error", "file", req.Name, "error", err)
		return Result{}, err
	}
	defer wb.Close()

	resolved, err := Resolve(wb, req.Selection)
	if err != nil {
		s.logger.WarnContext(ctx, "xls.selection.invalid", "file", req.Name, "error", err)
		return Result{}, err
	}

	key := CacheKey(SourceID(req.Name, req.Data), resolved.Sheet, resolved.Column, resolved.RowStart, resolved.RowEnd)
	records, hit, err := s.cache.Load(req.Session, key, req.Refresh, func() ([]entity.Record, error) {
		return ParseSheet(wb, resolved)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "xls.parse.error", "file", req.Name, "sheet", resolved.Sheet, "error", err)
		return Result{}, err
	}

	filtered := FilterCodes(records, req.Codes)
	s.logger.InfoContext(ctx, "xls.parse.ok",
		"file", req.Name,
		"sheet", resolved.Sheet,
		"column", resolved.Column,
		"rows", []int{resolved.RowStart, resolved.RowEnd},
		"records", len(records),
		"selected", len(filtered),
		"cached", hit,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return Result{
		Sheet:    resolved.Sheet,
		Column:   resolved.Column,
		RowStart: resolved.RowStart,
		RowEnd:   resolved.RowEnd,
		Codes:    Codes(records),
		Records:  filtered,
		Cached:   hit,
	}, nil
}
