package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

// RunRepository persists batch enrichment outcomes.
type RunRepository interface {
	Record(ctx context.Context, run *entity.Run) error
	List(ctx context.Context, limit int) ([]*entity.Run, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Run, error)
}

type runRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepo{db: db, logger: logger}
}

// timeLayout is fixed width so text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, batch_id, source_path, output_path, id_domanda, soggetto, status, http_status, error_message, started_at, finished_at`

func (r *runRepo) Record(ctx context.Context, run *entity.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	b := r.db.Bind
	q := fmt.Sprintf(`INSERT INTO enrich_run (%s) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		runColumns, b(1), b(2), b(3), b(4), b(5), b(6), b(7), b(8), b(9), b(10), b(11))
	_, err := r.db.ExecContext(ctx, q,
		run.ID.String(),
		run.BatchID.String(),
		run.SourcePath,
		run.OutputPath,
		run.IDDomanda,
		run.Subject,
		run.Status,
		run.HTTPStatus,
		run.ErrorMessage,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		r.logger.Error("enrich_run insert failed", "source_path", run.SourcePath, "error", err)
		return common.WrapError(fmt.Errorf("%w: %w", common.ErrDatabase, err), "insert enrich_run")
	}
	r.logger.Debug("enrich_run recorded", "id", run.ID, "status", run.Status)
	return nil
}

func (r *runRepo) List(ctx context.Context, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT %s FROM enrich_run ORDER BY finished_at DESC, id LIMIT %s`, runColumns, r.db.Bind(1))
	return r.query(ctx, q, limit)
}

func (r *runRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Run, error) {
	q := fmt.Sprintf(`SELECT %s FROM enrich_run WHERE batch_id = %s ORDER BY started_at, id`, runColumns, r.db.Bind(1))
	return r.query(ctx, q, batchID.String())
}

func (r *runRepo) query(ctx context.Context, q string, args ...any) ([]*entity.Run, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %w", common.ErrDatabase, err), "query enrich_run")
	}
	defer rows.Close()

	var out []*entity.Run
	for rows.Next() {
		var (
			run                 entity.Run
			id, batchID         string
			startedAt, finished string
		)
		if err := rows.Scan(&id, &batchID, &run.SourcePath, &run.OutputPath, &run.IDDomanda, &run.Subject,
			&run.Status, &run.HTTPStatus, &run.ErrorMessage, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan enrich_run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id: %w", err)
		}
		if run.BatchID, err = uuid.Parse(batchID); err != nil {
			return nil, fmt.Errorf("parse batch id: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}
