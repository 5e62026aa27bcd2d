package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "sqlite://" + filepath.Join(t.TempDir(), "journal.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunRepository_RecordAndList(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	assert.Equal(t, DialectSQLite, db.Dialect)
	repo := NewRunRepository(db, nil)

	batch := uuid.New()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := &entity.Run{
		BatchID:    batch,
		SourcePath: "/in/a.xlsx",
		OutputPath: "/out/a.json",
		IDDomanda:  "000000001",
		Subject:    "Alfa",
		Status:     string(constants.RunStatusPosted),
		HTTPStatus: 201,
		StartedAt:  t0,
		FinishedAt: t0.Add(time.Second),
	}
	second := &entity.Run{
		BatchID:      batch,
		SourcePath:   "/in/b.xlsx",
		Status:       string(constants.RunStatusFailed),
		ErrorMessage: "workbook could not be opened",
		StartedAt:    t0.Add(2 * time.Second),
		FinishedAt:   t0.Add(3 * time.Second),
	}
	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))
	assert.NotEqual(t, uuid.Nil, first.ID)

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "/in/b.xlsx", runs[0].SourcePath)
	assert.Equal(t, *first, *runs[1])

	byBatch, err := repo.ListByBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, byBatch, 2)
	assert.Equal(t, "/in/a.xlsx", byBatch[0].SourcePath)

	other, err := repo.ListByBatch(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(context.Background(), Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "?", db.Bind(3))
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, testLogger()))
}
