package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readBack(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestCriteriaXLSX(t *testing.T) {
	data, err := NewService(testLogger()).CriteriaXLSX([]entity.Criterion{
		{ID: "A1", Description: "Qualità del progetto"},
		{ID: "B2", Description: "Budget"},
	})
	require.NoError(t, err)

	rows := readBack(t, data, "Criteria")
	assert.Equal(t, [][]string{
		{"criterio_id", "descrizione"},
		{"A1", "Qualità del progetto"},
		{"B2", "Budget"},
	}, rows)
}

func TestMatchesXLSX(t *testing.T) {
	data, err := NewService(testLogger()).MatchesXLSX([]entity.MatchedCriterion{
		{ID: "A1", Guide: "Quality", Answer: "Section 2."},
	})
	require.NoError(t, err)

	rows := readBack(t, data, "Matches")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"A1", "Quality", "Section 2."}, rows[1])
}

func TestRecordsXLSX_Empty(t *testing.T) {
	data, err := NewService(testLogger()).RecordsXLSX(nil)
	require.NoError(t, err)

	rows := readBack(t, data, "Estrazione")
	assert.Equal(t, [][]string{{"codice", "testo"}}, rows)
}
