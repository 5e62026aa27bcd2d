package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/dispatch"
	"github.com/joseph-ayodele/criteria-extractor/internal/enrich"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm"
	"github.com/joseph-ayodele/criteria-extractor/internal/pipeline"
	"github.com/joseph-ayodele/criteria-extractor/internal/repository"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
	"github.com/joseph-ayodele/criteria-extractor/internal/xls"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLLM struct{}

func (fakeLLM) ExtractCriteria(_ context.Context, req llm.ExtractRequest) (llm.ExtractResponse, error) {
	return llm.ExtractResponse{Criteria: []entity.Criterion{{ID: "A1", Description: "from " + req.Filename}}}, nil
}

func (fakeLLM) MatchCriteria(_ context.Context, req llm.MatchRequest) (llm.MatchResponse, error) {
	out := make([]entity.MatchedCriterion, 0, len(req.Criteria))
	for _, c := range req.Criteria {
		out = append(out, entity.MatchedCriterion{ID: c.ID, Guide: c.Guide, Answer: "covered"})
	}
	return llm.MatchResponse{Matches: out}, nil
}

type sheet struct {
	name string
	rows [][]any
}

func workbook(t *testing.T, sheets ...sheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type part struct {
	field, filename string
	data            []byte
}

func multipartBody(t *testing.T, files []part, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range files {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

type fixture struct {
	handler http.Handler
	runs    repository.RunRepository
}

func newFixture(t *testing.T, dcfg common.DispatchConfig, withJournal bool) fixture {
	t.Helper()
	logger := testLogger()
	cfg := common.DefaultConfig().Server
	cfg.MaxUploadMB = 1

	te := textextract.NewExtractor(logger)
	deps := Deps{
		Infer:    pipeline.NewInferService(te, fakeLLM{}, logger),
		Match:    pipeline.NewMatchService(te, fakeLLM{}, logger),
		XLS:      xls.NewService(xls.NewCache(), logger),
		Enrich:   enrich.NewProcessor(func() string { return "000000042" }, logger),
		Dispatch: dispatch.NewClient(logger, dispatch.WithTimeout(5*time.Second)),
	}
	if withJournal {
		db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		deps.Runs = repository.NewRunRepository(db, logger)
	}
	return fixture{handler: New(cfg, dcfg, deps, logger).Routes(), runs: deps.Runs}
}

func (f fixture) post(t *testing.T, path string, files []part, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var proposalText = "CRITERIO A1 qualità del progetto e coerenza con gli obiettivi del bando regionale"

func TestHealthz(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestInfer_JSON(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	doc := workbook(t, sheet{"Foglio1", [][]any{{proposalText}}})

	rec := f.post(t, "/v1/infer", []part{{"file", "bando.xlsx", doc}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, []any{map[string]any{"criterio_id": "A1", "descrizione": "from bando.xlsx"}}, out["criteria"])
	assert.Equal(t, []any{}, out["warnings"])
	assert.Contains(t, out["preview"], "qualità")
}

func TestInfer_ShortDocumentWarns(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	doc := workbook(t, sheet{"Foglio1", [][]any{{"corto"}}})

	rec := f.post(t, "/v1/infer", []part{{"file", "corto.xlsx", doc}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, []any{}, out["criteria"])
	assert.Len(t, out["warnings"], 1)
}

func TestInfer_XLSXDownload(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	doc := workbook(t, sheet{"Foglio1", [][]any{{proposalText}}})

	rec := f.post(t, "/v1/infer?format=xlsx", []part{{"file", "bando.xlsx", doc}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bando_criteria.xlsx")

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	rows, err := wb.GetRows("Criteria")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "from bando.xlsx"}, rows[1])
}

func TestInfer_BadRequests(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)

	rec := f.post(t, "/v1/infer", nil, map[string]string{"x": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode(t, rec)["error"].(map[string]any)["code"])

	req := httptest.NewRequest(http.MethodPost, "/v1/infer", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	big := bytes.Repeat([]byte("a"), 2<<20)
	rec := f.post(t, "/v1/infer", []part{{"file", "big.pdf", big}}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMatch(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	doc := workbook(t, sheet{"Foglio1", [][]any{{proposalText}}})

	rec := f.post(t, "/v1/match", []part{
		{"criteria", "criteri.json", []byte(`{"criteri":[{"A1":"Qualità"}]}`)},
		{"document", "domanda.xlsx", doc},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, []any{map[string]any{
		"criterio_id":                        "A1",
		"descrizione_guida":                  "Qualità",
		"risposta_al_criterio_dal_documento": "covered",
	}}, out["matches"])
}

func TestXLSSheetsAndExtract(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	doc := workbook(t,
		sheet{"Note", [][]any{{"niente"}}},
		sheet{"Criteri", [][]any{
			{"CRITERIO A1.1"},
			{""},
			{"Descrizione A"},
			{"B2 - Impatto"},
			{"nota libera"},
		}},
	)

	rec := f.post(t, "/v1/xls/sheets", []part{{"file", "griglia.xlsx", doc}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sheets := decode(t, rec)["sheets"].([]any)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Criteri", sheets[1].(map[string]any)["name"])

	fields := map[string]string{"sheet": "Criteri", "column": "a", "session": "s1"}
	rec = f.post(t, "/v1/xls/extract", []part{{"file", "griglia.xlsx", doc}}, fields)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, []any{
		map[string]any{"A1.1": "Descrizione A"},
		map[string]any{"B2": "Impatto"},
	}, out["estrazione"])
	assert.Equal(t, []any{"A1.1", "B2"}, out["codes"])
	assert.Equal(t, false, out["cached"])
	assert.Equal(t, "A", out["column"])

	fields["codes"] = "B2"
	rec = f.post(t, "/v1/xls/extract", []part{{"file", "griglia.xlsx", doc}}, fields)
	out = decode(t, rec)
	assert.Equal(t, true, out["cached"])
	assert.Equal(t, []any{map[string]any{"B2": "Impatto"}}, out["estrazione"])

	fields["refresh"] = "true"
	rec = f.post(t, "/v1/xls/extract", []part{{"file", "griglia.xlsx", doc}}, fields)
	assert.Equal(t, false, decode(t, rec)["cached"])
}

func TestXLSExtract_Errors(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)

	rec := f.post(t, "/v1/xls/extract", []part{{"file", "rotto.xlsx", []byte("not a workbook")}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	doc := workbook(t, sheet{"Criteri", [][]any{{"A1 - x"}}})
	rec = f.post(t, "/v1/xls/extract", []part{{"file", "g.xlsx", doc}}, map[string]string{"row_start": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const templateJSON = `{"soggetto":"","idDomanda":"","userCriteria":{"A1.1":{"testo":""},"B2":{"testo":""}}}`

func application(t *testing.T) []byte {
	return workbook(t,
		sheet{"Anagrafica", [][]any{{"Denominazione"}, {"Rossi S.r.l."}}},
		sheet{"Proposta Criteri", [][]any{{"CRITERIO A1.1"}, {"testo libero"}}},
		sheet{"Criteri di valutazione", [][]any{{"A1", "Qualità"}}},
	)
}

func TestEnrich_WithDispatchAndJournal(t *testing.T) {
	var hits atomic.Int32
	var auth atomic.Value
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer endpoint.Close()

	f := newFixture(t, common.DispatchConfig{Endpoint: endpoint.URL, Token: "secret"}, true)
	rec := f.post(t, "/v1/enrich", []part{
		{"file", "domanda.xlsx", application(t)},
		{"template", "template.json", []byte(templateJSON)},
	}, map[string]string{"dispatch": "true"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	doc := out["document"].(map[string]any)
	assert.Equal(t, "Rossi S.r.l.", doc["soggetto"])
	assert.Equal(t, "000000042", doc["idDomanda"])
	crit := doc["userCriteria"].(map[string]any)
	assert.Equal(t, "testo libero", crit["A1.1"].(map[string]any)["testo"])
	assert.Equal(t, "Qualità", crit["A1.1"].(map[string]any)["descrizione"])
	assert.Equal(t, "NON FORNITO", crit["B2"].(map[string]any)["testo"])

	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, "Bearer secret", auth.Load())
	assert.EqualValues(t, http.StatusCreated, out["dispatch"].(map[string]any)["status_code"])

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	runs := decode(t, rr)["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, "POSTED", runs[0].(map[string]any)["status"])
	assert.Equal(t, "domanda.xlsx", runs[0].(map[string]any)["source_path"])
}

func TestEnrich_DispatchWithoutEndpoint(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	rec := f.post(t, "/v1/enrich", []part{
		{"file", "domanda.xlsx", application(t)},
		{"template", "template.json", []byte(templateJSON)},
	}, map[string]string{"dispatch": "true"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrich_InvalidTemplate(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	rec := f.post(t, "/v1/enrich", []part{
		{"file", "domanda.xlsx", application(t)},
		{"template", "template.json", []byte(`{"userCriteria":[]}`)},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuns_NoJournal(t *testing.T) {
	f := newFixture(t, common.DispatchConfig{}, false)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
