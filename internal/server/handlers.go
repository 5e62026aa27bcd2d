package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/enrich"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/pipeline"
	"github.com/joseph-ayodele/criteria-extractor/internal/xls"
)

const (
	previewChars    = 1000
	defaultSession  = "default"
	defaultRunLimit = 50
)

type inferResponse struct {
	Criteria   []entity.Criterion `json:"criteria"`
	Warnings   []string           `json:"warnings"`
	TextLength int                `json:"text_length"`
	Preview    string             `json:"preview"`
}

func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	name, data, err := formFile(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}

	res := s.deps.Infer.Run(r.Context(), name, data)
	if wantsXLSX(r) {
		out, err := s.deps.Export.CriteriaXLSX(res.Criteria)
		if err != nil {
			writeError(w, err)
			return
		}
		writeFile(w, xlsxContentType, stem(name)+"_criteria.xlsx", out)
		return
	}
	writeJSON(w, http.StatusOK, inferResponse{
		Criteria:   res.Criteria,
		Warnings:   res.Warnings,
		TextLength: len([]rune(res.Text)),
		Preview:    pipeline.Preview(res.Text, previewChars),
	})
}

type matchResponse struct {
	Matches  []entity.MatchedCriterion `json:"matches"`
	Warnings []string                  `json:"warnings"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	_, criteria, err := formFile(r, "criteria")
	if err != nil {
		writeError(w, err)
		return
	}
	name, data, err := formFile(r, "document")
	if err != nil {
		writeError(w, err)
		return
	}

	res := s.deps.Match.Run(r.Context(), criteria, name, data)
	if wantsXLSX(r) {
		out, err := s.deps.Export.MatchesXLSX(res.Matches)
		if err != nil {
			writeError(w, err)
			return
		}
		writeFile(w, xlsxContentType, stem(name)+"_matches.xlsx", out)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{Matches: res.Matches, Warnings: res.Warnings})
}

func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	name, data, err := formFile(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	sheets, err := s.deps.XLS.Sheets(r.Context(), name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sheets": sheets})
}

type extractResponse struct {
	Records  []entity.Record `json:"estrazione"`
	Codes    []string        `json:"codes"`
	Cached   bool            `json:"cached"`
	Sheet    string          `json:"sheet"`
	Column   string          `json:"column"`
	RowStart int             `json:"row_start"`
	RowEnd   int             `json:"row_end"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	name, data, err := formFile(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}

	sel := xls.Selection{Sheet: r.FormValue("sheet"), Column: r.FormValue("column")}
	for field, dst := range map[string]*int{
		"sheet_index": &sel.SheetIndex,
		"row_start":   &sel.RowStart,
		"row_end":     &sel.RowEnd,
	} {
		if *dst, err = formInt(r, field); err != nil {
			writeError(w, err)
			return
		}
	}
	session := r.FormValue("session")
	if session == "" {
		session = defaultSession
	}

	res, err := s.deps.XLS.Extract(r.Context(), xls.Request{
		Name:      name,
		Data:      data,
		Selection: sel,
		Codes:     formList(r, "codes"),
		Refresh:   formBool(r, "refresh"),
		Session:   session,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsXLSX(r) {
		out, err := s.deps.Export.RecordsXLSX(res.Records)
		if err != nil {
			writeError(w, err)
			return
		}
		writeFile(w, xlsxContentType, stem(name)+"_estrazione.xlsx", out)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{
		Records:  res.Records,
		Codes:    res.Codes,
		Cached:   res.Cached,
		Sheet:    res.Sheet,
		Column:   res.Column,
		RowStart: res.RowStart,
		RowEnd:   res.RowEnd,
	})
}

type dispatchResponse struct {
	StatusCode int    `json:"status_code"`
	Snippet    string `json:"snippet"`
	Error      string `json:"error,omitempty"`
}

type enrichResponse struct {
	Document enrich.Document   `json:"document"`
	Sheets   enrich.Sheets     `json:"sheets"`
	Dispatch *dispatchResponse `json:"dispatch,omitempty"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	name, data, err := formFile(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	_, rawTemplate, err := formFile(r, "template")
	if err != nil {
		writeError(w, err)
		return
	}
	tpl, err := enrich.ParseTemplate(rawTemplate)
	if err != nil {
		writeError(w, err)
		return
	}

	doDispatch := formBool(r, "dispatch")
	if doDispatch && (s.deps.Dispatch == nil || s.dispatch.Endpoint == "" || s.dispatch.Token == "") {
		writeError(w, fmt.Errorf("%w: dispatch requested but no endpoint/token configured", common.ErrInvalidInput))
		return
	}

	run := &entity.Run{BatchID: uuid.New(), SourcePath: name, StartedAt: time.Now().UTC()}
	res, err := s.deps.Enrich.ProcessBytes(r.Context(), name, data, tpl)
	if err != nil {
		run.Status, run.ErrorMessage = string(constants.RunStatusFailed), err.Error()
		s.record(r, run)
		writeError(w, err)
		return
	}
	run.IDDomanda, run.Subject = res.Document.ID(), res.Document.Subject()
	run.Status = string(constants.RunStatusWritten)

	out := enrichResponse{Document: res.Document, Sheets: res.Sheets}
	if doDispatch {
		pr, err := s.deps.Dispatch.Post(r.Context(), s.dispatch.Endpoint, s.dispatch.Token, res.Document)
		out.Dispatch = &dispatchResponse{StatusCode: pr.StatusCode, Snippet: pr.Snippet}
		run.HTTPStatus = pr.StatusCode
		if err != nil {
			out.Dispatch.Error = err.Error()
			run.Status, run.ErrorMessage = string(constants.RunStatusPostFailed), err.Error()
		} else {
			run.Status = string(constants.RunStatusPosted)
		}
	}
	s.record(r, run)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) record(r *http.Request, run *entity.Run) {
	if s.deps.Runs == nil {
		return
	}
	run.FinishedAt = time.Now().UTC()
	if err := s.deps.Runs.Record(r.Context(), run); err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Warn("server.journal.error", "error", err)
	}
}

type runView struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	SourcePath string    `json:"source_path"`
	OutputPath string    `json:"output_path,omitempty"`
	IDDomanda  string    `json:"id_domanda,omitempty"`
	Subject    string    `json:"soggetto,omitempty"`
	Status     string    `json:"status"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, fmt.Errorf("%w: run journal is not configured", common.ErrNotFound))
		return
	}
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", common.ErrInvalidInput))
			return
		}
		limit = n
	}
	runs, err := s.deps.Runs.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]runView, 0, len(runs))
	for _, run := range runs {
		out = append(out, runView{
			ID:         run.ID.String(),
			BatchID:    run.BatchID.String(),
			SourcePath: run.SourcePath,
			OutputPath: run.OutputPath,
			IDDomanda:  run.IDDomanda,
			Subject:    run.Subject,
			Status:     run.Status,
			HTTPStatus: run.HTTPStatus,
			Error:      run.ErrorMessage,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}
