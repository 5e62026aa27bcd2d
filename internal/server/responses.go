package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status, code = http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case errors.Is(err, common.ErrUnsupportedFormat):
		status, code = http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrWorkbookOpen):
		status, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, common.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, common.ErrUpstreamConnection), errors.Is(err, common.ErrUpstreamAPI):
		status, code = http.StatusBadGateway, "UPSTREAM"
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: err.Error()}})
}
