package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return fmt.Errorf("%w: content-type must be multipart/form-data", common.ErrInvalidInput)
	}
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "too large") {
			return &http.MaxBytesError{Limit: limit}
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return nil
}

// formFile reads a whole uploaded file. Uploads are capped by parseMultipart.
func formFile(r *http.Request, field string) (string, []byte, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s file required", common.ErrInvalidInput, field)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("%w: read %s: %v", common.ErrInvalidInput, field, err)
	}
	return filepath.Base(hdr.Filename), data, nil
}

func formInt(r *http.Request, field string) (int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", common.ErrInvalidInput, field)
	}
	return n, nil
}

func formBool(r *http.Request, field string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.FormValue(field)))
	return b
}

// formList splits a comma separated field. A missing field is nil, which
// callers read as "no restriction".
func formList(r *http.Request, field string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func wantsXLSX(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "xlsx")
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
