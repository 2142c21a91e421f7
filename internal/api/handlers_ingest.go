package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

// readDocument reads the request body as the PDF. It writes the error
// response itself and returns false when the body is unusable.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	if len(data) == 0 {
		jsonError(w, "request body must be a PDF document", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

// sectionParam parses the optional section query parameter. Absent means the
// whole document.
func sectionParam(r *http.Request) (*doctree.SectionID, error) {
	v := r.URL.Query().Get("section")
	if v == "" {
		return nil, nil
	}
	id, err := doctree.ParseSectionID(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// intParam returns the named positive integer query parameter or fallback.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, doctree.ErrInvalidSectionID), errors.Is(err, doctree.ErrInvalidPeekPosition):
		return http.StatusBadRequest
	case errors.Is(err, doctree.ErrSectionNotFound), errors.Is(err, doctree.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, doctree.ErrParse):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	jsonError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
