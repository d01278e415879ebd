package http

import (
	"encoding/json"
	"net/http"

	"github.com/campusware/examcore/internal/exam"
)

// writeError maps a domain error kind onto an HTTP status and a JSON body
// carrying a human-readable detail string.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch exam.KindOf(err) {
	case exam.KindNotFound:
		status = http.StatusNotFound
	case exam.KindValidation, exam.KindInvalidState:
		status = http.StatusBadRequest
	case exam.KindConflict:
		status = http.StatusConflict
	case exam.KindConfiguration:
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"detail": detail})
}
