package http

import (
	"net/http"

	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/grading"
)

// PUT /config/grade-boundaries
func PutBoundariesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boundariesReq
		if !decodeValid(w, r, &req) {
			return
		}
		b := grading.Boundaries{A: *req.A, B: *req.B, C: *req.C}
		if !b.Ordered() {
			badRequest(w, "boundaries must descend A >= B >= C")
			return
		}
		if err := store.PutBoundaries(r.Context(), b); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Grade boundaries updated."})
	}
}

// GET /config/grade-boundaries — returns the stored values, or the documented
// defaults when nothing has been configured yet.
func GetBoundariesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok, err := store.GetBoundaries(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			b = grading.DefaultBoundaries()
		}
		writeJSON(w, http.StatusOK, b)
	}
}
