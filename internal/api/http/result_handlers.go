package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/campusware/examcore/internal/audit"
	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

// POST /exams/finalize-results?exam_id=...
func FinalizeResultsHandler(store exam.Store, alog *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := strings.TrimSpace(r.URL.Query().Get("exam_id"))
		if examID == "" {
			badRequest(w, "exam_id required")
			return
		}
		out, err := store.Finalize(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		if out.DefaultsUsed {
			log.Printf("finalize %s: grade boundaries not configured, using defaults", examID)
		}
		_ = alog.Append(r.Context(), "ExamFinalized", examID, out)
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /results?student_id=...
func ListResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
		if role != "teacher" && role != "admin" {
			studentID = rbac.SubjectFromContext(r.Context())
		}
		if studentID == "" {
			badRequest(w, "student_id required")
			return
		}
		list, err := store.ListResults(r.Context(), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
