package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

// POST /exams/{examID}/questions/{questionID}/response
// The student identity comes from the authenticated subject; a student_id
// query parameter is honored only for callers allowed to act on behalf of
// others.
func SubmitResponseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		questionID := chi.URLParam(r, "questionID")
		studentID := rbac.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if qs := strings.TrimSpace(r.URL.Query().Get("student_id")); qs != "" && (role == "teacher" || role == "admin") {
			studentID = qs
		}
		if studentID == "" {
			badRequest(w, "student identity required")
			return
		}
		var req submitResponseReq
		if !decodeValid(w, r, &req) {
			return
		}
		resp, err := store.SubmitResponse(r.Context(), studentID, examID, questionID,
			exam.Answer{SelectedIndex: req.SelectedIndex, Text: req.Text})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// GET /exams/{examID}/questions/{questionID}/responses — the ungraded
// long-form work-list for graders.
func ListUngradedHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := store.ListUngraded(r.Context(),
			chi.URLParam(r, "examID"), chi.URLParam(r, "questionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
}

// POST /responses/{responseID}/grade
func GradeResponseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeReq
		if !decodeValid(w, r, &req) {
			return
		}
		graderID := rbac.SubjectFromContext(r.Context())
		if graderID == "" {
			graderID = req.GraderID
		}
		resp, err := store.GradeResponse(r.Context(), chi.URLParam(r, "responseID"), *req.Marks, graderID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GET /responses?student_id=...&exam_id=...
// Students only see their own; the filter is forced to the subject unless the
// caller can view all.
func ListResponsesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
		examID := strings.TrimSpace(r.URL.Query().Get("exam_id"))
		if role != "teacher" && role != "admin" {
			studentID = rbac.SubjectFromContext(r.Context())
		}
		if studentID == "" || examID == "" {
			badRequest(w, "student_id and exam_id required")
			return
		}
		list, err := store.ListResponses(r.Context(), studentID, examID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
