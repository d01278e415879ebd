package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campusware/examcore/internal/audit"
	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

// POST /exams/{examID}/reval
func RequestRevalHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		if studentID == "" {
			badRequest(w, "student identity required")
			return
		}
		var req revalRequestReq
		if !decodeValid(w, r, &req) {
			return
		}
		created, err := store.RequestReval(r.Context(), chi.URLParam(r, "examID"), studentID, req.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GET /reval/requests?exam_id=...
func ListRevalRequestsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := strings.TrimSpace(r.URL.Query().Get("exam_id"))
		if examID == "" {
			badRequest(w, "exam_id required")
			return
		}
		list, err := store.ListRevalRequests(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /reval/requests/{requestID} — status and reason projection. Students
// may only look at their own requests.
func GetRevalRequestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := store.GetRevalRequest(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "teacher" && role != "admin" && req.StudentID != rbac.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status), "reason": req.Reason})
	}
}

// POST /reval/requests/{requestID}/review
func ReviewRevalHandler(store exam.Store, alog *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revalReviewReq
		if !decodeValid(w, r, &req) {
			return
		}
		d := exam.RevalDecision{QuestionID: req.QuestionID}
		if req.Action == "approve" {
			if req.Marks == nil {
				badRequest(w, "marksObtained required on approval")
				return
			}
			d.Approve = true
			d.Marks = *req.Marks
		}
		reviewed, err := store.ReviewReval(r.Context(), chi.URLParam(r, "requestID"), d,
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		_ = alog.Append(r.Context(), "RevalReviewed", reviewed.ID, reviewed)
		writeJSON(w, http.StatusOK, reviewed)
	}
}
