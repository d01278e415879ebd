package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusware/examcore/internal/audit"
	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

func CreateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExamReq
		if !decodeValid(w, r, &req) {
			return
		}
		e, err := store.CreateExam(r.Context(), exam.Exam{
			Title:           req.Title,
			SubjectID:       req.SubjectID,
			CreatedBy:       rbac.SubjectFromContext(r.Context()),
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListExams(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// PUT /exams/{examID}/publish
func PublishExamHandler(store exam.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		var req publishReq
		if !decodeValid(w, r, &req) {
			return
		}
		e, err := store.Publish(r.Context(), id, req.IsPublished)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = log.Append(r.Context(), "ExamPublishToggled", id, map[string]any{
			"isPublished": e.IsPublished, "status": e.Status,
			"by": rbac.SubjectFromContext(r.Context()),
		})
		writeJSON(w, http.StatusOK, e)
	}
}

// PUT /exams/{examID}/status — generic administrative transition.
func SetStatusHandler(store exam.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		var req statusReq
		if !decodeValid(w, r, &req) {
			return
		}
		e, err := store.SetStatus(r.Context(), id, exam.Status(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		_ = log.Append(r.Context(), "ExamStatusChanged", id, map[string]any{
			"status": e.Status, "by": rbac.SubjectFromContext(r.Context()),
		})
		writeJSON(w, http.StatusOK, e)
	}
}

func DeleteExamHandler(store exam.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		removed, err := store.DeleteExam(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = log.Append(r.Context(), "ExamDeleted", id, map[string]any{
			"questionsDeleted": removed, "by": rbac.SubjectFromContext(r.Context()),
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"message":          "Exam and associated questions deleted.",
			"questionsDeleted": removed,
		})
	}
}
