package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

var keyChecker = rbac.NewChecker(nil)

func AddQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		var req addQuestionReq
		if !decodeValid(w, r, &req) {
			return
		}
		q := exam.Question{
			Text:  req.Text,
			Type:  exam.QuestionType(req.Type),
			Marks: req.Marks,
		}
		switch q.Type {
		case exam.TypeMCQ:
			if req.CorrectIndex == nil {
				badRequest(w, "mcq question requires correctAnswerIndex")
				return
			}
			q.Options = req.Options
			q.CorrectIndex = *req.CorrectIndex
		case exam.TypeLong:
			if req.Keywords == nil {
				badRequest(w, "long question requires expectedKeywords (may be empty)")
				return
			}
			kw := *req.Keywords
			if kw == nil {
				kw = []string{}
			}
			q.Keywords = kw
		}
		created, err := store.AddQuestion(r.Context(), examID, q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ListQuestionsHandler returns questions in insertion order. Answer keys are
// stripped unless the caller may see them.
func ListQuestionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		qs, err := store.ListQuestions(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if !keyChecker.Has(role, "question:view-keys") {
			for i := range qs {
				qs[i].CorrectIndex = -1
				qs[i].Keywords = nil
			}
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

func DeleteQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Question deleted successfully"})
	}
}
