package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/campusware/examcore/internal/api/http"
	"github.com/campusware/examcore/internal/audit"
	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

var t0 = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

// newTestServer mounts the API behind a shim that reads the principal from
// request headers, standing in for the JWT middleware.
func newTestServer() http.Handler {
	store := exam.NewMemoryStore(func() time.Time { return t0 })
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if sub := req.Header.Get("X-Test-Subject"); sub != "" {
				ctx = rbac.WithSubject(ctx, sub)
			}
			if role := req.Header.Get("X-Test-Role"); role != "" {
				ctx = rbac.WithRole(ctx, role)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	api.Mount(r, store, audit.NewLog(nil))
	return r
}

func do(t *testing.T, h http.Handler, method, path, sub, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		req.Header.Set("X-Test-Subject", sub)
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

// seedExamHTTP drives the teacher-side setup through the API: create, add an
// mcq and a long question, publish, go live. Returns the exam and questions.
func seedExamHTTP(t *testing.T, h http.Handler) (examID string, questions []exam.Question) {
	t.Helper()

	rec := do(t, h, "POST", "/exams", "t-1", "teacher", map[string]any{
		"title":           "Midterm One",
		"subjectId":       "cs101",
		"startTime":       t0.Add(-time.Hour).Format(time.RFC3339),
		"endTime":         t0.Add(time.Hour).Format(time.RFC3339),
		"durationMinutes": 90,
	})
	mustStatus(t, rec, http.StatusCreated)
	var e exam.Exam
	decode(t, rec, &e)

	rec = do(t, h, "POST", "/exams/"+e.ID+"/questions", "t-1", "teacher", map[string]any{
		"questionText":       "Which traversal visits the root first?",
		"type":               "mcq",
		"marks":              10,
		"options":            []string{"in-order", "pre-order", "post-order", "level-order"},
		"correctAnswerIndex": 1,
	})
	mustStatus(t, rec, http.StatusCreated)
	var mcq exam.Question
	decode(t, rec, &mcq)

	rec = do(t, h, "POST", "/exams/"+e.ID+"/questions", "t-1", "teacher", map[string]any{
		"questionText":     "Explain gradient descent.",
		"type":             "long",
		"marks":            10,
		"expectedKeywords": []string{"gradient", "learning rate"},
	})
	mustStatus(t, rec, http.StatusCreated)
	var long exam.Question
	decode(t, rec, &long)

	rec = do(t, h, "PUT", "/exams/"+e.ID+"/publish", "t-1", "teacher", map[string]any{"isPublished": true})
	mustStatus(t, rec, http.StatusOK)
	rec = do(t, h, "PUT", "/exams/"+e.ID+"/status", "t-1", "teacher", map[string]any{"status": "live"})
	mustStatus(t, rec, http.StatusOK)

	return e.ID, []exam.Question{mcq, long}
}

func TestExamFlowOverHTTP(t *testing.T) {
	h := newTestServer()
	examID, qs := seedExamHTTP(t, h)
	mcq, long := qs[0], qs[1]

	// Student submits both answers.
	rec := do(t, h, "POST", fmt.Sprintf("/exams/%s/questions/%s/response", examID, mcq.ID),
		"s-1", "student", map[string]any{"selectedAnswerIndex": 1})
	mustStatus(t, rec, http.StatusCreated)
	var r1 exam.Response
	decode(t, rec, &r1)
	if r1.Marks == nil || *r1.Marks != 10 {
		t.Fatalf("mcq must be scored on submit, got %+v", r1)
	}

	rec = do(t, h, "POST", fmt.Sprintf("/exams/%s/questions/%s/response", examID, long.ID),
		"s-1", "student", map[string]any{"longAnswerText": "Follow the negative gradient."})
	mustStatus(t, rec, http.StatusCreated)
	var r2 exam.Response
	decode(t, rec, &r2)

	// Duplicate submission surfaces as a conflict.
	rec = do(t, h, "POST", fmt.Sprintf("/exams/%s/questions/%s/response", examID, mcq.ID),
		"s-1", "student", map[string]any{"selectedAnswerIndex": 0})
	mustStatus(t, rec, http.StatusConflict)

	rec = do(t, h, "PUT", "/exams/"+examID+"/status", "t-1", "teacher", map[string]any{"status": "evaluation"})
	mustStatus(t, rec, http.StatusOK)

	// Grader pulls the work-list and grades the long answer.
	rec = do(t, h, "GET", fmt.Sprintf("/exams/%s/questions/%s/responses", examID, long.ID), "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
	var set exam.UngradedSet
	decode(t, rec, &set)
	if len(set.Responses) != 1 || set.Responses[0].ID != r2.ID {
		t.Fatalf("expected the pending long response, got %+v", set)
	}

	rec = do(t, h, "POST", "/responses/"+r2.ID+"/grade", "t-1", "teacher", map[string]any{"marks": 7})
	mustStatus(t, rec, http.StatusOK)

	rec = do(t, h, "POST", "/exams/finalize-results?exam_id="+examID, "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
	var out exam.FinalizeOutcome
	decode(t, rec, &out)
	if out.Finalized != 1 || len(out.Skipped) != 0 {
		t.Fatalf("unexpected finalize outcome: %+v", out)
	}

	rec = do(t, h, "GET", "/results", "s-1", "student", nil)
	mustStatus(t, rec, http.StatusOK)
	var results []exam.Result
	decode(t, rec, &results)
	if len(results) != 1 || results[0].MarksObtained != 17 || results[0].Grade != "A" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer()

	rec := do(t, h, "GET", "/exams/nope", "s-1", "student", nil)
	mustStatus(t, rec, http.StatusNotFound)
	var body map[string]string
	decode(t, rec, &body)
	if body["detail"] == "" {
		t.Fatalf("error body must carry detail, got %q", rec.Body.String())
	}

	// Illegal lifecycle hop maps to a bad request.
	examID, _ := seedExamHTTP(t, h)
	rec = do(t, h, "PUT", "/exams/"+examID+"/status", "t-1", "teacher", map[string]any{"status": "ended"})
	mustStatus(t, rec, http.StatusBadRequest)

	// So does an unknown status, caught by request validation.
	rec = do(t, h, "PUT", "/exams/"+examID+"/status", "t-1", "teacher", map[string]any{"status": "archived"})
	mustStatus(t, rec, http.StatusBadRequest)

	// Missing required fields are rejected before the store runs.
	rec = do(t, h, "POST", "/exams", "t-1", "teacher", map[string]any{"title": "x"})
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestForbidden(t *testing.T) {
	h := newTestServer()

	rec := do(t, h, "POST", "/exams", "s-1", "student", map[string]any{"title": "x"})
	mustStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, "POST", "/exams", "", "", map[string]any{"title": "x"})
	mustStatus(t, rec, http.StatusForbidden)

	// Boundary updates are admin-only; reads are open to teachers.
	rec = do(t, h, "PUT", "/config/grade-boundaries", "t-1", "teacher", map[string]any{"A": 80, "B": 60, "C": 40})
	mustStatus(t, rec, http.StatusForbidden)
	rec = do(t, h, "GET", "/config/grade-boundaries", "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
}

func TestQuestionKeyStripping(t *testing.T) {
	h := newTestServer()
	examID, _ := seedExamHTTP(t, h)

	rec := do(t, h, "GET", "/exams/"+examID+"/questions", "s-1", "student", nil)
	mustStatus(t, rec, http.StatusOK)
	var qs []exam.Question
	decode(t, rec, &qs)
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.CorrectIndex != -1 || q.Keywords != nil {
			t.Fatalf("answer key leaked to student: %+v", q)
		}
	}

	rec = do(t, h, "GET", "/exams/"+examID+"/questions", "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
	decode(t, rec, &qs)
	if qs[0].CorrectIndex != 1 {
		t.Fatalf("teacher must see the answer key, got %+v", qs[0])
	}
	if len(qs[1].Keywords) != 2 {
		t.Fatalf("teacher must see keywords, got %+v", qs[1])
	}
}

func TestBoundariesEndpoints(t *testing.T) {
	h := newTestServer()

	// Unset boundaries read back as the documented defaults.
	rec := do(t, h, "GET", "/config/grade-boundaries", "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
	var b map[string]int
	decode(t, rec, &b)
	if b["A"] != 80 || b["B"] != 60 || b["C"] != 40 {
		t.Fatalf("expected defaults, got %+v", b)
	}

	rec = do(t, h, "PUT", "/config/grade-boundaries", "a-1", "admin", map[string]any{"A": 50, "B": 70, "C": 40})
	mustStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, "PUT", "/config/grade-boundaries", "a-1", "admin", map[string]any{"A": 90, "B": 75, "C": 50})
	mustStatus(t, rec, http.StatusOK)

	rec = do(t, h, "GET", "/config/grade-boundaries", "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
	decode(t, rec, &b)
	if b["A"] != 90 || b["B"] != 75 || b["C"] != 50 {
		t.Fatalf("expected stored boundaries, got %+v", b)
	}
}

func TestRevalOverHTTP(t *testing.T) {
	h := newTestServer()
	examID, qs := seedExamHTTP(t, h)
	long := qs[1]

	rec := do(t, h, "POST", fmt.Sprintf("/exams/%s/questions/%s/response", examID, long.ID),
		"s-1", "student", map[string]any{"longAnswerText": "short answer"})
	mustStatus(t, rec, http.StatusCreated)
	var resp exam.Response
	decode(t, rec, &resp)

	rec = do(t, h, "PUT", "/exams/"+examID+"/status", "t-1", "teacher", map[string]any{"status": "evaluation"})
	mustStatus(t, rec, http.StatusOK)
	rec = do(t, h, "POST", "/responses/"+resp.ID+"/grade", "t-1", "teacher", map[string]any{"marks": 2})
	mustStatus(t, rec, http.StatusOK)
	rec = do(t, h, "POST", "/exams/finalize-results?exam_id="+examID, "t-1", "teacher", nil)
	mustStatus(t, rec, http.StatusOK)
	rec = do(t, h, "PUT", "/exams/"+examID+"/status", "t-1", "teacher", map[string]any{"status": "reval"})
	mustStatus(t, rec, http.StatusOK)

	rec = do(t, h, "POST", "/exams/"+examID+"/reval", "s-1", "student", map[string]any{"reason": "undervalued"})
	mustStatus(t, rec, http.StatusCreated)
	var req exam.RevalRequest
	decode(t, rec, &req)

	// Students only see their own requests.
	rec = do(t, h, "GET", "/reval/requests/"+req.ID, "s-2", "student", nil)
	mustStatus(t, rec, http.StatusForbidden)
	rec = do(t, h, "GET", "/reval/requests/"+req.ID, "s-1", "student", nil)
	mustStatus(t, rec, http.StatusOK)
	var view map[string]string
	decode(t, rec, &view)
	if view["status"] != "pending" || view["reason"] != "undervalued" {
		t.Fatalf("unexpected request view: %+v", view)
	}

	// Approval without marks is rejected up front.
	rec = do(t, h, "POST", "/reval/requests/"+req.ID+"/review", "t-1", "teacher", map[string]any{"action": "approve"})
	mustStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, "POST", "/reval/requests/"+req.ID+"/review", "t-1", "teacher",
		map[string]any{"action": "approve", "marksObtained": 6, "questionId": long.ID})
	mustStatus(t, rec, http.StatusOK)
	var reviewed exam.RevalRequest
	decode(t, rec, &reviewed)
	if reviewed.Status != exam.RevalApproved {
		t.Fatalf("expected approved, got %s", reviewed.Status)
	}

	rec = do(t, h, "GET", "/results", "s-1", "student", nil)
	mustStatus(t, rec, http.StatusOK)
	var results []exam.Result
	decode(t, rec, &results)
	if len(results) != 1 || results[0].MarksObtained != 6 {
		t.Fatalf("result not recomputed after approval: %+v", results)
	}
}
