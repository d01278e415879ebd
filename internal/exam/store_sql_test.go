package exam_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/campusware/examcore/internal/db"
	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/grading"
)

// openSQLite opens a throwaway in-memory database with the schema applied.
// Each test gets its own named database so state never leaks between tests.
func openSQLite(t *testing.T) *exam.SQLStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("file:%s.db?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return exam.NewSQLStore(dbh, string(db.DriverSQLite), fixedNow)
}

func TestSQLStore_LifecycleToResults(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	examID, mcq, long := seedLiveExam(t, s)

	r1, err := s.SubmitResponse(ctx, "s-1", examID, mcq.ID, exam.Answer{SelectedIndex: intp(1)})
	if err != nil {
		t.Fatalf("submit mcq: %v", err)
	}
	if r1.Marks == nil || *r1.Marks != 10 {
		t.Fatalf("correct mcq must be worth 10 immediately, got %v", r1.Marks)
	}
	r2, err := s.SubmitResponse(ctx, "s-1", examID, long.ID, exam.Answer{Text: "Follow the negative gradient."})
	if err != nil {
		t.Fatalf("submit long: %v", err)
	}
	if r2.Marks != nil {
		t.Fatalf("long response must start ungraded")
	}

	// The unique key rejects a second submission.
	if _, err := s.SubmitResponse(ctx, "s-1", examID, mcq.ID, exam.Answer{SelectedIndex: intp(0)}); !exam.IsKind(err, exam.KindConflict) {
		t.Fatalf("duplicate submission must conflict, got %v", err)
	}

	if _, err := s.SetStatus(ctx, examID, exam.StatusEvaluation); err != nil {
		t.Fatalf("to evaluation: %v", err)
	}

	out, err := s.Finalize(ctx, examID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out.Finalized != 0 || len(out.Skipped) != 1 {
		t.Fatalf("expected the student skipped while ungraded, got %+v", out)
	}

	set, err := s.ListUngraded(ctx, examID, long.ID)
	if err != nil {
		t.Fatalf("list ungraded: %v", err)
	}
	if len(set.Responses) != 1 || set.Responses[0].ID != r2.ID {
		t.Fatalf("expected one pending response, got %+v", set.Responses)
	}

	if _, err := s.GradeResponse(ctx, r2.ID, 7, "t-1"); err != nil {
		t.Fatalf("grade: %v", err)
	}
	if _, err := s.GradeResponse(ctx, r2.ID, 9, "t-1"); !exam.IsKind(err, exam.KindInvalidState) {
		t.Fatalf("re-grading must be rejected, got %v", err)
	}

	out, err = s.Finalize(ctx, examID)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if out.Finalized != 1 {
		t.Fatalf("expected one result, got %+v", out)
	}
	e, err := s.GetExam(ctx, examID)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if e.Status != exam.StatusEnded {
		t.Fatalf("finalize must advance evaluation to ended, got %s", e.Status)
	}

	results, err := s.ListResults(ctx, "s-1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	res := results[0]
	if res.MarksObtained != 17 || res.TotalMarks != 20 || res.Percentage != 85 || res.Grade != "A" {
		t.Fatalf("unexpected result: %+v", res)
	}

	// Re-running finalize upserts rather than duplicating rows.
	if _, err := s.Finalize(ctx, examID); err != nil {
		t.Fatalf("finalize on ended: %v", err)
	}
	results, _ = s.ListResults(ctx, "s-1")
	if len(results) != 1 {
		t.Fatalf("finalize must upsert, got %d results", len(results))
	}
}

func TestSQLStore_QuestionRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	examID, mcq, long := seedLiveExam(t, s)

	qs, err := s.ListQuestions(ctx, examID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].ID != mcq.ID || qs[1].ID != long.ID {
		t.Fatalf("questions must come back in seq order")
	}
	if len(qs[0].Options) != 4 || qs[0].CorrectIndex != 1 {
		t.Fatalf("mcq fields lost in round trip: %+v", qs[0])
	}
	if len(qs[1].Keywords) != 2 {
		t.Fatalf("keywords lost in round trip: %+v", qs[1])
	}
}

func TestSQLStore_BoundariesPersist(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	if _, ok, err := s.GetBoundaries(ctx); err != nil || ok {
		t.Fatalf("boundaries must start unset, ok=%v err=%v", ok, err)
	}
	want := grading.Boundaries{A: 90, B: 75, C: 50}
	if err := s.PutBoundaries(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := s.GetBoundaries(ctx)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("boundaries round trip: got %+v", got)
	}

	// Second put overwrites the single row.
	want = grading.Boundaries{A: 85, B: 70, C: 45}
	if err := s.PutBoundaries(ctx, want); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, _, _ = s.GetBoundaries(ctx)
	if got != want {
		t.Fatalf("overwrite failed: got %+v", got)
	}
}

func TestSQLStore_RevalFlow(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	examID, mcq, long := seedLiveExam(t, s)

	if _, err := s.SubmitResponse(ctx, "s-1", examID, mcq.ID, exam.Answer{SelectedIndex: intp(0)}); err != nil {
		t.Fatalf("submit mcq: %v", err)
	}
	r, err := s.SubmitResponse(ctx, "s-1", examID, long.ID, exam.Answer{Text: "text"})
	if err != nil {
		t.Fatalf("submit long: %v", err)
	}
	if _, err := s.GradeResponse(ctx, r.ID, 3, "t-1"); err != nil {
		t.Fatalf("grade: %v", err)
	}
	if _, err := s.SetStatus(ctx, examID, exam.StatusEvaluation); err != nil {
		t.Fatalf("to evaluation: %v", err)
	}
	if _, err := s.Finalize(ctx, examID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := s.SetStatus(ctx, examID, exam.StatusReval); err != nil {
		t.Fatalf("to reval: %v", err)
	}

	req, err := s.RequestReval(ctx, examID, "s-1", "long answer undervalued")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	got, err := s.GetRevalRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if got.Status != exam.RevalPending || got.Reason != "long answer undervalued" {
		t.Fatalf("request round trip: %+v", got)
	}

	approved, err := s.ReviewReval(ctx, req.ID, exam.RevalDecision{Approve: true, Marks: 8, QuestionID: long.ID}, "t-2")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != exam.RevalApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if _, err := s.ReviewReval(ctx, req.ID, exam.RevalDecision{Approve: false}, "t-2"); !exam.IsKind(err, exam.KindInvalidState) {
		t.Fatalf("reviewing a closed request must fail, got %v", err)
	}

	results, err := s.ListResults(ctx, "s-1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 || results[0].MarksObtained != 8 || results[0].Grade != "C" {
		t.Fatalf("result not recomputed: %+v", results)
	}
}

func TestSQLStore_DeleteExamCascadesQuestions(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	examID, mcq, _ := seedLiveExam(t, s)

	if _, err := s.SubmitResponse(ctx, "s-1", examID, mcq.ID, exam.Answer{SelectedIndex: intp(1)}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.DeleteExam(ctx, examID); !exam.IsKind(err, exam.KindInvalidState) {
		t.Fatalf("deleting a live exam must fail, got %v", err)
	}

	if _, err := s.SetStatus(ctx, examID, exam.StatusEvaluation); err != nil {
		t.Fatalf("to evaluation: %v", err)
	}
	removed, err := s.DeleteExam(ctx, examID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 questions removed, got %d", removed)
	}
	rs, err := s.ListResponses(ctx, "s-1", examID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("responses must be retained after exam deletion, got %d", len(rs))
	}
}
