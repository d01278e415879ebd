package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusware/examcore/internal/grading"
)

// SQLStore implements Store over database/sql. The same statements run on
// both pgx (postgres) and modernc (sqlite); placeholders are $n in order of
// first appearance.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
	grader grading.Grader
}

// NewSQLStore wraps db. now may be nil, in which case time.Now is used.
func NewSQLStore(db *sql.DB, driver string, now func() time.Time) *SQLStore {
	if now == nil {
		now = time.Now
	}
	return &SQLStore{db: db, driver: driver, now: now, grader: grading.NewDefaultGrader()}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}

// --- Lifecycle ---

const examCols = `id, title, subject_id, created_by, start_time, end_time, duration_min, status, is_published, created_at`

func scanExam(row interface{ Scan(...any) error }) (Exam, error) {
	var e Exam
	var start, end, created int64
	var published int
	var status string
	if err := row.Scan(&e.ID, &e.Title, &e.SubjectID, &e.CreatedBy, &start, &end, &e.DurationMinutes, &status, &published, &created); err != nil {
		return Exam{}, err
	}
	e.StartTime = time.Unix(start, 0).UTC()
	e.EndTime = time.Unix(end, 0).UTC()
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.Status = Status(status)
	e.IsPublished = published != 0
	return e, nil
}

func (s *SQLStore) getExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+examCols+` FROM exams WHERE id=$1`, id)
	e, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, NotFoundf("exam %q not found", id)
	}
	return e, err
}

func (s *SQLStore) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	if !e.EndTime.After(e.StartTime) {
		return Exam{}, Validationf("endTime must be after startTime")
	}
	if e.ID == "" {
		e.ID = SlugID(e.SubjectID, e.Title)
	}
	e.Status = StatusDraft
	e.IsPublished = false
	e.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO exams (`+examCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.Title, e.SubjectID, e.CreatedBy,
		e.StartTime.Unix(), e.EndTime.Unix(), e.DurationMinutes,
		string(e.Status), 0, e.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return Exam{}, Conflictf("exam %q already exists", e.ID)
	}
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	return s.getExam(ctx, id)
}

func (s *SQLStore) ListExams(ctx context.Context) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+examCols+` FROM exams ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) Publish(ctx context.Context, id string, isPublished bool) (Exam, error) {
	e, err := s.getExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if e.Status != StatusDraft && e.Status != StatusScheduled {
		return Exam{}, InvalidStatef("exam %q is %s; publish toggling is only legal in draft or scheduled", id, e.Status)
	}
	e.IsPublished = isPublished
	if isPublished {
		e.Status = StatusScheduled
	} else {
		e.Status = StatusDraft
	}
	pub := 0
	if isPublished {
		pub = 1
	}
	_, err = s.db.ExecContext(ctx, `UPDATE exams SET status=$1, is_published=$2 WHERE id=$3`,
		string(e.Status), pub, id)
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) SetStatus(ctx context.Context, id string, to Status) (Exam, error) {
	e, err := s.getExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if !to.Valid() {
		return Exam{}, Validationf("unknown status %q", to)
	}
	if !e.Status.CanTransition(to) {
		return Exam{}, InvalidStatef("illegal transition %s -> %s", e.Status, to)
	}
	e.Status = to
	switch to {
	case StatusDraft:
		e.IsPublished = false
	case StatusScheduled:
		e.IsPublished = true
	}
	pub := 0
	if e.IsPublished {
		pub = 1
	}
	_, err = s.db.ExecContext(ctx, `UPDATE exams SET status=$1, is_published=$2 WHERE id=$3`,
		string(to), pub, id)
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) (int, error) {
	e, err := s.getExam(ctx, id)
	if err != nil {
		return 0, err
	}
	if e.Status == StatusLive {
		return 0, InvalidStatef("exam %q is live and cannot be deleted", id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE exam_id=$1`, id)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id); err != nil {
		return 0, err
	}
	// responses and results are kept for audit
	return int(removed), nil
}

// --- Question catalog ---

const questionCols = `id, exam_id, seq, text, qtype, marks, options_json, correct_index, keywords_json`

func scanQuestion(row interface{ Scan(...any) error }) (Question, error) {
	var q Question
	var qtype, optsJSON, kwJSON string
	if err := row.Scan(&q.ID, &q.ExamID, &q.Seq, &q.Text, &qtype, &q.Marks, &optsJSON, &q.CorrectIndex, &kwJSON); err != nil {
		return Question{}, err
	}
	q.Type = QuestionType(qtype)
	if err := json.Unmarshal([]byte(optsJSON), &q.Options); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(kwJSON), &q.Keywords); err != nil {
		return Question{}, err
	}
	if q.Type == TypeLong && q.Keywords == nil {
		q.Keywords = []string{}
	}
	return q, nil
}

func (s *SQLStore) getQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, NotFoundf("question %q not found", id)
	}
	return q, err
}

func (s *SQLStore) AddQuestion(ctx context.Context, examID string, q Question) (Question, error) {
	e, err := s.getExam(ctx, examID)
	if err != nil {
		return Question{}, err
	}
	if e.Status != StatusDraft {
		return Question{}, InvalidStatef("exam %q is %s; questions can only be added in draft", examID, e.Status)
	}
	if err := validateQuestion(q); err != nil {
		return Question{}, err
	}
	q.ID = uuid.NewString()
	q.ExamID = examID
	var maxSeq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM questions WHERE exam_id=$1`, examID).Scan(&maxSeq); err != nil {
		return Question{}, err
	}
	q.Seq = int(maxSeq.Int64) + 1
	optsJSON, _ := json.Marshal(q.Options)
	kwJSON, _ := json.Marshal(q.Keywords)
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (`+questionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		q.ID, q.ExamID, q.Seq, q.Text, string(q.Type), q.Marks,
		string(optsJSON), q.CorrectIndex, string(kwJSON))
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID string) ([]Question, error) {
	if _, err := s.getExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.questionsFor(ctx, examID)
}

func (s *SQLStore) questionsFor(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+questionCols+` FROM questions WHERE exam_id=$1 ORDER BY seq`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, questionID string) error {
	q, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	e, err := s.getExam(ctx, q.ExamID)
	if err == nil && e.Status != StatusDraft {
		return InvalidStatef("exam %q is %s; questions can only be deleted in draft", q.ExamID, e.Status)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, questionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundf("question %q not found", questionID)
	}
	return nil
}

// --- Responses + grading ---

const responseCols = `id, exam_id, question_id, student_id, qtype, selected_index, answer_text, marks_awarded, graded_by, graded_at, submitted_at`

func scanResponse(row interface{ Scan(...any) error }) (Response, error) {
	var r Response
	var qtype string
	var selected, marks, gradedAt sql.NullInt64
	var submitted int64
	if err := row.Scan(&r.ID, &r.ExamID, &r.QuestionID, &r.StudentID, &qtype, &selected, &r.AnswerText, &marks, &r.GradedBy, &gradedAt, &submitted); err != nil {
		return Response{}, err
	}
	r.Type = QuestionType(qtype)
	if selected.Valid {
		v := int(selected.Int64)
		r.Selected = &v
	}
	if marks.Valid {
		v := int(marks.Int64)
		r.Marks = &v
	}
	if gradedAt.Valid {
		t := time.Unix(gradedAt.Int64, 0).UTC()
		r.GradedAt = &t
	}
	r.SubmittedAt = time.Unix(submitted, 0).UTC()
	return r, nil
}

func (s *SQLStore) SubmitResponse(ctx context.Context, studentID, examID, questionID string, a Answer) (Response, error) {
	e, err := s.getExam(ctx, examID)
	if err != nil {
		return Response{}, err
	}
	q, err := s.getQuestion(ctx, questionID)
	if err != nil || q.ExamID != examID {
		return Response{}, NotFoundf("question %q not found in exam %q", questionID, examID)
	}
	now := s.now()
	if !e.AcceptingResponses(now) {
		return Response{}, InvalidStatef("exam %q is not accepting responses", examID)
	}
	var exist int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM responses WHERE exam_id=$1 AND question_id=$2 AND student_id=$3`,
		examID, questionID, studentID).Scan(&exist)
	if err == nil {
		return Response{}, Conflictf("response already submitted for question %q", questionID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Response{}, err
	}
	r, err := buildResponse(s.grader, q, studentID, a, now)
	if err != nil {
		return Response{}, err
	}
	var selected, marks any
	if r.Selected != nil {
		selected = *r.Selected
	}
	if r.Marks != nil {
		marks = *r.Marks
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO responses (`+responseCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		r.ID, r.ExamID, r.QuestionID, r.StudentID, string(r.Type),
		selected, r.AnswerText, marks, r.GradedBy, nil, r.SubmittedAt.Unix())
	if isUniqueViolation(err) {
		// lost the race on the unique index
		return Response{}, Conflictf("response already submitted for question %q", questionID)
	}
	if err != nil {
		return Response{}, err
	}
	return r, nil
}

func (s *SQLStore) getResponse(ctx context.Context, id string) (Response, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+responseCols+` FROM responses WHERE id=$1`, id)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, NotFoundf("response %q not found", id)
	}
	return r, err
}

func (s *SQLStore) GradeResponse(ctx context.Context, responseID string, marks int, graderID string) (Response, error) {
	r, err := s.getResponse(ctx, responseID)
	if err != nil {
		return Response{}, err
	}
	if r.Marks != nil {
		return Response{}, InvalidStatef("response %q is already graded; corrections go through re-evaluation", responseID)
	}
	q, err := s.getQuestion(ctx, r.QuestionID)
	if err != nil {
		return Response{}, err
	}
	if marks < 0 || marks > q.Marks {
		return Response{}, Validationf("marks %d out of range [0,%d]", marks, q.Marks)
	}
	now := s.now()
	// the graded-at-most-once guard rides on the NULL check in the predicate
	res, err := s.db.ExecContext(ctx,
		`UPDATE responses SET marks_awarded=$1, graded_by=$2, graded_at=$3 WHERE id=$4 AND marks_awarded IS NULL`,
		marks, graderID, now.Unix(), responseID)
	if err != nil {
		return Response{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Response{}, InvalidStatef("response %q is already graded; corrections go through re-evaluation", responseID)
	}
	r.Marks = &marks
	r.GradedBy = graderID
	r.GradedAt = &now
	return r, nil
}

func (s *SQLStore) ListUngraded(ctx context.Context, examID, questionID string) (UngradedSet, error) {
	q, err := s.getQuestion(ctx, questionID)
	if err != nil || q.ExamID != examID {
		return UngradedSet{}, NotFoundf("question %q not found in exam %q", questionID, examID)
	}
	if q.Type != TypeLong {
		return UngradedSet{}, InvalidStatef("question %q is %s; only long-form questions are graded manually", questionID, q.Type)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+responseCols+` FROM responses
		 WHERE exam_id=$1 AND question_id=$2 AND marks_awarded IS NULL
		 ORDER BY submitted_at, id`, examID, questionID)
	if err != nil {
		return UngradedSet{}, err
	}
	defer rows.Close()
	set := UngradedSet{QuestionID: q.ID, QuestionText: q.Text, Keywords: q.Keywords, Responses: []Response{}}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return UngradedSet{}, err
		}
		set.Responses = append(set.Responses, r)
	}
	return set, rows.Err()
}

func (s *SQLStore) ListResponses(ctx context.Context, studentID, examID string) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+responseCols+` FROM responses WHERE student_id=$1 AND exam_id=$2 ORDER BY submitted_at, id`,
		studentID, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) responsesFor(ctx context.Context, examID string) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+responseCols+` FROM responses WHERE exam_id=$1`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Finalization ---

func (s *SQLStore) Finalize(ctx context.Context, examID string) (FinalizeOutcome, error) {
	e, err := s.getExam(ctx, examID)
	if err != nil {
		return FinalizeOutcome{}, err
	}
	if e.Status != StatusEvaluation && e.Status != StatusEnded {
		return FinalizeOutcome{}, InvalidStatef("exam %q is %s; finalization requires evaluation or ended", examID, e.Status)
	}
	b, ok, err := s.GetBoundaries(ctx)
	if err != nil {
		return FinalizeOutcome{}, err
	}
	defaultsUsed := !ok
	if !ok {
		b = grading.DefaultBoundaries()
	}
	if !b.Ordered() {
		return FinalizeOutcome{}, Configurationf("grade boundaries are not descending: %+v", b)
	}
	questions, err := s.questionsFor(ctx, examID)
	if err != nil {
		return FinalizeOutcome{}, err
	}
	responses, err := s.responsesFor(ctx, examID)
	if err != nil {
		return FinalizeOutcome{}, err
	}
	results, skipped := computeResults(examID, questions, responses, b, s.now())
	for _, res := range results {
		if err := s.upsertResult(ctx, res); err != nil {
			return FinalizeOutcome{}, err
		}
	}
	if e.Status == StatusEvaluation {
		if _, err := s.db.ExecContext(ctx, `UPDATE exams SET status=$1 WHERE id=$2`, string(StatusEnded), examID); err != nil {
			return FinalizeOutcome{}, err
		}
	}
	return FinalizeOutcome{ExamID: examID, Finalized: len(results), Skipped: skipped, DefaultsUsed: defaultsUsed}, nil
}

func (s *SQLStore) upsertResult(ctx context.Context, res Result) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO results
		(exam_id, student_id, marks_obtained, total_marks, percentage, grade, computed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (exam_id, student_id) DO UPDATE SET
		  marks_obtained=EXCLUDED.marks_obtained,
		  total_marks=EXCLUDED.total_marks,
		  percentage=EXCLUDED.percentage,
		  grade=EXCLUDED.grade,
		  computed_at=EXCLUDED.computed_at`,
		res.ExamID, res.StudentID, res.MarksObtained, res.TotalMarks,
		res.Percentage, res.Grade, res.ComputedAt.Unix())
	return err
}

func (s *SQLStore) ListResults(ctx context.Context, studentID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exam_id, student_id, marks_obtained, total_marks, percentage, grade, computed_at
		 FROM results WHERE student_id=$1 ORDER BY exam_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var res Result
		var computed int64
		if err := rows.Scan(&res.ExamID, &res.StudentID, &res.MarksObtained, &res.TotalMarks, &res.Percentage, &res.Grade, &computed); err != nil {
			return nil, err
		}
		res.ComputedAt = time.Unix(computed, 0).UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}

// --- Grade boundaries ---

func (s *SQLStore) PutBoundaries(ctx context.Context, b grading.Boundaries) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO grade_boundaries (id, a, b, c)
		VALUES ('default',$1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET a=EXCLUDED.a, b=EXCLUDED.b, c=EXCLUDED.c`,
		b.A, b.B, b.C)
	return err
}

func (s *SQLStore) GetBoundaries(ctx context.Context) (grading.Boundaries, bool, error) {
	var b grading.Boundaries
	err := s.db.QueryRowContext(ctx, `SELECT a, b, c FROM grade_boundaries WHERE id='default'`).
		Scan(&b.A, &b.B, &b.C)
	if errors.Is(err, sql.ErrNoRows) {
		return grading.Boundaries{}, false, nil
	}
	if err != nil {
		return grading.Boundaries{}, false, err
	}
	return b, true, nil
}

// --- Re-evaluation ---

const revalCols = `id, exam_id, student_id, reason, status, created_at, updated_at`

func scanReval(row interface{ Scan(...any) error }) (RevalRequest, error) {
	var req RevalRequest
	var status string
	var created, updated int64
	if err := row.Scan(&req.ID, &req.ExamID, &req.StudentID, &req.Reason, &status, &created, &updated); err != nil {
		return RevalRequest{}, err
	}
	req.Status = RevalStatus(status)
	req.CreatedAt = time.Unix(created, 0).UTC()
	req.UpdatedAt = time.Unix(updated, 0).UTC()
	return req, nil
}

func (s *SQLStore) RequestReval(ctx context.Context, examID, studentID, reason string) (RevalRequest, error) {
	e, err := s.getExam(ctx, examID)
	if err != nil {
		return RevalRequest{}, err
	}
	if e.Status != StatusReval {
		return RevalRequest{}, InvalidStatef("exam %q is %s; re-evaluation requests require reval", examID, e.Status)
	}
	now := s.now()
	req := RevalRequest{
		ID:        uuid.NewString(),
		ExamID:    examID,
		StudentID: studentID,
		Reason:    reason,
		Status:    RevalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO reval_requests (`+revalCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		req.ID, req.ExamID, req.StudentID, req.Reason, string(req.Status),
		req.CreatedAt.Unix(), req.UpdatedAt.Unix())
	if err != nil {
		return RevalRequest{}, err
	}
	return req, nil
}

func (s *SQLStore) ListRevalRequests(ctx context.Context, examID string) ([]RevalRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+revalCols+` FROM reval_requests WHERE exam_id=$1 AND status=$2 ORDER BY created_at, id`,
		examID, string(RevalPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RevalRequest{}
	for rows.Next() {
		req, err := scanReval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetRevalRequest(ctx context.Context, requestID string) (RevalRequest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+revalCols+` FROM reval_requests WHERE id=$1`, requestID)
	req, err := scanReval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RevalRequest{}, NotFoundf("re-evaluation request %q not found", requestID)
	}
	return req, err
}

func (s *SQLStore) ReviewReval(ctx context.Context, requestID string, d RevalDecision, reviewerID string) (RevalRequest, error) {
	req, err := s.GetRevalRequest(ctx, requestID)
	if err != nil {
		return RevalRequest{}, err
	}
	if req.Status != RevalPending {
		return RevalRequest{}, InvalidStatef("re-evaluation request %q is already %s", requestID, req.Status)
	}
	now := s.now()
	if !d.Approve {
		return s.closeReval(ctx, req, RevalDenied, now)
	}
	if d.Marks < 0 {
		return RevalRequest{}, Validationf("corrected marks must not be negative")
	}
	var res sql.Result
	if d.QuestionID != "" {
		q, err := s.getQuestion(ctx, d.QuestionID)
		if err != nil || q.ExamID != req.ExamID {
			return RevalRequest{}, NotFoundf("question %q not found in exam %q", d.QuestionID, req.ExamID)
		}
		if d.Marks > q.Marks {
			return RevalRequest{}, Validationf("corrected marks %d exceed question marks %d", d.Marks, q.Marks)
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE responses SET marks_awarded=$1, graded_by=$2, graded_at=$3
			 WHERE exam_id=$4 AND student_id=$5 AND question_id=$6`,
			d.Marks, reviewerID, now.Unix(), req.ExamID, req.StudentID, d.QuestionID)
		if err != nil {
			return RevalRequest{}, err
		}
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE responses SET marks_awarded=$1, graded_by=$2, graded_at=$3
			 WHERE exam_id=$4 AND student_id=$5`,
			d.Marks, reviewerID, now.Unix(), req.ExamID, req.StudentID)
		if err != nil {
			return RevalRequest{}, err
		}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return RevalRequest{}, NotFoundf("no responses found for student %q in exam %q", req.StudentID, req.ExamID)
	}
	if err := s.recomputeResult(ctx, req.ExamID, req.StudentID, now); err != nil {
		return RevalRequest{}, err
	}
	return s.closeReval(ctx, req, RevalApproved, now)
}

func (s *SQLStore) closeReval(ctx context.Context, req RevalRequest, to RevalStatus, now time.Time) (RevalRequest, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reval_requests SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		string(to), now.Unix(), req.ID, string(RevalPending))
	if err != nil {
		return RevalRequest{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return RevalRequest{}, InvalidStatef("re-evaluation request %q is already reviewed", req.ID)
	}
	req.Status = to
	req.UpdatedAt = now
	return req, nil
}

func (s *SQLStore) recomputeResult(ctx context.Context, examID, studentID string, now time.Time) error {
	b, ok, err := s.GetBoundaries(ctx)
	if err != nil {
		return err
	}
	if !ok {
		b = grading.DefaultBoundaries()
	}
	questions, err := s.questionsFor(ctx, examID)
	if err != nil {
		return err
	}
	responses, err := s.ListResponses(ctx, studentID, examID)
	if err != nil {
		return err
	}
	results, _ := computeResults(examID, questions, responses, b, now)
	for _, res := range results {
		if err := s.upsertResult(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
