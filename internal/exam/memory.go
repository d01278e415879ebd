package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusware/examcore/internal/grading"
)

// memoryStore keeps everything in process memory. It exists for tests and
// single-node dev runs; the SQL store is the production implementation.
type memoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	grader     grading.Grader
	exams      map[string]Exam
	questions  map[string]Question // by question id
	responses  map[string]Response // by response id
	results    map[string]Result   // key examID|studentID
	reval      map[string]RevalRequest
	boundaries *grading.Boundaries
	examOrder  []string
}

// NewMemoryStore returns an in-memory Store. now may be nil, in which case
// time.Now is used.
func NewMemoryStore(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		now:       now,
		grader:    grading.NewDefaultGrader(),
		exams:     map[string]Exam{},
		questions: map[string]Question{},
		responses: map[string]Response{},
		results:   map[string]Result{},
		reval:     map[string]RevalRequest{},
	}
}

func respKey(examID, questionID, studentID string) string {
	return examID + "|" + questionID + "|" + studentID
}

func resultKey(examID, studentID string) string {
	return examID + "|" + studentID
}

// --- Lifecycle ---

func (m *memoryStore) CreateExam(_ context.Context, e Exam) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !e.EndTime.After(e.StartTime) {
		return Exam{}, Validationf("endTime must be after startTime")
	}
	if e.ID == "" {
		e.ID = SlugID(e.SubjectID, e.Title)
	}
	if _, ok := m.exams[e.ID]; ok {
		return Exam{}, Conflictf("exam %q already exists", e.ID)
	}
	e.Status = StatusDraft
	e.IsPublished = false
	e.CreatedAt = m.now()
	m.exams[e.ID] = e
	m.examOrder = append(m.examOrder, e.ID)
	return e, nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, NotFoundf("exam %q not found", id)
	}
	return e, nil
}

func (m *memoryStore) ListExams(_ context.Context) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Exam, 0, len(m.examOrder))
	for _, id := range m.examOrder {
		if e, ok := m.exams[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) Publish(_ context.Context, id string, isPublished bool) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, NotFoundf("exam %q not found", id)
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
	m.exams[id] = e
	return e, nil
}

func (m *memoryStore) SetStatus(_ context.Context, id string, to Status) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, NotFoundf("exam %q not found", id)
	}
	if !to.Valid() {
		return Exam{}, Validationf("unknown status %q", to)
	}
	if !e.Status.CanTransition(to) {
		return Exam{}, InvalidStatef("illegal transition %s -> %s", e.Status, to)
	}
	e.Status = to
	// keep the publish flag consistent with the draft/scheduled branch
	switch to {
	case StatusDraft:
		e.IsPublished = false
	case StatusScheduled:
		e.IsPublished = true
	}
	m.exams[id] = e
	return e, nil
}

func (m *memoryStore) DeleteExam(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return 0, NotFoundf("exam %q not found", id)
	}
	if e.Status == StatusLive {
		return 0, InvalidStatef("exam %q is live and cannot be deleted", id)
	}
	removed := 0
	for qid, q := range m.questions {
		if q.ExamID == id {
			delete(m.questions, qid)
			removed++
		}
	}
	delete(m.exams, id)
	// responses and results are kept for audit
	return removed, nil
}

// --- Question catalog ---

func (m *memoryStore) AddQuestion(_ context.Context, examID string, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return Question{}, NotFoundf("exam %q not found", examID)
	}
	if e.Status != StatusDraft {
		return Question{}, InvalidStatef("exam %q is %s; questions can only be added in draft", examID, e.Status)
	}
	if err := validateQuestion(q); err != nil {
		return Question{}, err
	}
	q.ID = uuid.NewString()
	q.ExamID = examID
	q.Seq = m.nextSeqLocked(examID)
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) nextSeqLocked(examID string) int {
	max := 0
	for _, q := range m.questions {
		if q.ExamID == examID && q.Seq > max {
			max = q.Seq
		}
	}
	return max + 1
}

func (m *memoryStore) ListQuestions(_ context.Context, examID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.exams[examID]; !ok {
		return nil, NotFoundf("exam %q not found", examID)
	}
	return m.questionsForLocked(examID), nil
}

func (m *memoryStore) questionsForLocked(examID string) []Question {
	out := []Question{}
	for _, q := range m.questions {
		if q.ExamID == examID {
			out = append(out, q)
		}
	}
	sortQuestions(out)
	return out
}

func (m *memoryStore) DeleteQuestion(_ context.Context, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[questionID]
	if !ok {
		return NotFoundf("question %q not found", questionID)
	}
	if e, ok := m.exams[q.ExamID]; ok && e.Status != StatusDraft {
		return InvalidStatef("exam %q is %s; questions can only be deleted in draft", q.ExamID, e.Status)
	}
	delete(m.questions, questionID)
	return nil
}

// --- Responses + grading ---

func (m *memoryStore) SubmitResponse(_ context.Context, studentID, examID, questionID string, a Answer) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return Response{}, NotFoundf("exam %q not found", examID)
	}
	q, ok := m.questions[questionID]
	if !ok || q.ExamID != examID {
		return Response{}, NotFoundf("question %q not found in exam %q", questionID, examID)
	}
	now := m.now()
	if !e.AcceptingResponses(now) {
		return Response{}, InvalidStatef("exam %q is not accepting responses", examID)
	}
	key := respKey(examID, questionID, studentID)
	for _, r := range m.responses {
		if respKey(r.ExamID, r.QuestionID, r.StudentID) == key {
			return Response{}, Conflictf("response already submitted for question %q", questionID)
		}
	}
	r, err := buildResponse(m.grader, q, studentID, a, now)
	if err != nil {
		return Response{}, err
	}
	m.responses[r.ID] = r
	return r, nil
}

func (m *memoryStore) GradeResponse(_ context.Context, responseID string, marks int, graderID string) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[responseID]
	if !ok {
		return Response{}, NotFoundf("response %q not found", responseID)
	}
	if r.Marks != nil {
		return Response{}, InvalidStatef("response %q is already graded; corrections go through re-evaluation", responseID)
	}
	q, ok := m.questions[r.QuestionID]
	if !ok {
		return Response{}, NotFoundf("question %q not found", r.QuestionID)
	}
	if marks < 0 || marks > q.Marks {
		return Response{}, Validationf("marks %d out of range [0,%d]", marks, q.Marks)
	}
	now := m.now()
	r.Marks = &marks
	r.GradedBy = graderID
	r.GradedAt = &now
	m.responses[responseID] = r
	return r, nil
}

func (m *memoryStore) ListUngraded(_ context.Context, examID, questionID string) (UngradedSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[questionID]
	if !ok || q.ExamID != examID {
		return UngradedSet{}, NotFoundf("question %q not found in exam %q", questionID, examID)
	}
	if q.Type != TypeLong {
		return UngradedSet{}, InvalidStatef("question %q is %s; only long-form questions are graded manually", questionID, q.Type)
	}
	set := UngradedSet{QuestionID: q.ID, QuestionText: q.Text, Keywords: q.Keywords, Responses: []Response{}}
	for _, r := range m.responses {
		if r.ExamID == examID && r.QuestionID == questionID && r.Marks == nil {
			set.Responses = append(set.Responses, r)
		}
	}
	sortResponses(set.Responses)
	return set, nil
}

func (m *memoryStore) ListResponses(_ context.Context, studentID, examID string) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Response{}
	for _, r := range m.responses {
		if r.StudentID == studentID && r.ExamID == examID {
			out = append(out, r)
		}
	}
	sortResponses(out)
	return out, nil
}

// --- Finalization ---

func (m *memoryStore) Finalize(_ context.Context, examID string) (FinalizeOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return FinalizeOutcome{}, NotFoundf("exam %q not found", examID)
	}
	if e.Status != StatusEvaluation && e.Status != StatusEnded {
		return FinalizeOutcome{}, InvalidStatef("exam %q is %s; finalization requires evaluation or ended", examID, e.Status)
	}
	b := grading.DefaultBoundaries()
	defaultsUsed := true
	if m.boundaries != nil {
		b = *m.boundaries
		defaultsUsed = false
	}
	if !b.Ordered() {
		return FinalizeOutcome{}, Configurationf("grade boundaries are not descending: %+v", b)
	}

	questions := m.questionsForLocked(examID)
	responses := []Response{}
	for _, r := range m.responses {
		if r.ExamID == examID {
			responses = append(responses, r)
		}
	}
	results, skipped := computeResults(examID, questions, responses, b, m.now())
	for _, res := range results {
		m.results[resultKey(examID, res.StudentID)] = res
	}
	if e.Status == StatusEvaluation {
		e.Status = StatusEnded
		m.exams[examID] = e
	}
	return FinalizeOutcome{ExamID: examID, Finalized: len(results), Skipped: skipped, DefaultsUsed: defaultsUsed}, nil
}

func (m *memoryStore) ListResults(_ context.Context, studentID string) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Result{}
	for _, res := range m.results {
		if res.StudentID == studentID {
			out = append(out, res)
		}
	}
	sortResults(out)
	return out, nil
}

// --- Grade boundaries ---

func (m *memoryStore) PutBoundaries(_ context.Context, b grading.Boundaries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boundaries = &b
	return nil
}

func (m *memoryStore) GetBoundaries(_ context.Context) (grading.Boundaries, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.boundaries == nil {
		return grading.Boundaries{}, false, nil
	}
	return *m.boundaries, true, nil
}

// --- Re-evaluation ---

func (m *memoryStore) RequestReval(_ context.Context, examID, studentID, reason string) (RevalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return RevalRequest{}, NotFoundf("exam %q not found", examID)
	}
	if e.Status != StatusReval {
		return RevalRequest{}, InvalidStatef("exam %q is %s; re-evaluation requests require reval", examID, e.Status)
	}
	now := m.now()
	req := RevalRequest{
		ID:        uuid.NewString(),
		ExamID:    examID,
		StudentID: studentID,
		Reason:    reason,
		Status:    RevalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.reval[req.ID] = req
	return req, nil
}

func (m *memoryStore) ListRevalRequests(_ context.Context, examID string) ([]RevalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []RevalRequest{}
	for _, req := range m.reval {
		if req.ExamID == examID && req.Status == RevalPending {
			out = append(out, req)
		}
	}
	sortReval(out)
	return out, nil
}

func (m *memoryStore) GetRevalRequest(_ context.Context, requestID string) (RevalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.reval[requestID]
	if !ok {
		return RevalRequest{}, NotFoundf("re-evaluation request %q not found", requestID)
	}
	return req, nil
}

func (m *memoryStore) ReviewReval(_ context.Context, requestID string, d RevalDecision, reviewerID string) (RevalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reval[requestID]
	if !ok {
		return RevalRequest{}, NotFoundf("re-evaluation request %q not found", requestID)
	}
	if req.Status != RevalPending {
		return RevalRequest{}, InvalidStatef("re-evaluation request %q is already %s", requestID, req.Status)
	}
	now := m.now()
	if !d.Approve {
		req.Status = RevalDenied
		req.UpdatedAt = now
		m.reval[requestID] = req
		return req, nil
	}
	if d.Marks < 0 {
		return RevalRequest{}, Validationf("corrected marks must not be negative")
	}
	if d.QuestionID != "" {
		q, ok := m.questions[d.QuestionID]
		if !ok || q.ExamID != req.ExamID {
			return RevalRequest{}, NotFoundf("question %q not found in exam %q", d.QuestionID, req.ExamID)
		}
		if d.Marks > q.Marks {
			return RevalRequest{}, Validationf("corrected marks %d exceed question marks %d", d.Marks, q.Marks)
		}
	}
	patched := 0
	for id, r := range m.responses {
		if r.ExamID != req.ExamID || r.StudentID != req.StudentID {
			continue
		}
		if d.QuestionID != "" && r.QuestionID != d.QuestionID {
			continue
		}
		marks := d.Marks
		r.Marks = &marks
		r.GradedBy = reviewerID
		r.GradedAt = &now
		m.responses[id] = r
		patched++
	}
	if patched == 0 {
		return RevalRequest{}, NotFoundf("no responses found for student %q in exam %q", req.StudentID, req.ExamID)
	}
	m.recomputeResultLocked(req.ExamID, req.StudentID, now)
	req.Status = RevalApproved
	req.UpdatedAt = now
	m.reval[requestID] = req
	return req, nil
}

// recomputeResultLocked refreshes a single student's stored result after a
// correction. Skips silently when any response is still ungraded.
func (m *memoryStore) recomputeResultLocked(examID, studentID string, now time.Time) {
	b := grading.DefaultBoundaries()
	if m.boundaries != nil {
		b = *m.boundaries
	}
	questions := m.questionsForLocked(examID)
	responses := []Response{}
	for _, r := range m.responses {
		if r.ExamID == examID && r.StudentID == studentID {
			responses = append(responses, r)
		}
	}
	results, _ := computeResults(examID, questions, responses, b, now)
	for _, res := range results {
		m.results[resultKey(examID, res.StudentID)] = res
	}
}
