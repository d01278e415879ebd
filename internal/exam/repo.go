package exam

import (
	"context"

	"github.com/campusware/examcore/internal/grading"
)

// UngradedSet is the grading work-list for one long-form question: every
// pending response plus the question's advisory keywords.
type UngradedSet struct {
	QuestionID   string     `json:"questionId"`
	QuestionText string     `json:"questionText"`
	Keywords     []string   `json:"expectedKeywords"`
	Responses    []Response `json:"responses"`
}

// FinalizeOutcome reports what a finalization run produced. Students with
// ungraded long-form responses are skipped, not zero-filled; callers re-run
// Finalize once grading completes.
type FinalizeOutcome struct {
	ExamID       string   `json:"examId"`
	Finalized    int      `json:"finalized"`
	Skipped      []string `json:"skippedStudents,omitempty"`
	DefaultsUsed bool     `json:"defaultBoundariesUsed"`
}

// Store is the persistence boundary of the exam engine. Each operation is a
// single atomic mutation guarded by a preceding read-check; cross-document
// consistency is the caller's problem.
type Store interface {
	// Lifecycle
	CreateExam(ctx context.Context, e Exam) (Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context) ([]Exam, error)
	Publish(ctx context.Context, id string, isPublished bool) (Exam, error)
	SetStatus(ctx context.Context, id string, to Status) (Exam, error)
	DeleteExam(ctx context.Context, id string) (questionsDeleted int, err error)

	// Question catalog
	AddQuestion(ctx context.Context, examID string, q Question) (Question, error)
	ListQuestions(ctx context.Context, examID string) ([]Question, error)
	DeleteQuestion(ctx context.Context, questionID string) error

	// Responses + grading
	SubmitResponse(ctx context.Context, studentID, examID, questionID string, a Answer) (Response, error)
	GradeResponse(ctx context.Context, responseID string, marks int, graderID string) (Response, error)
	ListUngraded(ctx context.Context, examID, questionID string) (UngradedSet, error)
	ListResponses(ctx context.Context, studentID, examID string) ([]Response, error)

	// Finalization
	Finalize(ctx context.Context, examID string) (FinalizeOutcome, error)
	ListResults(ctx context.Context, studentID string) ([]Result, error)

	// Grade boundaries (ok=false means unset; callers fall back to defaults)
	PutBoundaries(ctx context.Context, b grading.Boundaries) error
	GetBoundaries(ctx context.Context) (b grading.Boundaries, ok bool, err error)

	// Re-evaluation
	RequestReval(ctx context.Context, examID, studentID, reason string) (RevalRequest, error)
	ListRevalRequests(ctx context.Context, examID string) ([]RevalRequest, error)
	GetRevalRequest(ctx context.Context, requestID string) (RevalRequest, error)
	ReviewReval(ctx context.Context, requestID string, d RevalDecision, reviewerID string) (RevalRequest, error)
}
