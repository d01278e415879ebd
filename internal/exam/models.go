package exam

import (
	"strings"
	"time"
)

type QuestionType string

const (
	TypeMCQ  QuestionType = "mcq"
	TypeLong QuestionType = "long"
)

type Exam struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SubjectID       string    `json:"subjectId"`
	CreatedBy       string    `json:"createdBy"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          Status    `json:"status"`
	IsPublished     bool      `json:"isPublished"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AcceptingResponses reports whether a submission is legal right now:
// published, status live, and now within the scheduled window.
func (e Exam) AcceptingResponses(now time.Time) bool {
	return e.IsPublished && e.Status == StatusLive &&
		!now.Before(e.StartTime) && !now.After(e.EndTime)
}

type Question struct {
	ID     string       `json:"id"`
	ExamID string       `json:"examId"`
	Seq    int          `json:"seq"`
	Text   string       `json:"questionText"`
	Type   QuestionType `json:"type"`
	Marks  int          `json:"marks"`

	// mcq only
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correctAnswerIndex"`

	// long only; advisory for graders, never auto-scored
	Keywords []string `json:"expectedKeywords,omitempty"`
}

// Answer is the submitted payload for one question: a selected option index
// for mcq, free text for long.
type Answer struct {
	SelectedIndex *int   `json:"selectedAnswerIndex,omitempty"`
	Text          string `json:"longAnswerText,omitempty"`
}

type Response struct {
	ID          string       `json:"id"`
	ExamID      string       `json:"examId"`
	QuestionID  string       `json:"questionId"`
	StudentID   string       `json:"studentId"`
	Type        QuestionType `json:"type"`
	Selected    *int         `json:"selectedAnswerIndex,omitempty"`
	AnswerText  string       `json:"longAnswerText,omitempty"`
	Marks       *int         `json:"marksAwarded"` // nil means ungraded
	GradedBy    string       `json:"gradedBy,omitempty"`
	GradedAt    *time.Time   `json:"gradedAt,omitempty"`
	SubmittedAt time.Time    `json:"submittedAt"`
}

type Result struct {
	ExamID        string    `json:"examId"`
	StudentID     string    `json:"studentId"`
	MarksObtained int       `json:"marksObtained"`
	TotalMarks    int       `json:"totalMarks"`
	Percentage    float64   `json:"percentage"`
	Grade         string    `json:"grade"`
	ComputedAt    time.Time `json:"computedAt"`
}

type RevalStatus string

const (
	RevalPending  RevalStatus = "pending"
	RevalApproved RevalStatus = "approved"
	RevalDenied   RevalStatus = "denied"
)

type RevalRequest struct {
	ID        string      `json:"requestId"`
	ExamID    string      `json:"examId"`
	StudentID string      `json:"studentId"`
	Reason    string      `json:"reason"`
	Status    RevalStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// RevalDecision is a reviewer's verdict on a pending request. When Approve is
// set, Marks replaces the student's awarded marks for the exam; QuestionID,
// when non-empty, narrows the correction to a single question.
type RevalDecision struct {
	Approve    bool
	Marks      int
	QuestionID string
}

// SlugID derives a readable exam id from subject and title, e.g.
// "cs101-midterm-one".
func SlugID(subjectID, title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	return strings.ToLower(subjectID) + "-" + slug
}

// validateQuestion enforces per-type field requirements before a question is
// accepted into the catalog.
func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return Validationf("question text is required")
	}
	if q.Marks <= 0 {
		return Validationf("marks must be a positive integer")
	}
	switch q.Type {
	case TypeMCQ:
		if len(q.Options) < 2 {
			return Validationf("mcq question needs at least 2 options")
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return Validationf("correctAnswerIndex %d out of range [0,%d)", q.CorrectIndex, len(q.Options))
		}
		if len(q.Keywords) > 0 {
			return Validationf("mcq question must not carry expectedKeywords")
		}
	case TypeLong:
		if q.Keywords == nil {
			return Validationf("long question must carry expectedKeywords (may be empty)")
		}
		if len(q.Options) > 0 {
			return Validationf("long question must not carry options")
		}
	default:
		return Validationf("unsupported question type %q", q.Type)
	}
	return nil
}
