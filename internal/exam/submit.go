package exam

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campusware/examcore/internal/grading"
)

// buildResponse turns a validated submission into a Response record. MCQ
// answers are scored synchronously; long-form answers are stored verbatim
// with nil marks until a grader acts.
func buildResponse(g grading.Grader, q Question, studentID string, a Answer, now time.Time) (Response, error) {
	res, err := g.Grade(grading.Q{
		Type:         string(q.Type),
		Marks:        q.Marks,
		OptionCount:  len(q.Options),
		CorrectIndex: q.CorrectIndex,
		Keywords:     q.Keywords,
	}, grading.A{SelectedIndex: a.SelectedIndex, Text: a.Text})
	if err != nil {
		return Response{}, Validationf("invalid answer payload: %v", err)
	}
	r := Response{
		ID:          uuid.NewString(),
		ExamID:      q.ExamID,
		QuestionID:  q.ID,
		StudentID:   studentID,
		Type:        q.Type,
		SubmittedAt: now,
	}
	switch q.Type {
	case TypeMCQ:
		r.Selected = a.SelectedIndex
		marks := res.AutoMarks
		r.Marks = &marks
	case TypeLong:
		r.AnswerText = a.Text
	}
	return r, nil
}

func sortQuestions(qs []Question) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Seq < qs[j].Seq })
}

func sortResponses(rs []Response) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].SubmittedAt.Equal(rs[j].SubmittedAt) {
			return rs[i].SubmittedAt.Before(rs[j].SubmittedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

func sortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ExamID < rs[j].ExamID })
}

func sortReval(rs []RevalRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
