package grading

import (
	"errors"
	"fmt"
	"strings"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type         string
	Marks        int
	OptionCount  int
	CorrectIndex int
	Keywords     []string
}

// A is the submitted answer payload.
type A struct {
	SelectedIndex *int
	Text          string
}

// Result is the outcome of grading a single response.
type Result struct {
	AutoMarks   int      // marks awarded automatically
	MaxMarks    int      // the question's max marks
	NeedsManual bool     // true if teacher review is required
	Feedback    []string // optional notes for graders
}

var ErrBadAnswer = errors.New("answer payload does not match question type")

// Strategy grades a single question response.
type Strategy interface {
	Grade(q Q, a A) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, a A) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(q Q, a A) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxMarks: q.Marks, NeedsManual: true, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(q, a)
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			"mcq":  mcqStrategy{},
			"long": longStrategy{},
		},
	}
}

// --- Strategies ---

type mcqStrategy struct{}

// Grade scores an MCQ deterministically at submission time: full marks on the
// correct index, zero otherwise. No partial credit.
func (mcqStrategy) Grade(q Q, a A) (Result, error) {
	res := Result{MaxMarks: q.Marks}
	if a.SelectedIndex == nil {
		return res, ErrBadAnswer
	}
	sel := *a.SelectedIndex
	if sel < 0 || sel >= q.OptionCount {
		return res, fmt.Errorf("selected index %d out of range [0,%d): %w", sel, q.OptionCount, ErrBadAnswer)
	}
	if sel == q.CorrectIndex {
		res.AutoMarks = q.Marks
	}
	return res, nil
}

type longStrategy struct{}

// Grade never scores a long-form answer; it only annotates keyword hits as
// advisory feedback for the manual grader.
func (longStrategy) Grade(q Q, a A) (Result, error) {
	res := Result{MaxMarks: q.Marks, NeedsManual: true}
	if hits, total := keywordHits(a.Text, q.Keywords); total > 0 {
		res.Feedback = append(res.Feedback, fmt.Sprintf("keyword hits: %d/%d", hits, total))
	}
	return res, nil
}

func keywordHits(text string, keywords []string) (found, total int) {
	low := strings.ToLower(text)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		total++
		if strings.Contains(low, strings.ToLower(k)) {
			found++
		}
	}
	return found, total
}
