package exam

import (
	"sort"
	"time"

	"github.com/campusware/examcore/internal/grading"
)

// computeResults aggregates graded responses into per-student results. A
// student with any ungraded response is skipped entirely so a partial score
// is never published. The denominator is the sum of marks over all of the
// exam's questions, not just the answered ones.
func computeResults(examID string, questions []Question, responses []Response, b grading.Boundaries, now time.Time) (results []Result, skipped []string) {
	totalMarks := 0
	for _, q := range questions {
		totalMarks += q.Marks
	}

	byStudent := map[string][]Response{}
	for _, r := range responses {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}
	students := make([]string, 0, len(byStudent))
	for s := range byStudent {
		students = append(students, s)
	}
	sort.Strings(students)

	for _, sid := range students {
		obtained := 0
		pending := false
		for _, r := range byStudent[sid] {
			if r.Marks == nil {
				pending = true
				break
			}
			obtained += *r.Marks
		}
		if pending {
			skipped = append(skipped, sid)
			continue
		}
		if totalMarks == 0 {
			continue
		}
		pct := 100 * float64(obtained) / float64(totalMarks)
		results = append(results, Result{
			ExamID:        examID,
			StudentID:     sid,
			MarksObtained: obtained,
			TotalMarks:    totalMarks,
			Percentage:    pct,
			Grade:         b.Letter(pct),
			ComputedAt:    now,
		})
	}
	return results, skipped
}
