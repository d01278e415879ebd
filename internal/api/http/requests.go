package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// Request bodies are typed and checked with validator before any field
// reaches the exam package.
var validate = validator.New()

type createExamReq struct {
	Title           string    `json:"title" validate:"required"`
	SubjectID       string    `json:"subjectId" validate:"required"`
	StartTime       time.Time `json:"startTime" validate:"required"`
	EndTime         time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	DurationMinutes int       `json:"durationMinutes" validate:"required,gt=0"`
}

type publishReq struct {
	IsPublished bool `json:"isPublished"`
}

type statusReq struct {
	Status string `json:"status" validate:"required,oneof=draft scheduled live evaluation ended reval"`
}

type addQuestionReq struct {
	Text         string    `json:"questionText" validate:"required"`
	Type         string    `json:"type" validate:"required,oneof=mcq long"`
	Marks        int       `json:"marks" validate:"required,gt=0"`
	Options      []string  `json:"options,omitempty"`
	CorrectIndex *int      `json:"correctAnswerIndex,omitempty"`
	Keywords     *[]string `json:"expectedKeywords,omitempty"`
}

type submitResponseReq struct {
	SelectedIndex *int   `json:"selectedAnswerIndex,omitempty"`
	Text          string `json:"longAnswerText,omitempty"`
}

type gradeReq struct {
	Marks    *int   `json:"marks" validate:"required"`
	GraderID string `json:"graderId,omitempty"`
}

type boundariesReq struct {
	A *int `json:"A" validate:"required,min=0,max=100"`
	B *int `json:"B" validate:"required,min=0,max=100"`
	C *int `json:"C" validate:"required,min=0,max=100"`
}

type revalRequestReq struct {
	Reason string `json:"reason" validate:"required"`
}

type revalReviewReq struct {
	Action     string `json:"action" validate:"required,oneof=approve deny"`
	Marks      *int   `json:"marksObtained,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
}

// decodeValid decodes JSON into dst and runs struct validation. Returns false
// after writing the error response.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "bad json: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		badRequest(w, "invalid request: "+err.Error())
		return false
	}
	return true
}
