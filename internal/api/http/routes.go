package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/campusware/examcore/internal/audit"
	"github.com/campusware/examcore/internal/exam"
	"github.com/campusware/examcore/internal/rbac"
)

// Mount wires every exam-engine route onto r. Callers are expected to have
// attached subject and role to the request context already.
func Mount(r chi.Router, store exam.Store, alog *audit.Log) {
	// Lifecycle
	r.With(rbac.Require("exam:create")).Post("/exams", CreateExamHandler(store))
	r.With(rbac.Require("exam:view")).Get("/exams", ListExamsHandler(store))
	r.With(rbac.Require("exam:view")).Get("/exams/{examID}", GetExamHandler(store))
	r.With(rbac.Require("exam:publish")).Put("/exams/{examID}/publish", PublishExamHandler(store, alog))
	r.With(rbac.Require("exam:transition")).Put("/exams/{examID}/status", SetStatusHandler(store, alog))
	r.With(rbac.Require("exam:delete")).Delete("/exams/{examID}", DeleteExamHandler(store, alog))

	// Question catalog
	r.With(rbac.Require("question:manage")).Post("/exams/{examID}/questions", AddQuestionHandler(store))
	r.With(rbac.Require("question:view")).Get("/exams/{examID}/questions", ListQuestionsHandler(store))
	r.With(rbac.Require("question:manage")).Delete("/questions/{questionID}", DeleteQuestionHandler(store))

	// Responses + manual grading
	r.With(rbac.Require("response:submit")).Post("/exams/{examID}/questions/{questionID}/response", SubmitResponseHandler(store))
	r.With(rbac.Require("response:grade")).Get("/exams/{examID}/questions/{questionID}/responses", ListUngradedHandler(store))
	r.With(rbac.Require("response:grade")).Post("/responses/{responseID}/grade", GradeResponseHandler(store))
	r.With(rbac.RequireAny("response:view-own", "response:view-all")).Get("/responses", ListResponsesHandler(store))

	// Finalization + results
	r.With(rbac.Require("exam:finalize")).Post("/exams/finalize-results", FinalizeResultsHandler(store, alog))
	r.With(rbac.RequireAny("result:view-own", "result:view-all")).Get("/results", ListResultsHandler(store))

	// Grade boundaries
	r.With(rbac.Require("config:update")).Put("/config/grade-boundaries", PutBoundariesHandler(store))
	r.With(rbac.Require("config:view")).Get("/config/grade-boundaries", GetBoundariesHandler(store))

	// Re-evaluation
	r.With(rbac.Require("reval:request")).Post("/exams/{examID}/reval", RequestRevalHandler(store))
	r.With(rbac.Require("reval:review")).Get("/reval/requests", ListRevalRequestsHandler(store))
	r.With(rbac.Require("reval:view")).Get("/reval/requests/{requestID}", GetRevalRequestHandler(store))
	r.With(rbac.Require("reval:review")).Post("/reval/requests/{requestID}/review", ReviewRevalHandler(store, alog))
}
