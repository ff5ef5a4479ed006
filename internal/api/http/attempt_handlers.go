package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/metrics"
	"github.com/examhall/examhall/internal/rbac"
)

// ActiveExamsHandler lists exams the student can sit right now.
func ActiveExamsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exs, err := es.ActiveExamsFor(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exs)
	}
}

func UpcomingExamsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exs, err := es.UpcomingExamsFor(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exs)
	}
}

// EligibilityHandler answers "can I start this exam" without side effects.
func EligibilityHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := es.CanStudentTakeExam(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"eligible": ok})
	}
}

// StartExamHandler starts or resumes the student's attempt and returns the
// exam with key-stripped questions.
func StartExamHandler(es *exam.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := es.StartExam(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		if m != nil {
			m.AttemptsStarted.Inc()
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func SaveAnswerHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id" validate:"required"`
			Selected   string `json:"selected" validate:"required,oneof=A B C D E"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		err := es.SaveAnswer(r.Context(), chi.URLParam(r, "attemptID"),
			rbac.SubjectFromContext(r.Context()), req.QuestionID, req.Selected)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SubmitHandler(es *exam.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := es.Submit(r.Context(), chi.URLParam(r, "attemptID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		if m != nil {
			m.AttemptsSubmitted.Inc()
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// MyResultsHandler lists the student's attempts across exams.
func MyResultsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		as, err := es.ResultsForStudent(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, as)
	}
}

// MyExamResultHandler returns the student's attempt for one exam.
func MyExamResultHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := es.StudentResult(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// AttemptAnswersHandler returns the answer ledger, for review screens.
func AttemptAnswersHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ans, err := es.AttemptAnswers(r.Context(), chi.URLParam(r, "attemptID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ans)
	}
}
