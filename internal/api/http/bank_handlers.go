package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/rbac"
)

type bankQuestionReq struct {
	CourseID      string `json:"course_id" validate:"required"`
	Text          string `json:"text" validate:"required"`
	OptionCount   int    `json:"option_count" validate:"min=4,max=5"`
	OptionA       string `json:"option_a" validate:"required,max=300"`
	OptionB       string `json:"option_b" validate:"required,max=300"`
	OptionC       string `json:"option_c" validate:"required,max=300"`
	OptionD       string `json:"option_d" validate:"required,max=300"`
	OptionE       string `json:"option_e" validate:"max=300"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D E"`
	Points        int    `json:"points" validate:"min=0"`
	Difficulty    string `json:"difficulty" validate:"max=20"`
	Tags          string `json:"tags" validate:"max=200"`
}

func (b bankQuestionReq) toModel() exam.BankQuestion {
	return exam.BankQuestion{
		CourseID:      b.CourseID,
		Text:          b.Text,
		OptionCount:   b.OptionCount,
		OptionA:       b.OptionA,
		OptionB:       b.OptionB,
		OptionC:       b.OptionC,
		OptionD:       b.OptionD,
		OptionE:       b.OptionE,
		CorrectOption: b.CorrectOption,
		Points:        b.Points,
		Difficulty:    b.Difficulty,
		Tags:          b.Tags,
	}
}

func CreateBankQuestionHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankQuestionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		b := req.toModel()
		b.TeacherID = rbac.SubjectFromContext(r.Context())
		out, err := es.CreateBankQuestion(r.Context(), b)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateBankQuestionHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankQuestionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		b := req.toModel()
		b.ID = chi.URLParam(r, "bankID")
		out, err := es.UpdateBankQuestion(r.Context(), rbac.SubjectFromContext(r.Context()), b)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteBankQuestionHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := es.DeleteBankQuestion(r.Context(), chi.URLParam(r, "bankID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SearchBankHandler lists the caller's bank, filtered by ?q=, ?difficulty=
// and ?course_id=.
func SearchBankHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		bs, err := es.SearchBank(r.Context(), exam.BankSearchOpts{
			TeacherID:  rbac.SubjectFromContext(r.Context()),
			Term:       q.Get("q"),
			Difficulty: q.Get("difficulty"),
			CourseID:   q.Get("course_id"),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bs)
	}
}

// SaveToBankHandler copies a live exam question into the caller's bank.
func SaveToBankHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := es.SaveToBank(r.Context(), chi.URLParam(r, "questionID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

// AddFromBankHandler copies bank questions into an exam. With one id the
// response is the new question; with several it is an added/skipped summary.
func AddFromBankHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BankIDs []string `json:"bank_ids" validate:"required,min=1"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx := r.Context()
		examID := chi.URLParam(r, "examID")
		teacherID := rbac.SubjectFromContext(ctx)
		if len(req.BankIDs) == 1 {
			q, err := es.AddFromBank(ctx, req.BankIDs[0], examID, teacherID)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, q)
			return
		}
		res, err := es.AddFromBankBulk(ctx, req.BankIDs, examID, teacherID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// CopyQuestionsHandler bulk-copies questions from other exams into this one,
// skipping duplicates by question text.
func CopyQuestionsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionIDs []string `json:"question_ids" validate:"required,min=1"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := es.CopyQuestions(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()), req.QuestionIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ReusableQuestionsHandler lists prior questions in a course available for
// copying into a new exam.
func ReusableQuestionsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := es.ReusableQuestions(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}
