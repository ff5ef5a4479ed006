package http

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/storage"
)

type questionReq struct {
	Text          string `json:"text" validate:"required"`
	OptionCount   int    `json:"option_count" validate:"min=4,max=5"`
	OptionA       string `json:"option_a" validate:"required,max=300"`
	OptionB       string `json:"option_b" validate:"required,max=300"`
	OptionC       string `json:"option_c" validate:"required,max=300"`
	OptionD       string `json:"option_d" validate:"required,max=300"`
	OptionE       string `json:"option_e" validate:"max=300"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D E"`
}

func (q questionReq) toModel() exam.Question {
	return exam.Question{
		Text:          q.Text,
		OptionCount:   q.OptionCount,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		OptionE:       q.OptionE,
		CorrectOption: q.CorrectOption,
	}
}

func AddQuestionHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		q := req.toModel()
		q.ExamID = chi.URLParam(r, "examID")
		out, err := es.AddQuestion(r.Context(), rbac.SubjectFromContext(r.Context()), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateQuestionHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		q := req.toModel()
		q.ID = chi.URLParam(r, "questionID")
		out, err := es.UpdateQuestion(r.Context(), rbac.SubjectFromContext(r.Context()), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuestionHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := es.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListExamQuestionsHandler returns a teacher's questions with answer keys.
// Students receive questions only through the attempt start endpoint, which
// strips keys.
func ListExamQuestionsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := es.ExamQuestions(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// UploadQuestionImageHandler accepts a multipart "image" file, stores it and
// records the key on the question. A previous image, if any, is removed.
func UploadQuestionImageHandler(es *exam.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID := chi.URLParam(r, "questionID")
		f, hdr, err := r.FormFile("image")
		if err != nil {
			http.Error(w, "image file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext := strings.ToLower(path.Ext(hdr.Filename))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		default:
			http.Error(w, "unsupported image type", http.StatusBadRequest)
			return
		}
		key := "questions/" + questionID + "/" + uuid.NewString() + ext
		key, err = bs.Put(key, f)
		if err != nil {
			writeErr(w, err)
			return
		}
		old, err := es.SetQuestionImage(r.Context(), questionID,
			rbac.SubjectFromContext(r.Context()), key)
		if err != nil {
			_ = bs.Delete(key)
			writeErr(w, err)
			return
		}
		if old != "" {
			_ = bs.Delete(old)
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"image_path": key,
			"url":        bs.URL(key),
		})
	}
}
