package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/rbac"
)

func CreateExamHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title               string `json:"title" validate:"required,max=200"`
			CourseID            string `json:"course_id" validate:"required"`
			StartTime           int64  `json:"start_time" validate:"required"`
			EndTime             int64  `json:"end_time" validate:"required"`
			ExamType            string `json:"exam_type" validate:"max=50"`
			AllowBackNavigation bool   `json:"allow_back_navigation"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := es.CreateExam(r.Context(), exam.Exam{
			Title:               req.Title,
			CourseID:            req.CourseID,
			TeacherID:           rbac.SubjectFromContext(r.Context()),
			StartTime:           req.StartTime,
			EndTime:             req.EndTime,
			ExamType:            req.ExamType,
			AllowBackNavigation: req.AllowBackNavigation,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func UpdateExamHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title               string `json:"title" validate:"required,max=200"`
			StartTime           int64  `json:"start_time" validate:"required"`
			EndTime             int64  `json:"end_time" validate:"required"`
			ExamType            string `json:"exam_type" validate:"max=50"`
			AllowBackNavigation bool   `json:"allow_back_navigation"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := es.UpdateExam(r.Context(), rbac.SubjectFromContext(r.Context()), exam.Exam{
			ID:                  chi.URLParam(r, "examID"),
			Title:               req.Title,
			StartTime:           req.StartTime,
			EndTime:             req.EndTime,
			ExamType:            req.ExamType,
			AllowBackNavigation: req.AllowBackNavigation,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func DeleteExamHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := es.DeleteExam(r.Context(), chi.URLParam(r, "examID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetExamHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := es.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// ListExamsHandler returns the teacher's exams, optionally narrowed to one
// course with ?course_id=.
func ListExamsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if courseID := r.URL.Query().Get("course_id"); courseID != "" {
			exs, err := es.ExamsForCourse(ctx, courseID)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, exs)
			return
		}
		exs, err := es.ExamsForTeacher(ctx, rbac.SubjectFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exs)
	}
}

func ReplaceAssignmentsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StudentIDs []string `json:"student_ids" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		err := es.ReplaceAssignments(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()), req.StudentIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListAssignmentsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		as, err := es.AssignedStudents(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, as)
	}
}
