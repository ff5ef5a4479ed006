package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/roster"
)

func CreateCourseHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name       string `json:"name" validate:"required,max=150"`
			Department string `json:"department" validate:"max=100"`
			Class      string `json:"class" validate:"max=100"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := rs.CreateCourse(r.Context(), roster.Course{
			Name:       req.Name,
			TeacherID:  rbac.SubjectFromContext(r.Context()),
			Department: req.Department,
			Class:      req.Class,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func UpdateCourseHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name       string `json:"name" validate:"required,max=150"`
			Department string `json:"department" validate:"max=100"`
			Class      string `json:"class" validate:"max=100"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := rs.UpdateCourse(r.Context(), rbac.SubjectFromContext(r.Context()), roster.Course{
			ID:         chi.URLParam(r, "courseID"),
			Name:       req.Name,
			Department: req.Department,
			Class:      req.Class,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func DeleteCourseHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := rs.DeleteCourse(r.Context(), chi.URLParam(r, "courseID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListCoursesHandler scopes the list to the caller: teachers see courses they
// own, students see courses they are enrolled in.
func ListCoursesHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := rbac.SubjectFromContext(ctx)
		var (
			cs  []roster.Course
			err error
		)
		if rbac.RoleFromContext(ctx) == rbac.RoleStudent {
			cs, err = rs.CoursesForStudent(ctx, sub)
		} else {
			cs, err = rs.CoursesForTeacher(ctx, sub)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

func GetCourseHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := rs.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func CourseStudentsHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := rs.CourseStudents(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, us)
	}
}

func DepartmentsHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := rs.Departments(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ds)
	}
}

func ClassesHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := rs.Classes(r.Context(), r.URL.Query().Get("department"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}
