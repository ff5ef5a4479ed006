package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/roster"
)

// ListUsersHandler is an admin view, filtered by ?role= and optionally
// ?department= plus ?class= for students.
func ListUsersHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		role := rbac.RoleStudent
		if v := q.Get("role"); v != "" {
			parsed, err := rbac.ParseRole(v)
			if err != nil {
				http.Error(w, "bad role", http.StatusBadRequest)
				return
			}
			role = parsed
		}
		if role == rbac.RoleStudent && q.Get("department") != "" {
			us, err := rs.StudentsByDeptClass(r.Context(), q.Get("department"), q.Get("class"))
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, us)
			return
		}
		us, err := rs.UsersByRole(r.Context(), role)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, us)
	}
}

// UpdateUserHandler edits a user's profile. A student moving department or
// class gets their course enrollment recomputed.
func UpdateUserHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName   string `json:"full_name" validate:"required,max=120"`
			Email      string `json:"email" validate:"required,email"`
			Department string `json:"department" validate:"max=100"`
			Class      string `json:"class" validate:"max=100"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := rs.UpdateUser(r.Context(), roster.User{
			ID:         chi.URLParam(r, "userID"),
			FullName:   req.FullName,
			Email:      req.Email,
			Department: req.Department,
			Class:      req.Class,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func DeleteUserHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rs.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
