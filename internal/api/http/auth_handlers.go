package http

import (
	"net/http"

	"github.com/examhall/examhall/internal/auth"
	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/roster"
)

// RegisterHandler creates student and teacher accounts. Admin accounts are
// never self-service; they come from an existing admin via the users API.
func RegisterHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName   string `json:"full_name" validate:"required,max=120"`
			Email      string `json:"email" validate:"required,email"`
			Password   string `json:"password" validate:"required,min=8,max=72"`
			Role       string `json:"role" validate:"required,oneof=student teacher"`
			Department string `json:"department" validate:"max=100"`
			Class      string `json:"class" validate:"max=100"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		role, err := rbac.ParseRole(req.Role)
		if err != nil {
			http.Error(w, "bad role", http.StatusBadRequest)
			return
		}
		u, err := rs.Register(r.Context(), req.FullName, req.Email, req.Password, role, req.Department, req.Class)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func LoginHandler(rs *roster.Service, tokens *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := rs.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeErr(w, err)
			return
		}
		tok, err := tokens.Issue(u.ID, u.Role)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": tok,
			"user":         u,
		})
	}
}

// MeHandler returns the authenticated user's profile.
func MeHandler(rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := rs.GetUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
