package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/roster"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON parses the body and runs struct validation when the target has
// validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			http.Error(w, "validation failed: "+verr.Error(), http.StatusBadRequest)
			return false
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

// writeErr maps service sentinels to HTTP statuses. Unknown errors are 500
// with a generic body so internals do not leak.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrNotFound) || errors.Is(err, roster.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, exam.ErrForbidden) || errors.Is(err, roster.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, exam.ErrNotEligible):
		http.Error(w, "not eligible", http.StatusForbidden)
	case errors.Is(err, exam.ErrExamLocked):
		http.Error(w, "exam locked", http.StatusConflict)
	case errors.Is(err, exam.ErrAlreadySubmitted):
		http.Error(w, "attempt already submitted", http.StatusConflict)
	case errors.Is(err, exam.ErrInvalidOption),
		errors.Is(err, exam.ErrInvalidQuestion),
		errors.Is(err, exam.ErrInvalidExam):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, roster.ErrEmailTaken):
		http.Error(w, "email already registered", http.StatusConflict)
	case errors.Is(err, roster.ErrBadCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
