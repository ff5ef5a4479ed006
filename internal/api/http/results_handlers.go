package http

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/roster"
)

// ExamResultsHandler lists attempts for an exam the caller owns.
func ExamResultsHandler(es *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		as, err := es.ExamResults(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, as)
	}
}

// ExportResultsHandler streams exam results as CSV, one row per attempt with
// the student's name and email resolved.
func ExportResultsHandler(es *exam.Service, rs *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		examID := chi.URLParam(r, "examID")
		as, err := es.ExamResults(ctx, examID, rbac.SubjectFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="results-`+examID+`.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"student_id", "full_name", "email", "started_at", "finished_at", "completed", "score"})
		for _, a := range as {
			name, email := "", ""
			if u, err := rs.GetUser(ctx, a.StudentID); err == nil {
				name, email = u.FullName, u.Email
			}
			finished := ""
			if a.FinishedAt > 0 {
				finished = time.Unix(a.FinishedAt, 0).UTC().Format(time.RFC3339)
			}
			_ = cw.Write([]string{
				a.StudentID,
				name,
				email,
				time.Unix(a.StartedAt, 0).UTC().Format(time.RFC3339),
				finished,
				strconv.FormatBool(a.Completed),
				strconv.Itoa(a.Score),
			})
		}
		cw.Flush()
	}
}
