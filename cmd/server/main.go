package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/examhall/examhall/internal/api/http"
	"github.com/examhall/examhall/internal/auth"
	"github.com/examhall/examhall/internal/config"
	"github.com/examhall/examhall/internal/db"
	"github.com/examhall/examhall/internal/exam"
	"github.com/examhall/examhall/internal/logging"
	"github.com/examhall/examhall/internal/metrics"
	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/roster"
	"github.com/examhall/examhall/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New("examhall", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("db open failed")
	}
	defer dbh.Close()

	examStore := exam.NewSQLStore(dbh)
	rosterStore := roster.NewSQLStore(dbh)

	resume := exam.ResumeResets
	if cfg.PreserveStartOnResume {
		resume = exam.ResumePreserves
	}
	examSvc := exam.NewService(examStore, nil, log, resume)
	rosterSvc := roster.NewService(rosterStore, nil, log)
	tokens := auth.NewService(cfg.AuthSecret, cfg.TokenTTL)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.WithError(err).Fatal("blob store")
	}

	m := metrics.New("server")

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", api.RegisterHandler(rosterSvc))
	r.Post("/auth/login", api.LoginHandler(rosterSvc, tokens))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})
	r.Method("GET", "/metrics", metrics.Handler())

	// Assets (question images) are readable by any authenticated user.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(tokens))
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(tokens))

		pr.Get("/me", api.MeHandler(rosterSvc))

		// Courses
		pr.With(rbac.Require("course:manage")).
			Post("/courses", api.CreateCourseHandler(rosterSvc))
		pr.With(rbac.Require("course:manage")).
			Put("/courses/{courseID}", api.UpdateCourseHandler(rosterSvc))
		pr.With(rbac.Require("course:manage")).
			Delete("/courses/{courseID}", api.DeleteCourseHandler(rosterSvc))
		pr.Get("/courses", api.ListCoursesHandler(rosterSvc))
		pr.Get("/courses/{courseID}", api.GetCourseHandler(rosterSvc))
		pr.With(rbac.Require("course:manage")).
			Get("/courses/{courseID}/students", api.CourseStudentsHandler(rosterSvc))
		pr.With(rbac.Require("question:manage")).
			Get("/courses/{courseID}/questions", api.ReusableQuestionsHandler(examSvc))

		// Departments and classes for course/profile forms
		pr.Get("/departments", api.DepartmentsHandler(rosterSvc))
		pr.Get("/classes", api.ClassesHandler(rosterSvc))

		// Exams (teacher)
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(examSvc))
		pr.With(rbac.Require("exam:edit-own")).
			Put("/exams/{examID}", api.UpdateExamHandler(examSvc))
		pr.With(rbac.Require("exam:delete-own")).
			Delete("/exams/{examID}", api.DeleteExamHandler(examSvc))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(examSvc))
		pr.With(rbac.RequireAny("exam:create", "attempt:view-all")).
			Get("/exams", api.ListExamsHandler(examSvc))
		pr.With(rbac.Require("exam:assign")).
			Put("/exams/{examID}/assignments", api.ReplaceAssignmentsHandler(examSvc))
		pr.With(rbac.Require("exam:assign")).
			Get("/exams/{examID}/assignments", api.ListAssignmentsHandler(examSvc))

		// Questions (teacher)
		pr.With(rbac.Require("question:manage")).
			Post("/exams/{examID}/questions", api.AddQuestionHandler(examSvc))
		pr.With(rbac.Require("question:manage")).
			Get("/exams/{examID}/questions", api.ListExamQuestionsHandler(examSvc))
		pr.With(rbac.Require("question:manage")).
			Put("/questions/{questionID}", api.UpdateQuestionHandler(examSvc))
		pr.With(rbac.Require("question:manage")).
			Delete("/questions/{questionID}", api.DeleteQuestionHandler(examSvc))
		pr.With(rbac.Require("question:manage")).
			Post("/questions/{questionID}/image", api.UploadQuestionImageHandler(examSvc, bs))
		pr.With(rbac.Require("bank:manage")).
			Post("/questions/{questionID}/bank", api.SaveToBankHandler(examSvc))

		// Question bank (teacher)
		pr.With(rbac.Require("bank:manage")).
			Post("/bank", api.CreateBankQuestionHandler(examSvc))
		pr.With(rbac.Require("bank:manage")).
			Get("/bank", api.SearchBankHandler(examSvc))
		pr.With(rbac.Require("bank:manage")).
			Put("/bank/{bankID}", api.UpdateBankQuestionHandler(examSvc))
		pr.With(rbac.Require("bank:manage")).
			Delete("/bank/{bankID}", api.DeleteBankQuestionHandler(examSvc))
		pr.With(rbac.Require("question:manage")).
			Post("/exams/{examID}/questions/from-bank", api.AddFromBankHandler(examSvc))
		pr.With(rbac.Require("question:manage")).
			Post("/exams/{examID}/questions/copy", api.CopyQuestionsHandler(examSvc))

		// Student flow
		pr.With(rbac.Require("exam:list-own")).
			Get("/student/exams/active", api.ActiveExamsHandler(examSvc))
		pr.With(rbac.Require("exam:list-own")).
			Get("/student/exams/upcoming", api.UpcomingExamsHandler(examSvc))
		pr.With(rbac.Require("attempt:start")).
			Get("/exams/{examID}/eligibility", api.EligibilityHandler(examSvc))
		pr.With(rbac.Require("attempt:start")).
			Post("/exams/{examID}/start", api.StartExamHandler(examSvc, m))
		pr.With(rbac.Require("attempt:answer")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswerHandler(examSvc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitHandler(examSvc, m))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/answers", api.AttemptAnswersHandler(examSvc))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/student/results", api.MyResultsHandler(examSvc))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/student/exams/{examID}/result", api.MyExamResultHandler(examSvc))

		// Results (teacher)
		pr.With(rbac.Require("attempt:view-all")).
			Get("/exams/{examID}/results", api.ExamResultsHandler(examSvc))
		pr.With(rbac.Require("exam:export")).
			Get("/exams/{examID}/results/export", api.ExportResultsHandler(examSvc, rosterSvc))

		// Users (admin)
		pr.With(rbac.Require("users:manage")).
			Get("/users", api.ListUsersHandler(rosterSvc))
		pr.With(rbac.Require("users:manage")).
			Put("/users/{userID}", api.UpdateUserHandler(rosterSvc))
		pr.With(rbac.Require("users:manage")).
			Delete("/users/{userID}", api.DeleteUserHandler(rosterSvc))
	})

	// Background: finalize attempts of ended exams, sample pool stats.
	if cfg.SweepInterval > 0 {
		go examSvc.RunSweeper(ctx, cfg.SweepInterval, func(n int) {
			m.AttemptsExpired.Add(float64(n))
		})
	}
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.RecordDBStats(dbh.Stats())
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shCancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server")
	}
}
