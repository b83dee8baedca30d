package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/learnloop/learnloop-lms/internal/api/http"
	"github.com/learnloop/learnloop-lms/internal/assess"
	auth "github.com/learnloop/learnloop-lms/internal/auth/middleware"
	"github.com/learnloop/learnloop-lms/internal/config"
	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/db"
	"github.com/learnloop/learnloop-lms/internal/gating"
	"github.com/learnloop/learnloop-lms/internal/rbac"
	"github.com/learnloop/learnloop-lms/internal/reporting"
	"github.com/learnloop/learnloop-lms/internal/review"
	"github.com/learnloop/learnloop-lms/internal/storage"
	syncx "github.com/learnloop/learnloop-lms/internal/sync"
	"github.com/learnloop/learnloop-lms/internal/users"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	courses := course.NewSQLStore(dbh)
	attempts := assess.NewSQLAttempts(dbh)
	results := reporting.NewSQLStore(dbh)
	dir := users.NewSQLStore(dbh)
	subs := review.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)

	if err := seedAdmin(ctx, dir, cfg); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	recorder := assess.NewRecorder(courses, attempts, results, dir, events, cfg.PassPercent)
	resolver := gating.NewResolver(attempts, subs)
	reviews := review.NewService(courses, subs, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dir))

	// Protected API (JWT -> directory role -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDirectory(dir, cfg.Mode == config.ModeOffline))

		pr.Route("/assets", func(ar chi.Router) {
			ar.Use(rbac.Require("asset:upload"))
			api.MountAssets(ar, bs)
		})

		// Learner surface
		pr.With(rbac.Require("lesson:view")).
			Get("/courses", api.ListCoursesHandler(courses))
		pr.With(rbac.Require("lesson:view")).
			Get("/courses/{courseID}/lessons/{lessonID}", api.GetLessonHandler(courses, resolver))

		pr.With(rbac.Require("attempt:create")).
			Post("/courses/{courseID}/lessons/{lessonID}/trainings/{assessmentID}/submit", api.SubmitTrainingHandler(recorder))
		pr.With(rbac.Require("attempt:create")).
			Post("/courses/{courseID}/lessons/{lessonID}/exams/{assessmentID}/submit", api.SubmitExamHandler(recorder))
		pr.With(rbac.Require("attempt:create")).
			Post("/courses/{courseID}/lessons/{lessonID}/entry/submit", api.SubmitEntryHandler(recorder))
		pr.With(rbac.Require("task:submit")).
			Post("/courses/{courseID}/lessons/{lessonID}/entry/task", api.SubmitEntryTaskHandler(reviews))

		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/courses/{courseID}/lessons/{lessonID}/assessments/{assessmentID}/attempts", api.ListAttemptsHandler(attempts))

		pr.With(rbac.Require("user:change_password")).
			Post("/users/me/password", api.ChangePasswordHandler(dir))

		// Admin surface
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("*"))

			ar.Post("/admin/courses", api.CreateCourseHandler(courses))
			ar.Get("/admin/courses/{courseID}", api.GetCourseAdminHandler(courses))
			ar.Put("/admin/courses/{courseID}/structure", api.PutCourseStructureHandler(courses))
			ar.Delete("/admin/courses/{courseID}", api.DeleteCourseHandler(courses))

			ar.Post("/admin/courses/{courseID}/lessons/{lessonID}/assessments/{assessmentID}/clear", api.ClearAttemptsHandler(recorder))
			ar.Post("/admin/reports/rebuild", api.RebuildResultsHandler(recorder))

			ar.Get("/admin/entry-tasks", api.ListPendingTasksHandler(reviews))
			ar.Post("/admin/courses/{courseID}/lessons/{lessonID}/entry-tasks/{userID}/review", api.ReviewEntryTaskHandler(reviews))

			ar.Get("/reports/stats", api.ExamStatsHandler(results))
			ar.Get("/reports/results", api.ListResultsHandler(results))
			ar.Get("/reports/top-active", api.TopActiveHandler(results))
			ar.Get("/reports/top-performers", api.TopPerformersHandler(results, cfg.TopPerformerMinAttempts))

			ar.Post("/admin/users/bulk", api.BulkUpsertUsersHandler(dir))
			ar.Get("/admin/users", api.ListUsersHandler(dir))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedAdmin guarantees a usable admin login on first boot. An existing
// admin row is left untouched so password changes survive restarts.
func seedAdmin(ctx context.Context, dir users.Store, cfg config.Config) error {
	_, err := dir.GetByUsername(ctx, cfg.AdminUser)
	if err == nil {
		return nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return err
	}
	return dir.Upsert(ctx, users.User{
		ID:       "admin",
		Username: cfg.AdminUser,
		Name:     "Administrator",
		Role:     "admin",
		PassHash: cfg.AdminPassHash,
	})
}
