package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/exam"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	"github.com/mind-engage/mindengage-quiz/internal/practice"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
	"github.com/mind-engage/mindengage-quiz/internal/transfer"
	"github.com/mind-engage/mindengage-quiz/internal/wrongbook"
)

// Deps is everything the router needs. cmd/quizd builds it from config;
// tests build it around an in-memory database.
type Deps struct {
	Config      config.Config
	DB          *sql.DB
	Auth        *auth.AuthService
	Credentials auth.CredentialStore
	Content     *content.Service
	Exams       *exam.Service
	Practice    *practice.Service
	Wrongbook   *wrongbook.Ledger
	Transfer    *transfer.Service
	Blobs       storage.BlobStore
	Events      *syncx.EventRepo
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(d.DB))
	if cfg.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}

	if cfg.EnableRegistration {
		r.Post("/auth/register", RegisterHandler(d.Auth, d.Credentials))
	}
	r.Post("/auth/login", LoginHandler(d.Auth, d.Credentials))

	// image urls end up in <img src>, so blobs are served without a token;
	// keys are random uuids
	if d.Blobs != nil {
		r.Route("/assets", func(ar chi.Router) { MountAssets(ar, d.Blobs) })
	}

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromDB(d.DB))

		pr.Get("/auth/me", MeHandler(d.Credentials))

		// quiz sets
		pr.With(rbac.Require("quizset:write")).Post("/quiz-sets", CreateQuizSetHandler(d.Content))
		pr.With(rbac.Require("quizset:read")).Get("/quiz-sets", ListQuizSetsHandler(d.Content))
		pr.With(rbac.Require("quizset:read")).Get("/quiz-sets/{setId}", GetQuizSetHandler(d.Content))
		pr.With(rbac.Require("quizset:write")).Put("/quiz-sets/{setId}", UpdateQuizSetHandler(d.Content))
		pr.With(rbac.Require("quizset:write")).Delete("/quiz-sets/{setId}", DeleteQuizSetHandler(d.Content))
		pr.With(rbac.Require("quizset:read")).Get("/quiz-sets/{setId}/stats", QuizSetStatsHandler(d.Content))

		// questions & tags
		pr.With(rbac.Require("question:read")).Get("/quiz-sets/{setId}/questions", ListQuestionsHandler(d.Content))
		pr.With(rbac.Require("question:write")).Post("/quiz-sets/{setId}/questions", CreateQuestionHandler(d.Content))
		pr.With(rbac.Require("question:read")).Get("/questions/{questionId}", GetQuestionHandler(d.Content))
		pr.With(rbac.Require("question:write")).Put("/questions/{questionId}", UpdateQuestionHandler(d.Content))
		pr.With(rbac.Require("question:write")).Delete("/questions/{questionId}", DeleteQuestionHandler(d.Content))
		pr.With(rbac.Require("question:read")).Get("/tags", ListTagsHandler(d.Content))
		pr.With(rbac.Require("question:write")).Post("/questions/{questionId}/tags", AddTagsHandler(d.Content))
		pr.With(rbac.Require("question:practice")).Post("/questions/{questionId}/submit", PracticeSubmitHandler(d.Practice))
		if d.Blobs != nil {
			pr.With(rbac.Require("asset:write")).Post("/questions/{questionId}/image", UploadQuestionImageHandler(d.Content, d.Blobs, maxUpload))
			pr.With(rbac.Require("asset:write")).Delete("/questions/{questionId}/image", DeleteQuestionImageHandler(d.Content, d.Blobs))
		}

		// exams
		pr.With(rbac.Require("exam:create")).Post("/quiz-sets/{setId}/exams", CreateExamHandler(d.Exams))
		pr.With(rbac.Require("exam:take")).Post("/exams/{examId}/start", StartExamHandler(d.Exams))
		pr.With(rbac.Require("exam:take")).Post("/exams/{examId}/submit", SubmitExamHandler(d.Exams))
		pr.With(rbac.RequireAny("exam:view-own", "exam:view-all")).Get("/exams/{examId}/results", ExamResultsHandler(d.Exams))
		pr.With(rbac.Require("exam:view-own")).Get("/exams", ListExamsHandler(d.Exams))

		// wrong-question book
		pr.Route("/wrong-questions", func(wr chi.Router) {
			wr.Use(rbac.Require("wrongbook:use"))
			wr.Get("/", ListWrongQuestionsHandler(d.Wrongbook))
			wr.Get("/stats", WrongQuestionStatsHandler(d.Wrongbook))
			wr.Get("/quiz-set/{setId}", ListWrongQuestionsBySetHandler(d.Wrongbook))
			wr.Post("/{questionId}", AddWrongQuestionHandler(d.Wrongbook))
			wr.Put("/{id}/master", MasterWrongQuestionHandler(d.Wrongbook))
			wr.Delete("/{id}", RemoveWrongQuestionHandler(d.Wrongbook))
		})

		// import / export
		pr.With(rbac.Require("transfer:export")).Get("/quiz-sets/{setId}/export/json", ExportJSONHandler(d.Transfer))
		pr.With(rbac.Require("transfer:export")).Get("/quiz-sets/{setId}/export/excel", ExportExcelHandler(d.Transfer))
		pr.With(rbac.Require("transfer:import")).Post("/quiz-sets/{setId}/import/json", ImportJSONHandler(d.Transfer, maxUpload))
		pr.With(rbac.Require("transfer:import")).Post("/quiz-sets/{setId}/import/excel", ImportExcelHandler(d.Transfer, maxUpload))

		// admin
		pr.With(rbac.Require("exam:overdue")).Get("/admin/exams/overdue", OverdueExamsHandler(d.Exams))
		if d.Events != nil {
			pr.With(rbac.Require("events:read")).Get("/admin/events", EventsSinceHandler(d.Events))
		}
	})

	return r
}
