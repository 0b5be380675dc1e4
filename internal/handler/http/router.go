package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/cmlabs-hris/ops-portal/internal/handler/http/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// NewLogger returns the JSON logger shared by the request logger and the
// process default.
func NewLogger(env string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "ops-portal"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Metrics serves the prometheus registry; nil disables /metrics
	Metrics http.Handler
}

func NewRouter(
	tokenAuth *jwtauth.JWTAuth,
	opts RouterOptions,
	attendanceHandler AttendanceHandler,
	officeHandler OfficeHandler,
	fileHandler FileHandler,
	healthHandler HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", healthHandler.Check)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	// Signed links carry their own token; no bearer auth here
	r.Get("/files/attendance/*", fileHandler.ServeAttendancePhoto)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentEncoding("application/json"))

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(middleware.AuthRequired(tokenAuth))

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
					r.Post("/check-in", attendanceHandler.CheckIn)
					r.Post("/check-out", attendanceHandler.CheckOut)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/today", attendanceHandler.Today)
					r.Get("/my", attendanceHandler.GetMyAttendance)
					r.Get("/{id}", attendanceHandler.Get)
					r.Get("/{id}/photo-url", attendanceHandler.PhotoURL)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", attendanceHandler.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceReview))
					r.Post("/{id}/approve", attendanceHandler.Approve)
					r.Post("/{id}/reject", attendanceHandler.Reject)
				})
			})

			r.Route("/office", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionOfficeView)).Get("/", officeHandler.Get)
				r.With(middleware.RequirePermission(user.PermissionOfficeManage)).Put("/", officeHandler.Update)
			})
		})
	})
	return r
}
