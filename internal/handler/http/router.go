package http

import (
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string
}

func NewRouter(
	JWTService jwt.Service,
	opts RouterOptions,
	attendanceHandler AttendanceHandler,
	correctionHandler CorrectionHandler,
	leaveHandler LeaveHandler,
) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication and a manager or owner role
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireManager)

			r.Route("/attendance", func(r chi.Router) {
				r.Route("/calculations", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendanceRecalculate)).
						Post("/", attendanceHandler.TriggerCalculation)
					r.Get("/{batchID}", attendanceHandler.GetBatchStatus)
				})

				r.Route("/daily-records", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).
						Get("/", attendanceHandler.ListDailyRecords)
					r.With(middleware.RequirePermission(user.PermissionAttendanceRecalculate)).
						Post("/recalculate", attendanceHandler.RecalculateDay)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCorrect)).
						Post("/{recordID}/corrections", correctionHandler.Create)
				})

				r.Route("/corrections/{correctionID}", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCorrect))
					r.Put("/", correctionHandler.Update)
					r.Delete("/", correctionHandler.Delete)
				})
			})

			r.Route("/leaves/{leaveID}", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionLeaveManage))
				r.Put("/", leaveHandler.UpdateApproved)
				r.Delete("/", leaveHandler.Delete)
				r.Post("/cancel", leaveHandler.Cancel)
			})
		})
	})
	return r
}
