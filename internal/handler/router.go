package handler

import (
	"net/http"
	"time"

	"feedback-be/internal/middleware"
	"feedback-be/internal/service"
	apperrors "feedback-be/pkg/errors"
	"feedback-be/pkg/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries what the HTTP surface needs
type RouterConfig struct {
	Services       *service.Services
	Health         HealthChecker
	Logger         *logger.Logger
	AllowedOrigins []string
	Timeout        time.Duration
}

// NewRouter configures and returns the HTTP router
func NewRouter(cfg RouterConfig) *chi.Mux {
	log := cfg.Logger
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.RequestID())
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(chiMiddleware.Timeout(cfg.Timeout))

	healthHandler := NewHealthHandler(cfg.Health, log)
	pollHandler := NewPollHandler(cfg.Services.Polls, log)
	responseHandler := NewResponseHandler(cfg.Services.Responses, log)
	reportHandler := NewReportHandler(cfg.Services.Reports, log)
	meHandler := NewMeHandler(cfg.Services.Respondents, log)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Services.Auth, log))

		r.Get("/me", meHandler.Get)

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.List)
			r.Post("/", pollHandler.Create)
			r.Post("/lesson", pollHandler.CreateFromLesson)

			r.Route("/{pollID}", func(r chi.Router) {
				r.Get("/", pollHandler.Get)
				r.Delete("/", pollHandler.Delete)
				r.Patch("/status", pollHandler.UpdateStatus)
				r.Post("/responses", responseHandler.Submit)
				r.Get("/responses/me", responseHandler.GetMine)
			})
		})

		r.Get("/reports/aggregate", reportHandler.Aggregate)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperrors.Write(w, apperrors.NewNotFoundError("Endpoint not found"), middleware.RequestIDFromContext(r.Context()))
	})

	return r
}
