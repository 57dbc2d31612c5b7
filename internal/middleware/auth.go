package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/service"
	"feedback-be/pkg/errors"
	"feedback-be/pkg/logger"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// ProfileContextKey is the key for the respondent profile in context
	ProfileContextKey ContextKey = "profile"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// Auth creates an authentication middleware
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			ctx := r.Context()
			profile, err := authService.ValidateToken(ctx, token)
			if err != nil {
				logger.WithError(err).Warn("Token validation failed")
				writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx = context.WithValue(ctx, ProfileContextKey, profile)
			logger.WithFields(map[string]interface{}{
				"respondent_id": profile.ID,
				"role":          profile.Role,
			}).Debug("Respondent authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFromContext returns the authenticated respondent profile
func ProfileFromContext(ctx context.Context) (*domain.RespondentProfile, bool) {
	profile, ok := ctx.Value(ProfileContextKey).(*domain.RespondentProfile)
	return profile, ok && profile != nil
}

// WithProfile stores a profile in the context
func WithProfile(ctx context.Context, profile *domain.RespondentProfile) context.Context {
	return context.WithValue(ctx, ProfileContextKey, profile)
}

// RequestID creates a middleware that adds a unique request ID to each request.
// A client-supplied X-Request-ID is kept.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request id, or "" outside a request
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// Logging logs one line per request with status and duration
func Logging(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			entry := logger.WithFields(map[string]interface{}{
				"request_id":  RequestIDFromContext(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				entry.Error("Request failed")
			case r.URL.Path == "/health":
				entry.Debug("Request handled")
			default:
				entry.Info("Request handled")
			}
		})
	}
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithFields(map[string]interface{}{
		"path": r.URL.Path,
		"type": appErr.Type,
	}).Debug("Request rejected")
	errors.Write(w, appErr, RequestIDFromContext(r.Context()))
}
