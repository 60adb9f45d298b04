package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain"
	"ai-generation-platform/internal/infra/logging"
	red "ai-generation-platform/internal/infra/redis"
	"ai-generation-platform/internal/usecase"
)

// RateLimiter is what the generate routes need from the limiter; the Redis
// implementation satisfies it, tests use an in-memory one.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	genUC     usecase.GenerationUseCase
	creditsUC usecase.CreditsUseCase
	auth      *AuthManager
	limiter   RateLimiter
	rateLimit int
	devMode   bool
	log       *zerolog.Logger
}

func NewServer(
	genUC usecase.GenerationUseCase,
	creditsUC usecase.CreditsUseCase,
	auth *AuthManager,
	limiter RateLimiter,
	rateLimitPerMin int,
	devMode bool,
	logger *zerolog.Logger,
) *Server {
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 10
	}
	return &Server{
		genUC:     genUC,
		creditsUC: creditsUC,
		auth:      auth,
		limiter:   limiter,
		rateLimit: rateLimitPerMin,
		devMode:   devMode,
		log:       logger,
	}
}

// RegisterRoutes attaches the API to the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.devMode {
		// Mints a session without an identity provider. Never mounted in prod.
		r.Post("/api/v1/auth/dev-session", s.handleDevSession)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/generate/video/{vendor}", s.handleGenerateVideo)
			r.Post("/generate/image/{target}", s.handleGenerateImage)
		})

		r.Get("/generations", s.handleListGenerations)
		r.Get("/generations/tasks/{model}/{taskID}", s.handleTaskStatus)
		r.Get("/credits/balance", s.handleBalance)
	})
}

type ctxClaimsKey struct{}

func claimsFrom(ctx context.Context) *AccountClaims {
	c, _ := ctx.Value(ctxClaimsKey{}).(*AccountClaims)
	return c
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), ctxClaimsKey{}, claims)
		ctx = logging.WithAccountID(ctx, claims.AccountID)
		ctx = logging.WithTraceID(ctx, uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		ok, err := s.limiter.Allow(r.Context(), red.AccountGenerateKey(claims.AccountID), s.rateLimit, time.Minute)
		if err != nil {
			// A broken limiter must not take generation down with it.
			s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			ok = true
		}
		if !ok {
			writeError(w, http.StatusTooManyRequests, "Too many generation requests. Please wait a minute and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDevSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Role      string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}
	token, err := s.auth.Mint(w, req.AccountID, req.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusForDomainError maps request-shape failures onto HTTP codes.
func statusForDomainError(err error) int {
	switch err {
	case domain.ErrInvalidArgument, domain.ErrUnsupportedModel, domain.ErrMissingSourceImage:
		return http.StatusBadRequest
	case domain.ErrInsufficientCredits:
		return http.StatusPaymentRequired
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrVendorNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
