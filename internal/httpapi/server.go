package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"formalizer/internal/rewrite"
	"formalizer/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Rewrite(ctx context.Context, req rewrite.Request) (rewrite.Result, error)
}

// NewMux builds the router. Only GET /health and POST /generate exist; other
// methods on those paths get 405 and every other path 404, both as JSON.
// modelID is reported by /health and never changes afterwards.
func NewMux(svc Service, modelID string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	health := types.NewHealth(modelID)
	r.Get("/health", handleHealth(health))
	r.Post("/generate", handleGenerate(svc))

	MountSwagger(r)
	return r
}

// handleHealth reports service identity.
//
// @Summary      Service health
// @Description  Static status and model identifier, independent of engine state.
// @Tags         service
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /health [get]
func handleHealth(health types.HealthResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, health)
	}
}

// handleGenerate rewrites the given text in a formal register.
//
// @Summary      Rewrite text formally
// @Description  Wraps inputs in the fixed instruction prompt and returns the engine's rewrite.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Param        request  body      types.GenerateRequest  true  "Text to rewrite"
// @Success      200      {object}  types.GenerateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      413      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /generate [post]
func handleGenerate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				logGenerateEnd(r, lvl, http.StatusRequestEntityTooLarge, start, err)
				return
			}
			writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			logGenerateEnd(r, lvl, http.StatusBadRequest, start, err)
			return
		}

		req, err := rewrite.ParseRequest(body)
		if err != nil {
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			logGenerateEnd(r, lvl, status, start, err)
			return
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res, err := svc.Rewrite(ctx, req)
		if err != nil {
			// Client went away; nobody is left to read the reply.
			if r.Context().Err() != nil {
				return
			}
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			logGenerateEnd(r, lvl, status, start, err)
			return
		}
		writeJSON(w, http.StatusOK, types.GenerateResponse{GeneratedText: res.GeneratedText})
		logGenerateEnd(r, lvl, http.StatusOK, start, nil)
	}
}
