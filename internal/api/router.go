package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gradfinder.dev/gradfinder/internal/logger"
)

// corsHeaders is advertised on bare OPTIONS requests. Preflights get every
// requested header echoed back.
const corsHeaders = "authorization, x-client-info, apikey, content-type"

// corsOptions allows any origin and any request header, as the browser UI
// calls the API directly.
var corsOptions = cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"*"},
	MaxAge:         300,
}

func NewRouter(apiHandler *APIHandler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))      // Structured request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(corsOptions))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		// Workflows
		r.Post("/search-programs", apiHandler.SearchProgramsHandler)
		r.Options("/search-programs", optionsHandler)
		r.Post("/generate-summary", apiHandler.GenerateSummaryHandler)
		r.Options("/generate-summary", optionsHandler)

		// Stored programs
		r.Get("/programs", apiHandler.ListProgramsHandler)
		r.Get("/programs/{programID}", apiHandler.GetProgramHandler)
	})

	return r
}

// optionsHandler answers bare OPTIONS requests. Real preflights (with
// Access-Control-Request-Method) are handled by the cors middleware and
// never get here.
func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
	w.WriteHeader(http.StatusOK)
}

// requestLogger logs one line per request through zap, in place of chi's
// stdlib-backed middleware.Logger.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	reqLog := log.With("service", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				reqLog.Info("Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
