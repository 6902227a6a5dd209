package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/wheelscan/go-wheel-trainer/internal/handlers"
	"github.com/wheelscan/go-wheel-trainer/internal/health"
	"github.com/wheelscan/go-wheel-trainer/internal/middleware"
	"github.com/wheelscan/go-wheel-trainer/internal/monitoring"
)

// Options selects the optional parts of the route table.
type Options struct {
	CORSAllowOrigin string
	EnablePprof     bool
}

// SetupRoutes configures all routes for the application
func SetupRoutes(apiHandlers *handlers.APIHandlers, healthChecker *health.HealthChecker, opts Options) http.Handler {
	mux := http.NewServeMux()

	// Training endpoints used by the capture UI, plus versioned aliases
	mux.HandleFunc("POST /train", apiHandlers.TrainHandler)
	mux.HandleFunc("POST /v1/train", apiHandlers.TrainHandler)
	mux.HandleFunc("POST /clear", apiHandlers.ClearHandler)
	mux.HandleFunc("POST /v1/tags/clear", apiHandlers.ClearHandler)
	mux.HandleFunc("GET /v1/tags", apiHandlers.TagsHandler)
	mux.HandleFunc("GET /v1/runs", apiHandlers.RunsHandler)
	mux.HandleFunc("GET /v1/runs/{id}", apiHandlers.RunHandler)

	mux.Handle("GET /health", health.HealthHandler(healthChecker))
	mux.HandleFunc("GET /metrics", apiHandlers.Metrics.Handler)

	if opts.EnablePprof {
		monitoring.SetupPprofRoutes(mux)
	}

	// Serve Swagger UI with proper configuration
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // The URL pointing to API definition
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Metrics sits closest to the mux so it sees the matched pattern.
	var handler http.Handler = apiHandlers.Metrics.Middleware(mux)
	handler = middleware.RequestCorrelationMiddleware(handler)
	return middleware.CORSMiddleware(opts.CORSAllowOrigin)(handler)
}
