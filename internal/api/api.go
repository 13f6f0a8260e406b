package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mdgate/internal/config"
	"mdgate/internal/convert"
	"mdgate/internal/metrics"
)

type Dependencies struct {
	Config    config.Settings
	Converter *convert.Handle
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

func New(dep Dependencies) http.Handler {
	s := &server{
		cfg:          dep.Config,
		converter:    dep.Converter,
		metrics:      dep.Metrics,
		logger:       dep.Logger,
		convertLimit: newRequestLimiter(dep.Config.MaxConcurrent),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observeRequests)
	r.Use(s.recoverPanics)
	// Compress handles the Content-Encoding negotiation for compressed-mode
	// responses; clients without gzip support get the identity body.
	r.Use(middleware.Compress(5, "text/markdown", "text/plain", "application/json"))
	r.Use(securityHeaders)
	if len(dep.Config.CORSOrigins) > 0 {
		r.Use(corsMiddleware(dep.Config.CORSOrigins))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/convert", s.handleConvert)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		specPath, ok := findOpenAPISpecPath()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		http.ServeFile(w, r, specPath)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("mdgate is running\n\nPOST /api/convert with a multipart \"file\" part to receive Markdown.\n"))
	})

	return r
}

func findOpenAPISpecPath() (string, bool) {
	candidates := []string{"openapi.yml", "../openapi.yml"}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
