// Package api exposes the info and download actions over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"tubemerge/internal/logging"
)

// Options configures the router.
type Options struct {
	OutDir         string
	PublicBaseURL  string
	RequestTimeout time.Duration
	DownloadRate   float64 // merges per second; 0 disables limiting
	DownloadBurst  int
	Logger         *slog.Logger
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(svc Service, opts Options) *chi.Mux {
	logger := logging.Component(opts.Logger, "api")

	var limiter *rate.Limiter
	if opts.DownloadRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.DownloadRate), max(opts.DownloadBurst, 1))
	}
	h := NewHandler(svc, limiter, logger)

	r := chi.NewRouter()
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/healthz", h.Health)
	r.Post("/download/", h.Download)
	r.Post("/download", h.Download)

	if prefix := MediaPrefix(opts.PublicBaseURL); prefix != "" && opts.OutDir != "" {
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.OutDir)))
		r.Get(prefix+"*", func(w http.ResponseWriter, r *http.Request) {
			// Directory listings are not served.
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	return r
}

// MediaPrefix returns the route prefix under which merged files are served,
// with a trailing slash, or "" when the public base does not map to a path
// this server can own.
func MediaPrefix(publicBaseURL string) string {
	u, err := url.Parse(publicBaseURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
