package listapi

import (
	"expvar"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Paths served by the router.
const (
	PathList   = "/api/list"
	PathLegacy = "/api.php"
	PathHealth = "/healthz"
	PathMetric = "/metrics"
	PathVars   = "/debug/vars"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger *slog.Logger
	// AllowedOrigins for CORS; empty allows every origin.
	AllowedOrigins []string
	// Gatherer enables /metrics and /debug/vars when non-nil.
	Gatherer prometheus.Gatherer
}

// NewRouter mounts the list handler and operational endpoints behind request
// id, access log and CORS middleware.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := mux.NewRouter()
	r.Use(requestID, accessLog(logger))

	r.Path(PathList).Handler(h)
	r.Path(PathLegacy).Handler(h)
	r.Methods(http.MethodGet, http.MethodHead).Path(PathHealth).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if opts.Gatherer != nil {
		r.Methods(http.MethodGet).Path(PathMetric).Handler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
		r.Methods(http.MethodGet).Path(PathVars).Handler(expvar.Handler())
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(r)
}
