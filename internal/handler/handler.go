// Package handler exposes the document service over HTTP.
//
// Routes:
//
//	POST /docservice/:key                  store a new version
//	GET  /docservice/:key/:id/html         one version, or every version when id is "all"
//	GET  /docservice/:key/:id/links        links of one version
//	GET  /docservice/:key/:id/references   references of one version
//	GET  /healthz                          backend reachability
//	GET  /debug/stats                      per-operation counters and latency
//
// Stored versions are immutable, so PUT, PATCH and DELETE are not routed.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/xtxerr/docservice/internal/docservice"
	"github.com/xtxerr/docservice/internal/logging"
	"github.com/xtxerr/docservice/internal/stats"
)

var log = logging.Component("handler")

const (
	headerRequestID = "X-Request-Id"

	// allVersions in place of a version id selects every version of the key.
	allVersions = "all"
)

// Service is the document service as seen by the transport.
type Service interface {
	Submit(ctx context.Context, key string, sub docservice.Submission) (docservice.SubmitResult, error)
	GetVersion(ctx context.Context, key, id string) (docservice.Version, error)
	GetAllVersions(ctx context.Context, key string) (docservice.VersionList, error)
	GetLinks(ctx context.Context, key, id string) (docservice.LinkList, error)
	GetReferences(ctx context.Context, key, id string) (docservice.ReferenceList, error)
	Health(ctx context.Context) error
}

// Config holds handler settings.
type Config struct {
	// MaxBodyBytes caps POST bodies. Zero or less disables the cap.
	MaxBodyBytes int64

	// Stats backs /debug/stats. Nil disables the route.
	Stats *stats.Recorder
}

// Handler routes HTTP requests to the service.
type Handler struct {
	svc    Service
	cfg    Config
	router *httprouter.Router
}

// New creates a handler with all routes registered.
func New(svc Service, cfg Config) *Handler {
	h := &Handler{svc: svc, cfg: cfg}

	router := httprouter.New()
	router.POST("/docservice/:key", h.submit)
	router.GET("/docservice/:key/:id/html", h.getHTML)
	router.GET("/docservice/:key/:id/links", h.getLinks)
	router.GET("/docservice/:key/:id/references", h.getReferences)
	router.GET("/healthz", h.health)
	if cfg.Stats != nil {
		router.GET("/debug/stats", h.debugStats)
	}

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRouteNotFound)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		logWith(r).Error("handler panic", "panic", v)
		writeError(w, r, errPanic)
	}

	h.router = router
	return h
}

// ServeHTTP assigns a request id, dispatches the request and logs the
// outcome.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(headerRequestID, requestID)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), requestID))

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.router.ServeHTTP(rec, r)

	logWith(r).Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start))
}

func logWith(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context()).With("component", "handler")
}

// statusRecorder remembers the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// =============================================================================
// Document Routes
// =============================================================================

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")
	ctx := logging.ContextWithDocKey(r.Context(), key)

	sub, err := h.decodeSubmission(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Submit(ctx, key, sub)
	if err != nil {
		writeError(w, r.WithContext(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) decodeSubmission(w http.ResponseWriter, r *http.Request) (docservice.Submission, error) {
	var sub docservice.Submission

	body := r.Body
	if h.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}

	dec := json.NewDecoder(body)
	if err := dec.Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return sub, ErrBodyTooLarge(tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return sub, ErrInvalidBody(errors.New("empty body"))
		default:
			return sub, ErrInvalidBody(err)
		}
	}
	return sub, nil
}

func (h *Handler) getHTML(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key, id := ps.ByName("key"), ps.ByName("id")
	ctx := logging.ContextWithDocKey(r.Context(), key)

	var (
		res any
		err error
	)
	if id == allVersions {
		res, err = h.svc.GetAllVersions(ctx, key)
	} else {
		res, err = h.svc.GetVersion(ctx, key, id)
	}
	respond(w, r.WithContext(ctx), res, err)
}

func (h *Handler) getLinks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")
	ctx := logging.ContextWithDocKey(r.Context(), key)

	res, err := h.svc.GetLinks(ctx, key, ps.ByName("id"))
	respond(w, r.WithContext(ctx), res, err)
}

func (h *Handler) getReferences(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")
	ctx := logging.ContextWithDocKey(r.Context(), key)

	res, err := h.svc.GetReferences(ctx, key, ps.ByName("id"))
	respond(w, r.WithContext(ctx), res, err)
}

func respond(w http.ResponseWriter, r *http.Request, res any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// Operational Routes
// =============================================================================

// HealthStatus is the body of /healthz.
type HealthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.svc.Health(r.Context()); err != nil {
		logWith(r).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthStatus{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthStatus{Status: "ok"})
}

func (h *Handler) debugStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.cfg.Stats.Snapshot())
}
