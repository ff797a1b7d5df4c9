package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/clearline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// debugPreviewLength bounds the intermediate text echoed in debug output.
const debugPreviewLength = 500

// DefaultTimeout bounds one shared diagnosis, including every LLM call.
const DefaultTimeout = 90 * time.Second

// maxTrackedClients bounds the per-client limiter table. When full it is
// reset, which briefly forgives every client.
const maxTrackedClients = 10000

// Handler serves the diagnostic HTTP API.
//
//	POST /api/ai-preview  {"productUrl": "..."}
//	GET  /healthz
//	GET  /metrics         (when a metrics handler is configured)
type Handler struct {
	diagnoser clearline.Diagnoser
	logger    *slog.Logger
	router    chi.Router

	debug   bool
	metrics http.Handler
	timeout time.Duration

	// Per-client limiting. A nil limits map disables it.
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	rps    float64
	burst  int

	// Concurrent requests for the same URL share one pipeline run.
	group singleflight.Group
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithDebug includes the extracted signals and the first characters of the
// normalized and filtered content in successful responses.
func WithDebug(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.debug = enabled
	}
}

// WithRateLimit limits each client address to rps diagnose requests per
// second with the given burst.
func WithRateLimit(rps float64, burst int) HandlerOption {
	return func(h *Handler) {
		h.limits = make(map[string]*rate.Limiter)
		h.rps = rps
		h.burst = burst
	}
}

// WithDiagnoseTimeout bounds each diagnosis run. Non-positive values are ignored.
func WithDiagnoseTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithMetrics serves metricsHandler at /metrics.
func WithMetrics(metricsHandler http.Handler) HandlerOption {
	return func(h *Handler) {
		h.metrics = metricsHandler
	}
}

// NewHandler creates a new Handler backed by diagnoser.
func NewHandler(diagnoser clearline.Diagnoser, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		diagnoser: diagnoser,
		logger:    logger,
		timeout:   DefaultTimeout,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Get("/healthz", h.handleHealth)
	r.Post("/api/ai-preview", h.handlePreview)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	h.router = r

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// PreviewRequest is the body of POST /api/ai-preview.
type PreviewRequest struct {
	ProductURL string `json:"productUrl"`
}

// PreviewResponse is the successful response of POST /api/ai-preview.
type PreviewResponse struct {
	*clearline.DiagnosticResponse
	Debug *PreviewDebug `json:"_debug,omitempty"`
}

// PreviewDebug exposes intermediate pipeline stages.
type PreviewDebug struct {
	ExtractedSignals  *clearline.ProductSignals `json:"extractedSignals"`
	NormalizedContent string                    `json:"normalizedContent"`
	FilteredContent   string                    `json:"filteredContent"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r) {
		respondError(w, http.StatusTooManyRequests, "Too many requests, please try again shortly")
		return
	}

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductURL == "" {
		respondError(w, http.StatusBadRequest, "Product URL is required")
		return
	}

	// The shared run outlives whichever caller started it but not the
	// handler timeout. Each waiter gives up independently when its client
	// goes away.
	ch := h.group.DoChan(req.ProductURL, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
		defer cancel()
		return h.diagnoser.Diagnose(ctx, req.ProductURL)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-r.Context().Done():
		h.logger.Info("client gone before diagnosis finished", "url", req.ProductURL)
		return
	}
	v, err, shared := res.Val, res.Err, res.Shared

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("clearline.product_url", req.ProductURL),
		attribute.Bool("clearline.shared", shared),
	)
	if err != nil {
		span.SetAttributes(attribute.String("clearline.error_code", clearline.ErrorCode(err)))
		span.SetStatus(codes.Error, clearline.ErrorMessage(err))
		h.logger.Warn("diagnose failed",
			"url", req.ProductURL,
			"code", clearline.ErrorCode(err),
			"err", err,
		)
		respondError(w, statusFor(err), messageFor(err))
		return
	}

	d := v.(*clearline.Diagnosis)
	span.SetAttributes(attribute.String("clearline.risk_level", string(d.Response.RiskLevel)))
	resp := PreviewResponse{DiagnosticResponse: d.Response}
	if h.debug {
		resp.Debug = &PreviewDebug{
			ExtractedSignals:  d.Signals,
			NormalizedContent: preview(d.NormalizedContent),
			FilteredContent:   preview(d.FilteredContent),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// allow reports whether the client may issue another diagnose request.
func (h *Handler) allow(r *http.Request) bool {
	if h.limits == nil {
		return true
	}

	client := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		client = host
	}

	h.mu.Lock()
	limiter, ok := h.limits[client]
	if !ok {
		if len(h.limits) >= maxTrackedClients {
			clear(h.limits)
		}
		limiter = rate.NewLimiter(rate.Limit(h.rps), h.burst)
		h.limits[client] = limiter
	}
	h.mu.Unlock()

	return limiter.Allow()
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func(begin time.Time) {
			h.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(begin),
			)
		}(time.Now())
		next.ServeHTTP(ww, r)
	})
}

// statusFor maps application error codes to HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch clearline.ErrorCode(err) {
	case clearline.EINVALID, clearline.EFETCH, clearline.EINSUFFICIENT:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Analysis took too long, please try again"
	}
	if clearline.ErrorCode(err) == clearline.EINTERNAL {
		return "An error occurred while analyzing the product page"
	}
	return clearline.ErrorMessage(err)
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= debugPreviewLength {
		return s
	}
	return string([]rune(s)[:debugPreviewLength]) + "..."
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
