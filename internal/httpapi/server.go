package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mlxd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Complete(ctx context.Context, req types.CompletionRequest, send func(types.CompletionEvent) error) error
	Load(ctx context.Context, model string) error
	Embed(ctx context.Context, texts []string) ([][]float32, string, error)
	Health() types.HealthResponse
	Info() types.InfoResponse
	Models(ctx context.Context) ([]types.ModelInfo, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints; NDJSON is not in the default type list
	// so streamed completions stay uncompressed and flushable.
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/completion", func(w http.ResponseWriter, r *http.Request) {
		handleCompletion(svc, w, r)
	})

	r.Post("/load", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		if err := svc.Load(joinedCtx, req.Model); err != nil {
			writeServiceError(w, err)
			logRequest(r, "load end", statusOf(err), start, err)
			return
		}
		logRequest(r, "load end", http.StatusOK, start, nil)
		writeJSON(w, types.LoadResponse{Status: "loaded", Model: req.Model})
	})

	r.Post("/embedding", func(w http.ResponseWriter, r *http.Request) {
		var req types.EmbeddingRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		vecs, model, err := svc.Embed(joinedCtx, req.Input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, types.EmbeddingResponse{Embeddings: vecs, Model: model})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Health())
	})

	r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Info())
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.Models(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, types.ModelsResponse{Models: models})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleCompletion streams NDJSON events. Headers are written lazily on the
// first event so errors raised before any output still get a proper JSON
// error status; once a line is on the wire the status is committed and
// failures can only end the stream.
func handleCompletion(svc Service, w http.ResponseWriter, r *http.Request) {
	var req types.CompletionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	enc := json.NewEncoder(w)
	sent := false
	send := func(ev types.CompletionEvent) error {
		if !sent {
			w.Header().Set("Content-Type", "application/x-ndjson")
			sent = true
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if lvl >= LevelDebug {
			logCompletionEvent(ev)
		}
		if flush != nil {
			flush()
		}
		return nil
	}

	logRequest(r, "completion start", 0, start, nil)

	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if err := svc.Complete(joinedCtx, req, send); err != nil {
		// Client disconnect or shutdown: nothing sensible left to write.
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		if sent {
			// Status already committed mid-stream; the terminal error event
			// protocol has handled engine failures, anything else ends here.
			logRequest(r, "completion end", http.StatusOK, start, err)
			return
		}
		writeServiceError(w, err)
		logRequest(r, "completion end", statusOf(err), start, err)
		return
	}
	logRequest(r, "completion end", http.StatusOK, start, nil)
}

// decodeJSONBody enforces content type and the body size cap, reporting
// failures itself. Returns false when the request was already answered.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// Oversized bodies also land here; avoid leaking size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps a service error onto its HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
