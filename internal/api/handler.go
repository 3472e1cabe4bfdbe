package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/mro/internal/config"
	"github.com/gyaneshwarpardhi/mro/internal/engine"
	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
	"github.com/gyaneshwarpardhi/mro/internal/metrics"
)

const (
	maxBatchSize  = 100
	batchParallel = 8
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
// loader may be nil, in which case reloads are rejected.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/linearize", h.linearize)
	h.mux.HandleFunc("POST /v1/linearize/batch", h.linearizeBatch)
	h.mux.HandleFunc("POST /v1/dispatch", h.dispatch)
	h.mux.HandleFunc("GET /v1/classes", h.listClasses)
	h.mux.HandleFunc("GET /v1/classes/{name}/mro", h.classMRO)
	h.mux.HandleFunc("POST /v1/hierarchy/reload", h.reload)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

type linearizeRequest struct {
	Class string `json:"class"`
}

// POST /v1/linearize — resolution order of one class.
func (h *Handler) linearize(w http.ResponseWriter, r *http.Request) {
	var req linearizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Class == "" {
		writeError(w, http.StatusBadRequest, "class is required")
		return
	}
	h.serveLinearize(w, r, req.Class)
}

// GET /v1/classes/{name}/mro — same as POST /v1/linearize.
func (h *Handler) classMRO(w http.ResponseWriter, r *http.Request) {
	h.serveLinearize(w, r, r.PathValue("name"))
}

func (h *Handler) serveLinearize(w http.ResponseWriter, r *http.Request, class string) {
	res, err := h.eng.Linearize(r.Context(), class)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	Classes []string `json:"classes"`
}

type batchItem struct {
	Class string                  `json:"class"`
	MRO   hierarchy.Linearization `json:"mro,omitempty"`
	Error *errorResponse          `json:"error,omitempty"`
}

// POST /v1/linearize/batch — up to 100 classes, resolved concurrently.
func (h *Handler) linearizeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.Classes) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one class")
		return
	}
	if len(req.Classes) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(req.Classes), maxBatchSize))
		return
	}

	items := make([]batchItem, len(req.Classes))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchParallel)
	for i, class := range req.Classes {
		g.Go(func() error {
			items[i].Class = class
			res, err := h.eng.Linearize(ctx, class)
			if err != nil {
				_, body := errorBody(err)
				items[i].Error = &body
				return nil
			}
			items[i].MRO = res.MRO
			return nil
		})
	}
	_ = g.Wait() // per-item errors are reported inline

	failed := 0
	for _, it := range items {
		if it.Error != nil {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   len(items),
		"failed":  failed,
		"results": items,
	})
}

type dispatchRequest struct {
	Class  string `json:"class"`
	Method string `json:"method"`
}

// POST /v1/dispatch — resolve a method and run its declared chain.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Class == "" || req.Method == "" {
		writeError(w, http.StatusBadRequest, "class and method are required")
		return
	}
	res, err := h.eng.Dispatch(r.Context(), req.Class, req.Method)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type classInfo struct {
	Name    string   `json:"name"`
	Bases   []string `json:"bases"`
	Methods []string `json:"methods,omitempty"`
}

// GET /v1/classes — list the served hierarchy.
func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	s := h.eng.Snapshot()
	classes := s.Graph.Classes()
	out := make([]classInfo, 0, len(classes))
	for _, c := range classes {
		ci := classInfo{Name: c.Name(), Bases: c.DeclaredParents()}
		for _, m := range c.Methods() {
			ci.Methods = append(ci.Methods, m.Name)
		}
		out = append(out, ci)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   s.Version,
		"root":      s.Graph.Root(),
		"loaded_at": s.LoadedAt.Format(time.RFC3339),
		"classes":   out,
	})
}

// POST /v1/hierarchy/reload — re-read the hierarchy file and swap it in.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "server was started without a hierarchy file")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		metrics.HierarchyReloads.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s, err := h.eng.Apply(cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	slog.Info("hierarchy reloaded via API", "version", s.Version, "classes", s.Graph.ClassCount())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":      true,
		"version":       s.Version,
		"classes_count": s.Graph.ClassCount(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the request queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
