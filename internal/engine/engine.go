package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/mro/internal/config"
	"github.com/gyaneshwarpardhi/mro/internal/dispatch"
	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
	"github.com/gyaneshwarpardhi/mro/internal/metrics"
)

var (
	ErrQueueFull = errors.New("request queue full")
	ErrTimeout   = errors.New("request timeout")
)

// Snapshot is one loaded hierarchy together with its method table.
type Snapshot struct {
	Graph    *hierarchy.Graph
	Table    *dispatch.Table
	Version  string
	LoadedAt time.Time
}

// NewSnapshot builds the graph and the declared method table for cfg.
func NewSnapshot(cfg *config.HierarchyConfig) (*Snapshot, error) {
	g, err := hierarchy.Build(cfg)
	if err != nil {
		return nil, err
	}
	tbl, err := dispatch.FromGraph(g)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Graph: g, Table: tbl, Version: cfg.Version, LoadedAt: time.Now()}, nil
}

// Result is the outcome of a single linearize or dispatch request.
type Result struct {
	RequestID  string                  `json:"request_id"`
	Class      string                  `json:"class"`
	Method     string                  `json:"method,omitempty"`
	MRO        hierarchy.Linearization `json:"mro,omitempty"`
	Provider   string                  `json:"provider,omitempty"`
	Trace      []string                `json:"trace,omitempty"`
	DurationUs int64                   `json:"duration_us"`
}

type opKind string

const (
	opLinearize opKind = "linearize"
	opDispatch  opKind = "dispatch"
)

type work struct {
	ctx     context.Context
	op      opKind
	class   string
	method  string
	resultC chan outcome
}

type outcome struct {
	res *Result
	err error
}

// Engine serves linearize and dispatch requests over the current snapshot.
type Engine struct {
	snap    atomic.Pointer[Snapshot]
	pool    *workerPool[*work]
	conf    config.EngineConf
	timeout time.Duration
}

// New creates an Engine using conf and starts the worker pool.
// Settings that are not positive fall back to the config defaults.
func New(ctx context.Context, s *Snapshot, conf config.EngineConf) *Engine {
	if conf.Workers <= 0 {
		conf.Workers = config.DefaultWorkers
	}
	if conf.QueueDepth <= 0 {
		conf.QueueDepth = config.DefaultQueueDepth
	}
	if conf.RequestTimeoutMs <= 0 {
		conf.RequestTimeoutMs = config.DefaultRequestTimeoutMs
	}
	e := &Engine{
		conf:    conf,
		timeout: time.Duration(conf.RequestTimeoutMs) * time.Millisecond,
	}
	e.SwapSnapshot(s)
	e.pool = newWorkerPool[*work](ctx, conf.Workers, conf.QueueDepth, func(_ context.Context, w *work) {
		res, err := e.process(w)
		w.resultC <- outcome{res: res, err: err}
	})
	return e
}

// SwapSnapshot atomically replaces the served hierarchy (used on hot-reload).
func (e *Engine) SwapSnapshot(s *Snapshot) {
	e.snap.Store(s)
	metrics.HierarchyClasses.Set(float64(s.Graph.ClassCount()))
}

// Apply validates cfg, builds a snapshot from it and swaps it in. On error
// the current snapshot keeps serving.
func (e *Engine) Apply(cfg *config.HierarchyConfig) (*Snapshot, error) {
	if err := config.Validate(cfg); err != nil {
		metrics.HierarchyReloads.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", hierarchy.ErrInvalidHierarchy, err)
	}
	s, err := NewSnapshot(cfg)
	if err != nil {
		metrics.HierarchyReloads.WithLabelValues("invalid").Inc()
		return nil, err
	}
	e.SwapSnapshot(s)
	metrics.HierarchyReloads.WithLabelValues("ok").Inc()
	return s, nil
}

// Snapshot returns the currently served hierarchy.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Linearize computes the resolution order of class.
func (e *Engine) Linearize(ctx context.Context, class string) (*Result, error) {
	return e.submit(ctx, &work{op: opLinearize, class: class})
}

// Dispatch resolves method for an instance of class and runs the declared chain.
func (e *Engine) Dispatch(ctx context.Context, class, method string) (*Result, error) {
	return e.submit(ctx, &work{op: opDispatch, class: class, method: method})
}

func (e *Engine) submit(ctx context.Context, w *work) (*Result, error) {
	w.ctx = ctx
	w.resultC = make(chan outcome, 1)
	if !e.pool.Submit(w) {
		metrics.RequestsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RequestsEnqueued.Inc()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	select {
	case o := <-w.resultC:
		return o.res, o.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrTimeout, e.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) process(w *work) (*Result, error) {
	start := time.Now()
	s := e.snap.Load()
	res := &Result{RequestID: uuid.New().String(), Class: w.class, Method: w.method}

	var err error
	switch w.op {
	case opLinearize:
		res.MRO, err = s.Graph.Linearize(w.class)
		metrics.Linearizations.WithLabelValues(Outcome(err)).Inc()
	case opDispatch:
		var call *dispatch.Call
		call, err = s.Table.Invoke(w.ctx, w.class, w.method)
		if call != nil {
			res.MRO = call.MRO()
			res.Trace = call.Trace()
			if tr := call.Trace(); len(tr) > 0 {
				res.Provider = tr[0]
			}
		}
		metrics.Dispatches.WithLabelValues(Outcome(err)).Inc()
	default:
		err = fmt.Errorf("unknown operation %q", w.op)
	}

	elapsed := time.Since(start)
	res.DurationUs = elapsed.Microseconds()
	metrics.RequestDuration.WithLabelValues(string(w.op)).Observe(float64(elapsed) / float64(time.Millisecond))
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Outcome classifies err into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, hierarchy.ErrInconsistentHierarchy):
		return "inconsistent"
	case errors.Is(err, hierarchy.ErrInvalidHierarchy):
		return "invalid"
	case errors.Is(err, hierarchy.ErrClassNotFound):
		return "class_not_found"
	case errors.Is(err, dispatch.ErrMethodNotFound):
		return "method_not_found"
	default:
		return "error"
	}
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
