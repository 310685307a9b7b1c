// Package pipeline provides the core request pipeline for Gridorganize.
//
// This package dispatches editor requests to the layout and overlap detection
// engines and caches their results. By centralizing this logic, we ensure
// consistent behavior across CLI and API entry points and avoid code
// duplication.
//
// # Actions
//
// A request names an action and carries its payload:
//
//   - organize: compute the column layout for a graph snapshot
//   - reroute: detect obstructed links and plan reroutes around them
//   - log: surface a client-side message in the server log
//
// # Caching
//
// A graph snapshot is pure input: the same action applied to the same
// snapshot always yields the same result. Results are therefore cached under
// a key derived from the action name and the hash of the canonical graph
// JSON, so an unchanged snapshot never recomputes.
//
// # Usage
//
// Create a Runner and execute requests:
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	data, cached, err := runner.Execute(ctx, pipeline.Request{
//	    Action: pipeline.ActionOrganize,
//	    Graph:  snapshot,
//	})
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridorganize/gridorganize/pkg/cache"
	"github.com/gridorganize/gridorganize/pkg/errors"
	"github.com/gridorganize/gridorganize/pkg/graph"
	"github.com/gridorganize/gridorganize/pkg/layout"
	"github.com/gridorganize/gridorganize/pkg/observability"
	"github.com/gridorganize/gridorganize/pkg/overlap"
)

// =============================================================================
// Requests
// =============================================================================

// Action selects what a request does.
type Action string

// Supported actions.
const (
	// ActionOrganize computes the column layout for a graph snapshot.
	ActionOrganize Action = "organize"

	// ActionReroute detects obstructed links and plans reroutes.
	ActionReroute Action = "reroute"

	// ActionLog surfaces a client-side message in the server log.
	ActionLog Action = "log"
)

// Request is one editor request. Message is only meaningful for the log
// action; Graph only for the graph-processing actions.
type Request struct {
	Action  Action      `json:"action" bson:"action"`
	Message string      `json:"message,omitempty" bson:"message,omitempty"`
	Graph   graph.Graph `json:"graph" bson:"graph"`
}

// DefaultTTL is how long cached results live unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// =============================================================================
// Runner
// =============================================================================

// Runner encapsulates request execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't store
// results. Multiple goroutines can safely share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute runs one request and returns the serialized result plus whether it
// was served from cache. The bytes are exactly what the editor receives.
func (r *Runner) Execute(ctx context.Context, req Request) (json.RawMessage, bool, error) {
	switch req.Action {
	case ActionLog:
		r.Logger.Info("client log", "message", req.Message)
		data, err := json.Marshal(struct {
			Status string `json:"status"`
		}{Status: layout.StatusSuccess})
		return data, false, err

	case ActionOrganize, ActionReroute:
		return r.executeGraphAction(ctx, req)

	default:
		return nil, false, errors.New(errors.ErrCodeInvalidAction, "unknown action: %s", req.Action)
	}
}

// executeGraphAction runs a cached graph-processing action.
func (r *Runner) executeGraphAction(ctx context.Context, req Request) (json.RawMessage, bool, error) {
	snapshot, err := json.Marshal(req.Graph)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidGraph, err, "encode graph snapshot")
	}
	key := r.Keyer.ResultKey(string(req.Action), cache.Hash(snapshot))

	if data, hit, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("cache read failed; recomputing", "err", err)
	} else if hit {
		observability.Cache().OnCacheHit(ctx, "result")
		r.Logger.Debug("result served from cache", "action", req.Action, "key", key)
		return data, true, nil
	} else {
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	var result any
	switch req.Action {
	case ActionOrganize:
		result, err = r.organize(ctx, req.Graph)
	case ActionReroute:
		result = r.reroute(ctx, req.Graph)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, errors.Wrap(errors.ErrCodeCanceled, err, "%s interrupted", req.Action)
		}
		return nil, false, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encode %s result", req.Action)
	}

	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "result", len(data))
	}
	return data, false, nil
}

// organize runs the column layout with hooks and stage timing.
func (r *Runner) organize(ctx context.Context, g graph.Graph) (*layout.Result, error) {
	start := time.Now()
	observability.Pipeline().OnOrganizeStart(ctx, len(g.Nodes), len(g.Links))

	res, err := layout.Organize(ctx, g, layout.WithTrace(r.Logger))

	positioned := 0
	if res != nil {
		positioned = len(res.Positions)
	}
	observability.Pipeline().OnOrganizeComplete(ctx, positioned, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("organized graph",
		"nodes", len(g.Nodes),
		"positioned", positioned,
		"duration", time.Since(start))
	return res, nil
}

// reroute runs overlap detection with hooks and stage timing.
func (r *Runner) reroute(ctx context.Context, g graph.Graph) *overlap.Result {
	start := time.Now()
	observability.Pipeline().OnDetectStart(ctx, len(g.Nodes), len(g.Links))

	res := overlap.Detect(g, overlap.WithTrace(r.Logger))

	observability.Pipeline().OnDetectComplete(ctx, len(res.Overlaps), time.Since(start), nil)

	r.Logger.Info("detected link overlaps",
		"links", len(g.Links),
		"overlaps", len(res.Overlaps),
		"duration", time.Since(start))
	return res
}
