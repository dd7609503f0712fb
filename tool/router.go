package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/prism/logging"
	"github.com/hupe1980/prism/ratelimit"
)

// RouterOptions configures a Router.
type RouterOptions struct {
	// RateLimitPerMinute caps calls per tool name within a sliding minute.
	// Zero or negative disables limiting.
	RateLimitPerMinute int

	// Limiter overrides the internally constructed limiter. Used by tests
	// to inject a fake clock.
	Limiter *ratelimit.Limiter

	Logger logging.Logger
}

// Router dispatches calls to registered tools by name. Every tool name is
// rate limited independently through a sliding-window limiter; a rejected
// call never reaches the tool.
type Router struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	limiter *ratelimit.Limiter
	logger  logging.Logger
}

// NewRouter creates a router with the given tools registered.
func NewRouter(tools []Tool, optFns ...func(o *RouterOptions)) *Router {
	opts := RouterOptions{
		RateLimitPerMinute: 60,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	limiter := opts.Limiter
	if limiter == nil && opts.RateLimitPerMinute > 0 {
		limiter = ratelimit.New(opts.RateLimitPerMinute)
	}

	r := &Router{
		tools:   make(map[string]Tool, len(tools)),
		limiter: limiter,
		logger:  logging.OrNoOp(opts.Logger),
	}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Register adds a tool, replacing any previous registration under the same name.
func (r *Router) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Tools returns the registered tools in unspecified order.
func (r *Router) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Call routes a named call through the rate limiter to the tool.
func (r *Router) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if r.limiter != nil && !r.limiter.Allow(name) {
		r.logger.Warn("tool.call.rate_limited", "tool", name)
		return nil, fmt.Errorf("%w: %q", ErrRateLimited, name)
	}

	start := time.Now()
	result, err := t.Call(ctx, args)
	if err != nil {
		r.logger.Error("tool.call.error", "tool", name, "error", err.Error())
		return nil, err
	}

	r.logger.Info("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
