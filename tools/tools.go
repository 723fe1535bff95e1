// Package tools implements the data-tool registry the model can call
// during a conversation: game-universe lookups (EDSM, INARA, EliteBGS),
// PDF manual search, and optional MCP tool servers. Every call goes
// through the TTL cache and is retried once on failure.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"github.com/xyzj/toolbox/crypto"

	"github.com/cmdrkael/kaelbot/cache"
)

// Handler executes one tool call. The returned value must be
// JSON-serializable; its shape is opaque to the registry.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool couples a function definition exposed to the model with its
// handler and cache freshness window.
type Tool struct {
	Def openai.Tool
	TTL time.Duration
	Run Handler
}

type (
	// Opt contains configuration options for the Registry.
	Opt struct {
		httpTimeout time.Duration
		logg        *log.Logger
	}
	// Opts is a function type for configuring Registry options.
	Opts func(opt *Opt)
)

// WithHTTPTimeout sets the timeout applied to outbound tool HTTP calls.
func WithHTTPTimeout(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.httpTimeout = d
	}
}

// WithLogger sets a custom logger for the registry.
func WithLogger(l *log.Logger) Opts {
	return func(opt *Opt) {
		opt.logg = l
	}
}

// Registry holds the available tools and dispatches model tool calls.
type Registry struct {
	cch   *cache.Cache
	cnf   *Opt
	cli   *http.Client
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry whose calls are cached in cch.
func NewRegistry(cch *cache.Cache, opts ...Opts) *Registry {
	opt := &Opt{
		httpTimeout: 15 * time.Second,
		logg:        log.New(io.Discard),
	}
	for _, o := range opts {
		o(opt)
	}
	return &Registry{
		cch:   cch,
		cnf:   opt,
		cli:   &http.Client{Timeout: opt.httpTimeout},
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t *Tool) {
	name := t.Def.Function.Name
	if _, ok := r.tools[name]; !ok {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Defs returns the function definitions for every registered tool, in
// registration order.
func (r *Registry) Defs() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Def)
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.tools)
}

// Call dispatches a tool call by name with its raw JSON arguments and
// returns the JSON-encoded result. Results are served from the TTL cache
// when a live entry exists for the same name and arguments; a miss runs
// the handler, retrying once after a short randomized backoff. Failures
// propagate uncached.
func (r *Registry) Call(ctx context.Context, name, argsJSON string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	args := make(map[string]any)
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("tool %s: bad arguments: %w", name, err)
		}
	}
	key := name + ":" + crypto.GetSHA1(argsJSON)
	raw, err := cache.Cached(ctx, r.cch, key, t.TTL, func(ctx context.Context) (json.RawMessage, error) {
		return r.run(ctx, t, args)
	})
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return string(raw), nil
}

// run executes the handler with one retry on failure.
func (r *Registry) run(ctx context.Context, t *Tool, args map[string]any) (json.RawMessage, error) {
	pol := backoff.NewExponentialBackOff()
	pol.InitialInterval = 250 * time.Millisecond
	pol.RandomizationFactor = 0.5
	return backoff.RetryWithData(func() (json.RawMessage, error) {
		v, err := t.Run(ctx, args)
		if err != nil {
			r.cnf.logg.Warn("tool call failed", "tool", t.Def.Function.Name, "err", err)
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return raw, nil
	}, backoff.WithContext(backoff.WithMaxRetries(pol, 1), ctx))
}

// getJSON performs a GET against url and decodes the response body into a
// generic JSON value. Non-2xx statuses are transport failures.
func (r *Registry) getJSON(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("GET %s: decode: %w", url, err)
	}
	return v, nil
}

func strArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return v, nil
}

// objectSchema builds the parameters block for a function definition from
// property name/description pairs, all required strings.
func objectSchema(props ...[2]string) map[string]any {
	properties := make(map[string]any, len(props))
	required := make([]string, 0, len(props))
	for _, p := range props {
		properties[p[0]] = map[string]any{"type": "string", "description": p[1]}
		required = append(required, p[0])
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
