package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"stelagent/logger"
)

// Invocation is one model-requested tool call. Arguments arrive from an
// untrusted boundary: the model may name an unknown tool or omit required
// parameters.
type Invocation struct {
	// ID is the correlation token supplied by the model; it is echoed back
	// in the matching Result.
	ID        string
	Name      string
	Arguments map[string]string
}

// Result is the outcome of executing one Invocation. Payload is always a
// parsable JSON string: either the backend response or a structured error
// object the model can reason about.
type Result struct {
	InvocationID string
	Tool         string
	Payload      string
	OK           bool
	Duration     time.Duration
}

// Executor resolves invocations against the registry and performs the
// backend HTTP call. Execute never returns an error; every failure mode is
// captured in the result payload so the loop keeps running.
type Executor struct {
	registry *Registry
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	log      logger.Logger
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	Registry *Registry
	// BaseURL is the backend data API root, e.g. http://localhost:8000.
	BaseURL string
	// Client is the HTTP client to use; http.DefaultClient if nil.
	Client *http.Client
	// Timeout bounds each tool call independently of the request timeout,
	// so one hanging tool cannot stall a whole round.
	Timeout time.Duration
	Logger  logger.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Executor{
		registry: cfg.Registry,
		baseURL:  cfg.BaseURL,
		client:   client,
		timeout:  timeout,
		log:      log.With(logger.String("component", "tool_executor")),
	}
}

// Execute runs one invocation to completion.
func (e *Executor) Execute(ctx context.Context, inv Invocation) Result {
	start := time.Now()

	desc, ok := e.registry.Lookup(inv.Name)
	if !ok {
		e.log.Warn("unknown tool requested", logger.String("tool", inv.Name))
		return e.failure(inv, start, map[string]interface{}{
			"error":           fmt.Sprintf("Tool '%s' not found in registry", inv.Name),
			"available_tools": e.registry.Names(),
		})
	}

	if missing := missingRequired(desc, inv.Arguments); missing != "" {
		e.log.Warn("tool call missing required parameter",
			logger.String("tool", inv.Name),
			logger.String("parameter", missing))
		return e.failure(inv, start, map[string]interface{}{
			"error": fmt.Sprintf("Missing required parameter '%s' for tool '%s'", missing, inv.Name),
			"tool":  inv.Name,
		})
	}

	endpoint := desc.Endpoint.Resolve(inv.Arguments)
	url := e.baseURL + endpoint

	e.log.Info("executing tool",
		logger.String("tool", inv.Name),
		logger.String("url", url),
		logger.String("method", desc.Method),
		logger.Any("arg_keys", argKeys(inv.Arguments)))

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var body io.Reader
	if desc.Method == http.MethodPost {
		merged := make(map[string]interface{}, len(desc.DefaultBody)+len(inv.Arguments))
		for k, v := range desc.DefaultBody {
			merged[k] = v
		}
		for k, v := range inv.Arguments {
			merged[k] = v
		}
		encoded, err := json.Marshal(merged)
		if err != nil {
			return e.executionFailure(inv, start, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(callCtx, desc.Method, url, body)
	if err != nil {
		return e.executionFailure(inv, start, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Error("tool call failed", err, logger.String("tool", inv.Name))
		return e.executionFailure(inv, start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.log.Warn("backend returned non-success status",
			logger.String("tool", inv.Name),
			logger.Int("status", resp.StatusCode))
		return e.failure(inv, start, map[string]interface{}{
			"error":    fmt.Sprintf("API returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			"tool":     inv.Name,
			"endpoint": endpoint,
		})
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return e.executionFailure(inv, start, err)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return e.executionFailure(inv, start, err)
	}
	pretty, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return e.executionFailure(inv, start, err)
	}

	duration := time.Since(start)
	e.log.Info("tool succeeded",
		logger.String("tool", inv.Name),
		logger.Int("result_bytes", len(pretty)),
		logger.Duration("duration", duration))
	return Result{
		InvocationID: inv.ID,
		Tool:         inv.Name,
		Payload:      string(pretty),
		OK:           true,
		Duration:     duration,
	}
}

// executionFailure captures transport, timeout, and decode failures.
func (e *Executor) executionFailure(inv Invocation, start time.Time, cause error) Result {
	return e.failure(inv, start, map[string]interface{}{
		"error": fmt.Sprintf("Failed to execute %s: %v", inv.Name, cause),
		"tool":  inv.Name,
	})
}

func (e *Executor) failure(inv Invocation, start time.Time, payload map[string]interface{}) Result {
	encoded, err := json.Marshal(payload)
	if err != nil {
		// Payload maps are built from strings above; this should not happen.
		encoded = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return Result{
		InvocationID: inv.ID,
		Tool:         inv.Name,
		Payload:      string(encoded),
		OK:           false,
		Duration:     time.Since(start),
	}
}

func missingRequired(desc Descriptor, args map[string]string) string {
	for _, p := range desc.Parameters {
		if !p.Required {
			continue
		}
		if v, ok := args[p.Name]; !ok || v == "" {
			return p.Name
		}
	}
	return ""
}

func argKeys(args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
