// Package tools holds the catalog of backend-data tools offered to the
// model and the executor that turns a model-selected tool call into an HTTP
// request against the affiliate backend API.
package tools

import (
	"fmt"

	"github.com/manishiitg/multi-llm-provider-go/llmtypes"
)

// Parameter describes one input accepted by a tool.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Endpoint resolves a concrete backend path for a tool call. Resolvers are
// pure: they only compute a path string from the supplied arguments.
type Endpoint interface {
	Resolve(args map[string]string) string
}

// StaticEndpoint is a fixed backend path.
type StaticEndpoint string

// Resolve implements Endpoint.
func (e StaticEndpoint) Resolve(map[string]string) string { return string(e) }

// TemplatedEndpoint computes a path from the call arguments.
type TemplatedEndpoint func(args map[string]string) string

// Resolve implements Endpoint.
func (e TemplatedEndpoint) Resolve(args map[string]string) string { return e(args) }

// Descriptor is one immutable catalog entry.
type Descriptor struct {
	Name        string
	Description string
	Endpoint    Endpoint
	Method      string // GET or POST
	// DefaultBody is merged under the call arguments for POST requests;
	// arguments win on key collision.
	DefaultBody map[string]interface{}
	Parameters  []Parameter
}

// Registry is the static tool catalog. Read-only after construction and
// safe to share across concurrent requests.
type Registry struct {
	order   []string
	entries map[string]Descriptor
}

// NewRegistry builds a registry from descriptors, preserving insertion
// order. Duplicate names are rejected so the catalog stays unambiguous.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{entries: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("tool descriptor with empty name")
		}
		if _, dup := r.entries[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", d.Name)
		}
		if d.Method == "" {
			d.Method = "GET"
		}
		r.entries[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.entries[name]
	return d, ok
}

// DescribeAll returns the catalog in insertion order.
func (r *Registry) DescribeAll() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Names returns the tool names in insertion order. Used in unknown-tool
// error payloads so the model can self-correct.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// LLMTools projects the catalog into the completion-service tool format.
// The projection is a pure function of the registry contents.
func (r *Registry) LLMTools() []llmtypes.Tool {
	out := make([]llmtypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		d := r.entries[name]
		properties := make(map[string]interface{}, len(d.Parameters))
		required := make([]string, 0, len(d.Parameters))
		for _, p := range d.Parameters {
			properties[p.Name] = map[string]interface{}{
				"type":        p.Type,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		schema := map[string]interface{}{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			schema["required"] = required
		}
		out = append(out, llmtypes.Tool{
			Type: "function",
			Function: &llmtypes.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  llmtypes.NewParameters(schema),
			},
		})
	}
	return out
}
