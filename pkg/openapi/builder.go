// pkg/openapi/builder.go
package openapi

import (
	"strings"
)

// Operation represents a single HTTP operation to surface in OpenAPI.
type Operation struct {
	Method    string         `json:"method"`
	Path      string         `json:"path"`
	Summary   string         `json:"summary,omitempty"`
	Responses map[string]any `json:"responses"`
}

// Registry holds registered operations for the public document.
type Registry struct {
	Ops []Operation
}

func NewRegistry() *Registry { return &Registry{Ops: []Operation{}} }

func (r *Registry) Register(op Operation) {
	if op.Method != "" {
		op.Method = strings.ToLower(op.Method)
	}
	if op.Responses == nil {
		op.Responses = map[string]any{"200": map[string]any{"description": "OK"}}
	}
	r.Ops = append(r.Ops, op)
}

// Build produces a minimal OpenAPI 3.1 document for the registered
// operations. Schemas stay inline; this is discovery metadata, not a
// contract generator.
func (r *Registry) Build(serviceName, version string) map[string]any {
	paths := map[string]any{}
	for _, op := range r.Ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		paths[op.Path].(map[string]any)[op.Method] = map[string]any{
			"summary":   op.Summary,
			"responses": op.Responses,
		}
	}
	return map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": serviceName, "version": version},
		"paths":   paths,
	}
}
